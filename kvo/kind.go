package kvo

type Kind int

const (
	KindMissing Kind = iota
	KindNull
	KindBool
	KindFloat
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindFloat:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}
