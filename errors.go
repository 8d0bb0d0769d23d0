package geodoc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingKey       = errors.New("missing key")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrUnsupportedArity = errors.New("unsupported arity")
	ErrDuplicateField   = errors.New("duplicate field")
	ErrInvalidAdapter   = errors.New("invalid adapter")
	ErrNoAdapter        = errors.New("no adapter registered")
)

// DecodeError is returned when a document does not match the shape an adapter
// expects. Root names the adapter decoding was started with; Path is the chain
// of keys below it, e.g. pose.V.2.
type DecodeError struct {
	Root string
	Path []string
	Kind error
	Msg  string
	Err  error
}

func decodeErrf(kind error, key string, format string, args ...any) *DecodeError {
	var path []string
	if key != "" {
		path = []string{key}
	}
	var msg string
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &DecodeError{Path: path, Kind: kind, Msg: msg}
}

// nestDecodeError reports err as having happened under key of root.
func nestDecodeError(root, key string, err error) *DecodeError {
	var de *DecodeError
	if errors.As(err, &de) {
		path := make([]string, 0, 1+len(de.Path))
		path = append(path, key)
		path = append(path, de.Path...)
		return &DecodeError{root, path, de.Kind, de.Msg, de.Err}
	}
	return &DecodeError{Root: root, Path: []string{key}, Err: err}
}

func (e *DecodeError) withRoot(root string) *DecodeError {
	e.Root = root
	return e
}

func (e *DecodeError) Unwrap() error {
	if e.Kind != nil {
		return e.Kind
	}
	return e.Err
}

// Location returns the dotted path of the offending node.
func (e *DecodeError) Location() string {
	var buf strings.Builder
	buf.WriteString(e.Root)
	for _, k := range e.Path {
		if buf.Len() > 0 {
			buf.WriteByte('.')
		}
		buf.WriteString(k)
	}
	return buf.String()
}

func (e *DecodeError) Error() string {
	var buf strings.Builder
	if loc := e.Location(); loc != "" {
		buf.WriteString(loc)
		buf.WriteString(": ")
	}
	if e.Kind != nil {
		buf.WriteString(e.Kind.Error())
		if e.Msg != "" {
			buf.WriteString(": ")
			buf.WriteString(e.Msg)
		}
	} else {
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		if e.Kind != nil || e.Msg != "" {
			buf.WriteString(": ")
		}
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// ConfigError means an adapter definition is unusable. It is reported when the
// adapter is constructed, before any value is encoded or decoded.
type ConfigError struct {
	Adapter string
	Kind    error
	Msg     string
}

func configErrf(adapter string, kind error, format string, args ...any) error {
	return &ConfigError{adapter, kind, fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Unwrap() error {
	return e.Kind
}

func (e *ConfigError) Error() string {
	var buf strings.Builder
	buf.WriteString("geodoc: ")
	if e.Adapter != "" {
		buf.WriteString(e.Adapter)
		buf.WriteString(": ")
	}
	buf.WriteString(e.Kind.Error())
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	return buf.String()
}

// DataError is returned when raw bytes cannot be decoded into a document.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s: (%d) %x", e.Msg, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x...%x", e.Msg, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s: (%d) %x...%x", e.Msg, n, p, s)
		}
	}
}
