package geodoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/andreyvit/geodoc/kvo"
	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Encoding is a byte format for document trees. Every encoding produces the
// same bytes for equal trees.
type Encoding int

const (
	JSON Encoding = iota
	// JSONC reads JSON with comments and trailing commas, and writes plain JSON.
	JSONC
	MsgPack
	CBOR
	YAML
)

var encodingNames = []string{
	JSON:    "json",
	JSONC:   "jsonc",
	MsgPack: "msgpack",
	CBOR:    "cbor",
	YAML:    "yaml",
}

var encodingAliases = map[string]Encoding{
	"mpk": MsgPack,
	"yml": YAML,
}

func (enc Encoding) String() string {
	if enc >= 0 && int(enc) < len(encodingNames) {
		return encodingNames[enc]
	}
	return fmt.Sprintf("Encoding(%d)", int(enc))
}

// IsText reports whether enc produces human-readable text.
func (enc Encoding) IsText() bool {
	return enc == JSON || enc == JSONC || enc == YAML
}

// Encodings lists all supported encodings.
func Encodings() []Encoding {
	return []Encoding{JSON, JSONC, MsgPack, CBOR, YAML}
}

func ParseEncoding(s string) (Encoding, error) {
	s = strings.ToLower(s)
	for i, name := range encodingNames {
		if name == s {
			return Encoding(i), nil
		}
	}
	if enc, ok := encodingAliases[s]; ok {
		return enc, nil
	}
	return 0, fmt.Errorf("geodoc: unsupported encoding %q", s)
}

// EncodingForPath picks an encoding based on the file extension.
func EncodingForPath(path string) (Encoding, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return 0, false
	}
	enc, err := ParseEncoding(ext)
	return enc, err == nil
}

// cborEncMode uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer and float encodings, no indefinite-length items.
var cborEncMode cbor.EncMode

var cborDecMode cbor.DecMode

func init() {
	var err error
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("geodoc: CBOR encoder initialization failed: " + err.Error())
	}
	cborDecMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("geodoc: CBOR decoder initialization failed: " + err.Error())
	}
}

func (enc Encoding) Marshal(n *kvo.Node) ([]byte, error) {
	return enc.AppendMarshal(nil, n)
}

// AppendMarshal serializes n and appends the result to buf.
func (enc Encoding) AppendMarshal(buf []byte, n *kvo.Node) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("geodoc: cannot marshal missing node")
	}
	var raw []byte
	var err error
	switch enc {
	case JSON, JSONC:
		if !kvo.IsFinite(n) {
			return nil, fmt.Errorf("geodoc: %s cannot represent infinite or NaN numbers", enc)
		}
		raw, err = json.Marshal(n.Any())
	case MsgPack:
		bb := bytesBuilder{buf}
		menc := msgpack.GetEncoder()
		menc.Reset(&bb)
		menc.SetSortMapKeys(true)
		err = menc.Encode(n.Any())
		msgpack.PutEncoder(menc)
		if err != nil {
			return nil, fmt.Errorf("geodoc: failed to encode %s: %w", enc, err)
		}
		return bb.Buf, nil
	case CBOR:
		raw, err = cborEncMode.Marshal(n.Any())
	case YAML:
		raw, err = yaml.Marshal(n.Any())
	default:
		panic("unsupported encoding")
	}
	if err != nil {
		return nil, fmt.Errorf("geodoc: failed to encode %s: %w", enc, err)
	}
	return appendRaw(buf, raw), nil
}

func (enc Encoding) Unmarshal(data []byte) (*kvo.Node, error) {
	if len(data) == 0 || (enc.IsText() && len(bytes.TrimSpace(data)) == 0) {
		return nil, dataErrf(data, 0, nil, "empty %s input", enc)
	}
	var raw any
	switch enc {
	case JSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, dataErrf(data, 0, err, "failed to decode %s", enc)
		}
	case JSONC:
		if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
			return nil, dataErrf(data, 0, err, "failed to decode %s", enc)
		}
	case MsgPack:
		r := bytes.NewReader(data)
		dec := msgpack.GetDecoder()
		dec.Reset(r)
		v, err := dec.DecodeInterface()
		msgpack.PutDecoder(dec)
		if err != nil {
			return nil, dataErrf(data, 0, err, "failed to decode %s", enc)
		}
		if r.Len() != 0 {
			off := len(data) - r.Len()
			return nil, dataErrf(data, off, nil, "failed to decode %s: %d trailing bytes", enc, r.Len())
		}
		raw = v
	case CBOR:
		if err := cborDecMode.Unmarshal(data, &raw); err != nil {
			return nil, dataErrf(data, 0, err, "failed to decode %s", enc)
		}
	case YAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, dataErrf(data, 0, err, "failed to decode %s", enc)
		}
	default:
		panic("unsupported encoding")
	}
	n, err := kvo.FromAny(raw)
	if err != nil {
		return nil, dataErrf(data, 0, err, "unsupported %s content", enc)
	}
	return n, nil
}

// Marshal encodes v with its registered adapter and then serializes the
// document with enc.
func (reg *Registry) Marshal(v any, enc Encoding) ([]byte, error) {
	n, err := reg.Encode(v)
	if err != nil {
		return nil, err
	}
	return enc.Marshal(n)
}

// Unmarshal parses data with enc and decodes the document into *ptr.
func (reg *Registry) Unmarshal(data []byte, enc Encoding, ptr any) error {
	if _, _, err := reg.adapterForPtr(ptr); err != nil {
		return err
	}
	n, err := enc.Unmarshal(data)
	if err != nil {
		return err
	}
	return reg.DecodeInto(n, ptr)
}
