package kvo

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Dump returns a compact single-line rendering of the tree, with map keys
// sorted, e.g. {Q: {0: 0, 1: 0, 2: 0, 3: 1}, V: {0: 1, 1: 2, 2: 3}}.
func Dump(n *Node) string {
	var buf strings.Builder
	dump(&buf, n)
	return buf.String()
}

func (n *Node) Dump() string { return Dump(n) }

func dump(buf *strings.Builder, n *Node) {
	if n == nil {
		buf.WriteString("<missing>")
		return
	}
	switch n.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(n.b))
	case KindFloat:
		buf.WriteString(strconv.FormatFloat(n.f, 'g', -1, 64))
	case KindString:
		buf.WriteString(strconv.Quote(n.s))
	case KindList:
		buf.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				buf.WriteString(", ")
			}
			dump(buf, item)
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, k := range n.Keys() {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(k)
			buf.WriteString(": ")
			dump(buf, n.Get(k))
		}
		buf.WriteByte('}')
	}
}

// Fingerprint returns a 64-bit hash of the tree's canonical form. Trees that
// are Equal have the same fingerprint: all NaNs hash alike, and so do 0
// and -0.
func Fingerprint(n *Node) uint64 {
	d := xxhash.New()
	var scratch [9]byte
	fingerprint(d, scratch[:], n)
	return d.Sum64()
}

func fingerprint(d *xxhash.Digest, scratch []byte, n *Node) {
	if n == nil {
		scratch[0] = byte(KindMissing)
		d.Write(scratch[:1])
		return
	}
	scratch[0] = byte(n.kind)
	switch n.kind {
	case KindNull:
		d.Write(scratch[:1])
	case KindBool:
		scratch[1] = 0
		if n.b {
			scratch[1] = 1
		}
		d.Write(scratch[:2])
	case KindFloat:
		f := n.f
		if f != f {
			f = math.NaN()
		} else if f == 0 {
			f = 0
		}
		binary.BigEndian.PutUint64(scratch[1:], math.Float64bits(f))
		d.Write(scratch[:9])
	case KindString:
		binary.BigEndian.PutUint64(scratch[1:], uint64(len(n.s)))
		d.Write(scratch[:9])
		d.WriteString(n.s)
	case KindList:
		binary.BigEndian.PutUint64(scratch[1:], uint64(len(n.items)))
		d.Write(scratch[:9])
		for _, item := range n.items {
			fingerprint(d, scratch, item)
		}
	case KindMap:
		binary.BigEndian.PutUint64(scratch[1:], uint64(len(n.entries)))
		d.Write(scratch[:9])
		for _, k := range n.Keys() {
			binary.BigEndian.PutUint64(scratch[1:], uint64(len(k)))
			d.Write(scratch[1:9])
			d.WriteString(k)
			fingerprint(d, scratch, n.Get(k))
		}
	}
}
