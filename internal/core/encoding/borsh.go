// Package encoding produces the canonical (borsh) bytes of transactions.
package encoding

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
)

// Writer accumulates borsh-encoded values. The first error sticks.
type Writer struct {
	buf bytes.Buffer
	err error
}

func (w *Writer) U8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) U64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// U128 writes v as 16 little-endian bytes. nil encodes as zero.
func (w *Writer) U128(v *big.Int) {
	var b [16]byte
	if v != nil {
		if v.Sign() < 0 || v.BitLen() > 128 {
			w.fail(fmt.Errorf("value %s does not fit in u128", v))
			return
		}
		be := v.Bytes()
		for i := range be {
			b[i] = be[len(be)-1-i]
		}
	}
	w.buf.Write(b[:])
}

// Fixed writes raw bytes without a length prefix.
func (w *Writer) Fixed(p []byte) {
	w.buf.Write(p)
}

// Bytes writes a u32 length followed by p.
func (w *Writer) Bytes(p []byte) {
	w.U32(uint32(len(p)))
	w.buf.Write(p)
}

func (w *Writer) Text(s string) {
	w.Bytes([]byte(s))
}

func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
	} else {
		w.U8(0)
	}
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Result returns the encoded bytes or the first error.
func (w *Writer) Result() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}
