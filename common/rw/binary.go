package rw

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ReaderWriter is a little-endian byte buffer used for snapshot envelopes
// and text dumps.
type ReaderWriter struct {
	order   binary.ByteOrder
	dataBuf []byte
	rw      bytes.Buffer
}

func NewWriter() *ReaderWriter {
	return &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
}

func NewReader(data []byte) *ReaderWriter {
	d := NewWriter()
	d.rw.Write(data)
	return d
}

func (w *ReaderWriter) read(n int) ([]byte, error) {
	if _, err := io.ReadFull(&w.rw, w.dataBuf[:n]); err != nil {
		return nil, fmt.Errorf("rw: short read of %d bytes: %w", n, err)
	}
	return w.dataBuf[:n], nil
}

func (w *ReaderWriter) ReadUInt32() (uint32, error) {
	b, err := w.read(4)
	if err != nil {
		return 0, err
	}
	return w.order.Uint32(b), nil
}

func (w *ReaderWriter) ReadInt32() (int32, error) {
	v, err := w.ReadUInt32()
	return int32(v), err
}

func (w *ReaderWriter) ReadFloat32() (float32, error) {
	v, err := w.ReadUInt32()
	return math.Float32frombits(v), err
}

// ReadBytes consumes exactly n bytes.
func (w *ReaderWriter) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > w.rw.Len() {
		return nil, fmt.Errorf("rw: want %d bytes, have %d", n, w.rw.Len())
	}
	res := make([]byte, n)
	copy(res, w.rw.Next(n))
	return res, nil
}

func (w *ReaderWriter) WriteUInt32(v uint32) {
	w.order.PutUint32(w.dataBuf, v)
	w.rw.Write(w.dataBuf[:4])
}

func (w *ReaderWriter) WriteInt32(v int32) {
	w.WriteUInt32(uint32(v))
}

func (w *ReaderWriter) WriteFloat32(v float32) {
	w.WriteUInt32(math.Float32bits(v))
}

func (w *ReaderWriter) WriteBytes(b []byte) {
	w.rw.Write(b)
}

func (w *ReaderWriter) WriteString(s string) {
	w.rw.WriteString(s)
}

func (w *ReaderWriter) Printf(format string, args ...any) {
	fmt.Fprintf(&w.rw, format, args...)
}

func (w *ReaderWriter) GetWriteBytes() []byte {
	return w.rw.Bytes()
}

func (w *ReaderWriter) Size() int {
	return w.rw.Len()
}

// WriteTo drains the buffer into dst.
func (w *ReaderWriter) WriteTo(dst io.Writer) (int64, error) {
	return w.rw.WriteTo(dst)
}
