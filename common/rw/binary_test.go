package rw

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBack(t *testing.T) {
	w := NewWriter()
	w.WriteUInt32(0xdeadbeef)
	w.WriteInt32(-7)
	w.WriteFloat32(1.5)
	w.WriteBytes([]byte("nav"))
	assert.Equal(t, 15, w.Size())

	r := NewReader(w.GetWriteBytes())
	u, err := r.ReadUInt32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u)
	i, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-7), i)
	f, err := r.ReadFloat32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f)
	b, err := r.ReadBytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("nav"), b)

	_, err = r.ReadUInt32()
	assert.Error(t, err)
	_, err = r.ReadBytes(1)
	assert.Error(t, err)
}

func TestLittleEndian(t *testing.T) {
	w := NewWriter()
	w.WriteUInt32(1)
	assert.Equal(t, []byte{1, 0, 0, 0}, w.GetWriteBytes())
}

func TestText(t *testing.T) {
	w := NewWriter()
	w.WriteString("# header\n")
	w.Printf("v %d %.1f\n", 3, 2.5)

	var out bytes.Buffer
	n, err := w.WriteTo(&out)
	require.NoError(t, err)
	assert.EqualValues(t, out.Len(), n)
	assert.Equal(t, "# header\nv 3 2.5\n", out.String())
	assert.Zero(t, w.Size())
}
