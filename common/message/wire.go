package message

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

var ErrMalformed = errors.New("message: malformed wire data")

// Field is one decoded top-level field. Bytes holds the payload of length
// delimited fields, Varint the value of varint fields.
type Field struct {
	Num    protowire.Number
	Type   protowire.Type
	Varint uint64
	Bytes  []byte
}

func AppendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func AppendFloat32(b []byte, num protowire.Number, v float32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

func AppendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

// AppendPackedVarints writes a packed repeated varint field.
func AppendPackedVarints[T ~int | ~int32 | ~uint16 | ~uint8 | ~uint32](b []byte, num protowire.Number, vs []T) []byte {
	if len(vs) == 0 {
		return b
	}
	var payload []byte
	for _, v := range vs {
		payload = protowire.AppendVarint(payload, uint64(v))
	}
	return AppendBytes(b, num, payload)
}

// AppendPackedFloat32s writes a packed repeated fixed32 float field.
func AppendPackedFloat32s(b []byte, num protowire.Number, vs []float32) []byte {
	if len(vs) == 0 {
		return b
	}
	payload := make([]byte, 0, len(vs)*4)
	for _, v := range vs {
		payload = protowire.AppendFixed32(payload, math.Float32bits(v))
	}
	return AppendBytes(b, num, payload)
}

// Fields splits a message into its top-level fields, in wire order.
func Fields(b []byte) ([]Field, error) {
	var res []Field
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: tag: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		f := Field{Num: num, Type: typ}
		switch typ {
		case protowire.VarintType:
			f.Varint, n = protowire.ConsumeVarint(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			f.Varint = uint64(v)
		case protowire.BytesType:
			f.Bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]
		res = append(res, f)
	}
	return res, nil
}

func (f Field) Float32() float32 {
	return math.Float32frombits(uint32(f.Varint))
}

// PackedVarints decodes a packed repeated varint payload.
func (f Field) PackedVarints() ([]int, error) {
	var res []int
	b := f.Bytes
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: packed field %d", ErrMalformed, f.Num)
		}
		res = append(res, int(v))
		b = b[n:]
	}
	return res, nil
}

// PackedFloat32s decodes a packed repeated fixed32 float payload.
func (f Field) PackedFloat32s() ([]float32, error) {
	if len(f.Bytes)%4 != 0 {
		return nil, fmt.Errorf("%w: packed float field %d", ErrMalformed, f.Num)
	}
	res := make([]float32, 0, len(f.Bytes)/4)
	b := f.Bytes
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed32(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: packed float field %d", ErrMalformed, f.Num)
		}
		res = append(res, math.Float32frombits(v))
		b = b[n:]
	}
	return res, nil
}
