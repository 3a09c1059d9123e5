package common

type IT interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

func GetVert3[T any](verts []T, index int) []T {
	return verts[index*3 : index*3+3]
}

func GetVert4[T any](verts []T, index int) []T {
	return verts[index*4 : index*4+4]
}
