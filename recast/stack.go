package recast

// Stack is a growable LIFO over a slice. The zero value is ready to use.
type Stack[T any] struct {
	data []T
}

func NewStack[T any](capacity int) *Stack[T] {
	return &Stack[T]{data: make([]T, 0, capacity)}
}

func (s *Stack[T]) Push(value T) {
	s.data = append(s.data, value)
}

func (s *Stack[T]) Pop() T {
	e := s.data[len(s.data)-1]
	s.data = s.data[:len(s.data)-1]
	return e
}

func (s *Stack[T]) Len() int {
	return len(s.data)
}

func (s *Stack[T]) Empty() bool {
	return len(s.data) == 0
}

// Clear empties the stack, keeping its storage.
func (s *Stack[T]) Clear() {
	s.data = s.data[:0]
}

func (s *Stack[T]) Index(index int) T {
	return s.data[index]
}

func (s *Stack[T]) At(index int) *T {
	return &s.data[index]
}

func (s *Stack[T]) Data() []T {
	return s.data
}
