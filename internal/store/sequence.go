package store

// Sequence: упорядоченная последовательность "новые сначала" с жёстким лимитом.
// len <= capacity держится после любой операции.
type Sequence[T any] struct {
	items    []T
	capacity int
}

func NewSequence[T any](capacity int) *Sequence[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Sequence[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Prepend вставляет в голову, при переполнении выталкивает хвост.
func (s *Sequence[T]) Prepend(v T) {
	if len(s.items) < s.capacity {
		s.items = append(s.items, v)
	}
	copy(s.items[1:], s.items[:len(s.items)-1])
	s.items[0] = v
}

// Replace полностью выбрасывает прежнее содержимое, порядок входа сохраняется.
// Лишнее сверх лимита отрезается с хвоста.
func (s *Sequence[T]) Replace(list []T) {
	n := min(len(list), s.capacity)
	s.items = s.items[:0]
	s.items = append(s.items, list[:n]...)
}

func (s *Sequence[T]) Len() int      { return len(s.items) }
func (s *Sequence[T]) Capacity() int { return s.capacity }

// Items: копия, наружу внутренний слайс не отдаём.
func (s *Sequence[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Head: первые n элементов (копия).
func (s *Sequence[T]) Head(n int) []T {
	n = max(0, min(n, len(s.items)))
	out := make([]T, n)
	copy(out, s.items[:n])
	return out
}
