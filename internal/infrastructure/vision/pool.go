package vision

import "context"

// pool раздаёт ограниченный набор ресурсов по одному на вызов.
// gocv.Net не допускает параллельного Forward, поэтому каждая сеть
// в любой момент принадлежит ровно одному запросу.
type pool[T any] struct {
	items chan T
}

func newPool[T any](items []T) *pool[T] {
	p := &pool[T]{items: make(chan T, len(items))}
	for _, it := range items {
		p.items <- it
	}
	return p
}

// acquire ждёт свободный ресурс или отмену контекста.
func (p *pool[T]) acquire(ctx context.Context) (T, error) {
	select {
	case it := <-p.items:
		return it, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (p *pool[T]) release(it T) {
	p.items <- it
}

func (p *pool[T]) size() int {
	return cap(p.items)
}

// drain забирает все ресурсы, дожидаясь возврата занятых.
func (p *pool[T]) drain() []T {
	out := make([]T, 0, cap(p.items))
	for len(out) < cap(p.items) {
		out = append(out, <-p.items)
	}
	return out
}
