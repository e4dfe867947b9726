package runner

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

var ErrStopped = errors.New("event loop stopped")

const defaultQueueSize = 1024

// Loop: единственный поток, в котором живут стор и состояние навигации.
// Таймеры, стрим и HTTP-ручки только кладут задачи в очередь; каждая задача
// выполняется целиком, задачи между собой не перемешиваются.
type Loop struct {
	tasks chan func()
	done  chan struct{}

	stopOnce sync.Once
}

func NewLoop() *Loop {
	return &Loop{
		tasks: make(chan func(), defaultQueueSize),
		done:  make(chan struct{}),
	}
}

// Run крутит очередь до отмены ctx. После выхода Post/Call возвращают отказ.
func (l *Loop) Run(ctx context.Context) {
	defer l.stopOnce.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post ставит задачу в очередь и не ждёт её выполнения.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call выполняет fn в потоке лупа и ждёт завершения.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		// задача могла успеть выполниться прямо перед остановкой
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "event loop call")
	}
}

// Done закрывается, когда Run вернулся.
func (l *Loop) Done() <-chan struct{} { return l.done }
