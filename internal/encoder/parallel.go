package encoder

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mkarlsen/qrvid/internal/worker"
)

type indexed[T any] struct {
	idx int
	val T
}

// orderedStream is the pull side of an order-preserving parallel map:
// workers complete tasks in any order, the collector re-emits them in input
// index order. The producer is throttled by a permit semaphore, so at most
// permits tasks are in flight between dispatch and emission.
type orderedStream[R any] struct {
	out chan R

	mu  sync.Mutex
	err error
}

func (s *orderedStream[R]) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *orderedStream[R]) getErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Next returns the mapped results in input order, then io.EOF. A task or
// source failure surfaces here after the last in-order result.
func (s *orderedStream[R]) Next() (R, error) {
	v, ok := <-s.out
	if !ok {
		var zero R
		if err := s.getErr(); err != nil {
			return zero, err
		}
		return zero, io.EOF
	}
	return v, nil
}

// mapOrdered applies fn concurrently to the items pulled from src and
// returns a stream of results in input order. src signals its end with
// io.EOF. The first failure cancels the group; the stream then yields the
// contiguous prefix of completed results followed by the error.
//
// Callers must either drain the stream or cancel ctx, otherwise the
// collector goroutine blocks forever on the unconsumed output.
func mapOrdered[T, R any](
	ctx context.Context,
	src func() (T, error),
	workers, permits int,
	fn func(idx int, item T) (R, error),
) *orderedStream[R] {
	s := &orderedStream[R]{out: make(chan R)}

	sem := worker.NewSemaphore(permits)
	taskCh := make(chan indexed[T])
	resCh := make(chan indexed[R])

	g, gctx := errgroup.WithContext(ctx)

	// Dispatcher: pull items, acquire a permit, hand the task to a worker.
	g.Go(func() error {
		defer close(taskCh)
		for i := 0; ; i++ {
			item, err := src()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}

			select {
			case <-sem.Chan():
			case <-gctx.Done():
				return gctx.Err()
			}

			select {
			case taskCh <- indexed[T]{idx: i, val: item}:
			case <-gctx.Done():
				sem.Release()
				return gctx.Err()
			}
		}
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for task := range taskCh {
				val, err := fn(task.idx, task.val)
				if err != nil {
					return err
				}
				select {
				case resCh <- indexed[R]{idx: task.idx, val: val}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	// The waiter publishes the group error before closing resCh, so the
	// collector (and through it, Next) observes the error after the close.
	go func() {
		s.setErr(g.Wait())
		close(resCh)
	}()

	// Collector: reorder by input index, emit the contiguous prefix.
	go func() {
		defer close(s.out)
		pending := make(map[int]R)
		next := 0

		emit := func(v R) bool {
			select {
			case s.out <- v:
				sem.Release()
				return true
			case <-ctx.Done():
				s.setErr(ctx.Err())
				return false
			}
		}

		for r := range resCh {
			pending[r.idx] = r.val
			for {
				v, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if !emit(v) {
					return
				}
				next++
			}
		}

		// resCh closed: flush whatever is still contiguous.
		for {
			v, ok := pending[next]
			if !ok {
				return
			}
			delete(pending, next)
			if !emit(v) {
				return
			}
			next++
		}
	}()

	return s
}
