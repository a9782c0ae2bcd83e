package comm

import (
	"errors"
	"fmt"
	"sync"
)

// Root is the rank that owns all-to-one collective results.
const Root = 0

// ErrAborted is returned from every collective once any rank has poisoned the
// group. Collectives otherwise block until all ranks join, so an erroring rank
// must call Abort rather than simply return, or its peers hang.
var ErrAborted = errors.New("worker group aborted")

// Group is the shared state of a fixed-size set of cooperating workers. All
// ranks execute the same sequence of collective calls in lock-step; the
// per-rank channels have capacity one, so consecutive collectives on the same
// channel pair stay ordered without extra synchronization.
type Group struct {
	size  int
	slot  []chan interface{} // rank -> root traffic, indexed by sender rank
	bcast []chan interface{} // root -> rank traffic, indexed by receiver rank

	abort     chan struct{}
	abortOnce sync.Once
	cause     error
}

func NewGroup(size int) (g *Group) {
	if size < 1 {
		panic(fmt.Errorf("group size must be >= 1, got %d", size))
	}
	g = &Group{
		size:  size,
		slot:  make([]chan interface{}, size),
		bcast: make([]chan interface{}, size),
		abort: make(chan struct{}),
	}
	for n := 0; n < size; n++ {
		g.slot[n] = make(chan interface{}, 1)
		g.bcast[n] = make(chan interface{}, 1)
	}
	return
}

// Comm returns rank's handle on the group. Each rank must use its own handle
// from its own goroutine only.
func (g *Group) Comm(rank int) *Comm {
	if rank < 0 || rank >= g.size {
		panic(fmt.Errorf("rank %d out of range for group of size %d", rank, g.size))
	}
	return &Comm{g: g, rank: rank}
}

// Comm is one worker's view of the group.
type Comm struct {
	g    *Group
	rank int
}

func (c *Comm) Rank() int { return c.rank }
func (c *Comm) Size() int { return c.g.size }

// Abort poisons the group with the first cause given. Safe to call from any
// rank; subsequent calls are no-ops.
func (c *Comm) Abort(err error) {
	c.g.abortOnce.Do(func() {
		c.g.cause = err
		close(c.g.abort)
	})
}

// Err reports whether the group has been aborted.
func (c *Comm) Err() error {
	select {
	case <-c.g.abort:
		return c.abortErr()
	default:
		return nil
	}
}

func (c *Comm) abortErr() error {
	return fmt.Errorf("%w: %v", ErrAborted, c.g.cause)
}

func (c *Comm) put(ch chan interface{}, v interface{}) error {
	select {
	case ch <- v:
		return nil
	case <-c.g.abort:
		return c.abortErr()
	}
}

func (c *Comm) take(ch chan interface{}) (interface{}, error) {
	select {
	case v := <-ch:
		return v, nil
	case <-c.g.abort:
		return nil, c.abortErr()
	}
}

// Spawn runs f once per rank, each in its own goroutine, and waits for all to
// finish. A rank returning an error aborts the group so no sibling blocks
// forever; the combined error is returned.
func Spawn(size int, f func(c *Comm) error) error {
	g := NewGroup(size)
	var wg sync.WaitGroup
	errs := make([]error, size)
	for n := 0; n < size; n++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			c := g.Comm(rank)
			if err := f(c); err != nil {
				errs[rank] = fmt.Errorf("rank %d: %w", rank, err)
				c.Abort(err)
			}
		}(n)
	}
	wg.Wait()
	return errors.Join(errs...)
}
