package comm

import "fmt"

// Gather collects one value from every rank onto the root, in rank order.
// Non-root ranks receive a nil slice. Blocks until all ranks have contributed
// or the group aborts.
func Gather[T any](c *Comm, v T) ([]T, error) {
	if err := c.put(c.g.slot[c.rank], v); err != nil {
		return nil, err
	}
	if c.rank != Root {
		return nil, nil
	}
	out := make([]T, c.g.size)
	for n := 0; n < c.g.size; n++ {
		x, err := c.take(c.g.slot[n])
		if err != nil {
			return nil, err
		}
		t, ok := x.(T)
		if !ok {
			err = fmt.Errorf("gather: rank %d contributed %T", n, x)
			c.Abort(err)
			return nil, err
		}
		out[n] = t
	}
	return out, nil
}

// Bcast distributes the root's value to every rank. The argument is ignored on
// non-root ranks.
func Bcast[T any](c *Comm, v T) (T, error) {
	var zero T
	if c.rank == Root {
		for n := 0; n < c.g.size; n++ {
			if n == Root {
				continue
			}
			if err := c.put(c.g.bcast[n], v); err != nil {
				return zero, err
			}
		}
		return v, nil
	}
	x, err := c.take(c.g.bcast[c.rank])
	if err != nil {
		return zero, err
	}
	t, ok := x.(T)
	if !ok {
		err = fmt.Errorf("bcast: root sent %T", x)
		c.Abort(err)
		return zero, err
	}
	return t, nil
}

// AllGather gives every rank the rank-ordered slice of all contributions.
func AllGather[T any](c *Comm, v T) ([]T, error) {
	vs, err := Gather(c, v)
	if err != nil {
		return nil, err
	}
	return Bcast(c, vs)
}

// Barrier blocks until every rank has entered it.
func Barrier(c *Comm) error {
	if _, err := Gather(c, struct{}{}); err != nil {
		return err
	}
	_, err := Bcast(c, struct{}{})
	return err
}
