package server

import (
	"context"
	"errors"
	"fmt"
)

// Service is the part of a Server a Client needs.
type Service[T any] interface {
	Submit(fn Func[T]) (ID, error)
	RetrieveContext(ctx context.Context, id ID) (T, error)
}

// Client remembers, in order, the ids of the tasks it submitted so their
// results can be collected in submission order. A Client is meant to be
// used by one goroutine; separate goroutines should use separate clients.
type Client[T any] struct {
	name string
	ids  []ID
}

// NewClient creates an empty client handle.
func NewClient[T any](name string) *Client[T] {
	return &Client[T]{name: name}
}

// Name returns the client's name.
func (c *Client[T]) Name() string {
	return c.name
}

// Submit submits fn to svc and records the returned id.
func (c *Client[T]) Submit(svc Service[T], fn Func[T]) (ID, error) {
	id, err := svc.Submit(fn)
	if err != nil {
		return 0, fmt.Errorf("client %s: %w", c.name, err)
	}
	c.ids = append(c.ids, id)
	return id, nil
}

// SubmitValue submits a computation that cannot fail.
func (c *Client[T]) SubmitValue(svc Service[T], fn func() T) (ID, error) {
	if fn == nil {
		return c.Submit(svc, nil)
	}
	return c.Submit(svc, Value(fn))
}

// IDs returns a copy of the recorded ids in submission order.
func (c *Client[T]) IDs() []ID {
	out := make([]ID, len(c.ids))
	copy(out, c.ids)
	return out
}

// Len returns the number of recorded ids.
func (c *Client[T]) Len() int {
	return len(c.ids)
}

// CollectAll retrieves every recorded result in submission order.
// See CollectAllContext.
func (c *Client[T]) CollectAll(svc Service[T]) ([]T, error) {
	return c.CollectAllContext(context.Background(), svc)
}

// CollectAllContext retrieves every recorded result in submission order,
// blocking on each one in turn. A failed task leaves the zero value in its
// position; all such errors are joined into the returned error. If ctx ends,
// collection stops and the context error is returned with no results.
func (c *Client[T]) CollectAllContext(ctx context.Context, svc Service[T]) ([]T, error) {
	values := make([]T, len(c.ids))
	var errs []error

	for i, id := range c.ids {
		v, err := svc.RetrieveContext(ctx, id)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("client %s: collecting task %d: %w", c.name, id, ctxErr)
			}
			errs = append(errs, err)
			continue
		}
		values[i] = v
	}

	if len(errs) > 0 {
		return values, fmt.Errorf("client %s: %d of %d tasks failed: %w", c.name, len(errs), len(c.ids), errors.Join(errs...))
	}
	return values, nil
}
