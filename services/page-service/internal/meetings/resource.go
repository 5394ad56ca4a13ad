package meetings

import (
	"context"
	"sync"
)

type Status int

const (
	StatusLoading Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "loading"
	}
}

// Result is the tri-state outcome of a fetch. A success with no duration
// options is a valid, non-error result.
type Result struct {
	Status     Status
	Definition Definition
	Err        error
}

func (r Result) Loading() bool { return r.Status == StatusLoading }

// Resource is one in-flight or resolved fetch for a slug.
type Resource struct {
	slug   string
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result Result
}

// Start launches the fetch in the background. Cancelling parent, or calling
// Cancel, suppresses the result: the resource stays loading forever and
// Done is closed so nobody waits on it.
func Start(parent context.Context, f Fetcher, slug string) *Resource {
	ctx, cancel := context.WithCancel(parent)
	r := &Resource{
		slug:   slug,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go r.run(ctx, f)
	return r
}

// Resolved wraps an already known result, mainly for tests and warm caches.
func Resolved(slug string, result Result) *Resource {
	r := &Resource{
		slug:   slug,
		cancel: func() {},
		done:   make(chan struct{}),
		result: result,
	}
	close(r.done)
	return r
}

func (r *Resource) run(ctx context.Context, f Fetcher) {
	defer close(r.done)
	def, err := f.Fetch(ctx, r.slug)

	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		r.result = Result{Status: StatusError, Err: err}
		return
	}
	r.result = Result{Status: StatusSuccess, Definition: def}
}

func (r *Resource) Slug() string { return r.slug }

func (r *Resource) Result() Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

func (r *Resource) Done() <-chan struct{} { return r.done }

// Wait blocks until the fetch settles or ctx ends, then returns the current result.
func (r *Resource) Wait(ctx context.Context) Result {
	select {
	case <-r.done:
	case <-ctx.Done():
	}
	return r.Result()
}

func (r *Resource) Cancel() { r.cancel() }
