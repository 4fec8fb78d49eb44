package render

// Scheduler runs render workers.
type Scheduler interface {
	Go(fn func())
}

// GoScheduler runs each worker on its own goroutine.
type GoScheduler struct{}

// Go implements Scheduler.
func (GoScheduler) Go(fn func()) { go fn() }

// InlineScheduler runs the worker on the calling goroutine, so Start returns
// only after the render has ended. Useful in tests and one-shot renders.
// The caller must drain Events between starts.
type InlineScheduler struct{}

// Go implements Scheduler.
func (InlineScheduler) Go(fn func()) { fn() }
