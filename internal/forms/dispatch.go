package forms

import (
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/goliatone/go-cms-locales/pkg/interfaces"
)

// Dispatcher runs post-submission work such as PDF generation and email.
type Dispatcher interface {
	Dispatch(task func()) error
	Close()
}

type inlineDispatcher struct{}

// InlineDispatcher runs tasks on the calling goroutine.
func InlineDispatcher() Dispatcher { return inlineDispatcher{} }

func (inlineDispatcher) Dispatch(task func()) error {
	task()
	return nil
}

func (inlineDispatcher) Close() {}

// PoolDispatcher runs tasks on a bounded ants pool.
type PoolDispatcher struct {
	pool *ants.Pool
}

// NewPoolDispatcher starts a pool of size workers. Task panics are logged
// and do not crash the process.
func NewPoolDispatcher(size int, logger interfaces.Logger) (*PoolDispatcher, error) {
	if size <= 0 {
		size = 1
	}
	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(recovered any) {
		if logger != nil {
			logger.Error("forms.dispatch.panic", "panic", fmt.Sprint(recovered))
		}
	}))
	if err != nil {
		return nil, fmt.Errorf("forms: start worker pool: %w", err)
	}
	return &PoolDispatcher{pool: pool}, nil
}

func (d *PoolDispatcher) Dispatch(task func()) error {
	return d.pool.Submit(task)
}

const closeTimeout = 10 * time.Second

// Close waits up to closeTimeout for running tasks before releasing the workers.
func (d *PoolDispatcher) Close() {
	_ = d.pool.ReleaseTimeout(closeTimeout)
}
