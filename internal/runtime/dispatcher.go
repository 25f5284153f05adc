package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/neoclaw-ai/toolloop/internal/logging"
)

// ErrBusy is returned by Submit while another message is running.
var ErrBusy = errors.New("a request is already running")

// Dispatcher runs at most one message at a time against a Handler. Input that arrives
// while a message is running is rejected rather than queued.
type Dispatcher struct {
	handler Handler

	done chan struct{}
	runs sync.WaitGroup

	stateMu    sync.Mutex
	started    bool
	closed     bool
	rootCtx    context.Context
	currentRun context.CancelFunc
}

// NewDispatcher creates a dispatcher for handler.
func NewDispatcher(handler Handler) *Dispatcher {
	return &Dispatcher{
		handler: handler,
		done:    make(chan struct{}),
	}
}

// Start arms the dispatcher. Canceling ctx stops the running message and closes the dispatcher.
func (d *Dispatcher) Start(ctx context.Context) error {
	if d == nil {
		return errors.New("dispatcher is required")
	}
	if d.handler == nil {
		return errors.New("handler is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.stateMu.Lock()
	if d.started {
		d.stateMu.Unlock()
		return errors.New("dispatcher already started")
	}
	d.started = true
	d.rootCtx = ctx
	d.stateMu.Unlock()

	go d.watch(ctx)
	return nil
}

// Submit starts msg in the background and returns immediately. It returns ErrBusy while
// another message is running.
func (d *Dispatcher) Submit(msg *Message, writer ResponseWriter) error {
	if msg == nil {
		return errors.New("message is required")
	}
	if writer == nil {
		return errors.New("response writer is required")
	}

	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	switch {
	case !d.started:
		return errors.New("dispatcher is not started")
	case d.closed:
		return d.rootCtx.Err()
	case d.currentRun != nil:
		return ErrBusy
	}

	runCtx, cancel := context.WithCancel(d.rootCtx)
	d.currentRun = cancel
	d.runs.Add(1)
	go d.run(runCtx, cancel, msg, writer)
	return nil
}

// Stop cancels the running message and reports whether one was running.
func (d *Dispatcher) Stop() bool {
	d.stateMu.Lock()
	cancel := d.currentRun
	d.stateMu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Busy reports whether a message is running.
func (d *Dispatcher) Busy() bool {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return d.currentRun != nil
}

// WaitUntilIdle blocks until no message is running.
func (d *Dispatcher) WaitUntilIdle(ctx context.Context) error {
	if d == nil {
		return errors.New("dispatcher is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !d.Busy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Wait blocks until the start context is canceled and the last message has returned.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	<-d.done
}

func (d *Dispatcher) watch(ctx context.Context) {
	defer close(d.done)
	<-ctx.Done()

	d.stateMu.Lock()
	d.closed = true
	d.stateMu.Unlock()

	d.runs.Wait()
}

func (d *Dispatcher) run(ctx context.Context, cancel context.CancelFunc, msg *Message, writer ResponseWriter) {
	defer d.runs.Done()
	err := d.handler.HandleMessage(ctx, writer, msg)

	d.stateMu.Lock()
	d.currentRun = nil
	d.stateMu.Unlock()
	cancel()

	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	logging.Logger().Error("message handling failed", "err", err)
	if writeErr := writer.WriteMessage(context.Background(), fmt.Sprintf("error: %v", err)); writeErr != nil {
		logging.Logger().Warn("failed to write handler error message", "err", writeErr)
	}
}
