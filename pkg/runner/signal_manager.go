package runner

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalManager turns the first SIGINT or SIGTERM into context cancellation,
// so a blocked read gives up and the session can be saved. It remembers which
// signal arrived.
type SignalManager struct {
	ctx    context.Context
	cancel context.CancelFunc

	ch       chan os.Signal
	done     chan struct{}
	stopOnce sync.Once

	mu  sync.Mutex
	got os.Signal
}

// NewSignalManager starts listening immediately. Call Stop to release it.
func NewSignalManager() *SignalManager {
	ctx, cancel := context.WithCancel(context.Background())
	sm := &SignalManager{
		ctx:    ctx,
		cancel: cancel,
		ch:     make(chan os.Signal, 1),
		done:   make(chan struct{}),
	}
	signal.Notify(sm.ch, os.Interrupt, syscall.SIGTERM)
	go sm.wait()
	return sm
}

func (sm *SignalManager) wait() {
	select {
	case sig := <-sm.ch:
		sm.mu.Lock()
		sm.got = sig
		sm.mu.Unlock()
		sm.cancel()
	case <-sm.done:
	}
}

// Context is cancelled on the first signal or on Stop.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Signal returns the signal that cancelled the context, or nil.
func (sm *SignalManager) Signal() os.Signal {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.got
}

// Stop stops listening and cancels the context. Safe to call twice.
func (sm *SignalManager) Stop() {
	sm.stopOnce.Do(func() {
		signal.Stop(sm.ch)
		close(sm.done)
		sm.cancel()
	})
}
