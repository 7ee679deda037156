package queue

import "sync"

// Executor decides how accepted tasks run. Production uses KeyedExecutor;
// tests use Immediate to make enqueue-and-return paths synchronous.
type Executor interface {
	// Submit schedules run. Submissions sharing a key must start in
	// submission order; distinct keys may run in parallel.
	Submit(key string, run func())
	// Wait blocks until every submitted run has finished.
	Wait()
}

// KeyedExecutor serializes work per key with a lazily started drain goroutine
// per key, so one stuck key never blocks the others. Submission never blocks:
// pending work accumulates in an in-memory FIFO.
type KeyedExecutor struct {
	mu   sync.Mutex
	keys map[string]*keyState
	wg   sync.WaitGroup
}

type keyState struct {
	pending  []func()
	draining bool
}

// NewKeyedExecutor creates the production executor.
func NewKeyedExecutor() *KeyedExecutor {
	return &KeyedExecutor{keys: make(map[string]*keyState)}
}

func (e *KeyedExecutor) Submit(key string, run func()) {
	e.mu.Lock()
	state, ok := e.keys[key]
	if !ok {
		state = &keyState{}
		e.keys[key] = state
	}

	state.pending = append(state.pending, run)

	if state.draining {
		e.mu.Unlock()
		return
	}

	state.draining = true
	e.wg.Add(1)
	e.mu.Unlock()

	go e.drain(key, state)
}

// drain pops and runs pending work for one key in FIFO order until none is
// left, then parks the key again.
func (e *KeyedExecutor) drain(key string, state *keyState) {
	defer e.wg.Done()

	for {
		e.mu.Lock()
		if len(state.pending) == 0 {
			state.draining = false
			e.mu.Unlock()
			return
		}

		next := state.pending[0]
		state.pending = state.pending[1:]
		e.mu.Unlock()

		next()
	}
}

func (e *KeyedExecutor) Wait() {
	e.wg.Wait()
}

// Immediate runs every submission synchronously on the caller's goroutine.
type Immediate struct{}

func (Immediate) Submit(_ string, run func()) { run() }

func (Immediate) Wait() {}
