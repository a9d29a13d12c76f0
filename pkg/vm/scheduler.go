package vm

import "sync"

// Executor is the cooperative scheduler §5 and §9 describe: single
// logical thread at a time, suspension expressed as a pair of
// continuations rather than a blocking call. It's grounded on the
// teacher pack's CVM.RunBootstrapThread / VM.NewThread / VM_WG pattern
// (cvm/vm.go): the bootstrap step runs inline on the calling goroutine,
// every logical thread it spawns gets its own goroutine, and a
// sync.WaitGroup lets the caller block until every spawned thread has
// actually finished before reporting success or failure upward.
type Executor struct {
	wg sync.WaitGroup
}

// NewExecutor returns an idle Executor.
func NewExecutor() *Executor { return &Executor{} }

// RunUntilFinished implements run_until_finished(work, ...) (§6): it
// runs work synchronously on the calling goroutine, then blocks until
// every logical thread work may have spawned via Spawn has completed.
// work itself decides whether the scope it represents succeeded or
// failed, typically by closing over a result variable or by calling one
// of two continuations passed to it.
func (e *Executor) RunUntilFinished(work func()) {
	work()
	e.wg.Wait()
}

// Spawn starts a new logical thread running body on its own goroutine,
// tracked by the executor's WaitGroup so that a RunUntilFinished scope
// doesn't return while threads it started are still live.
func (e *Executor) Spawn(body func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		body()
	}()
}

// AsyncOp implements async_op(resumeCb, exceptCb) (§6): fn runs on its
// own tracked goroutine and delivers its outcome via exactly one of
// onResume or onFail, exactly once, matching the (onResume, onException)
// convention §4/§5 require of every suspension point.
func (e *Executor) AsyncOp(fn func() (interface{}, error), onResume func(interface{}), onFail func(error)) {
	e.Spawn(func() {
		v, err := fn()
		if err != nil {
			onFail(err)
			return
		}
		onResume(v)
	})
}
