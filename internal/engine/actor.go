// Package engine runs processor source inside a goja JavaScript runtime,
// bridging it to host I/O and the audit trail via the operation bridge in
// ops.go. Grounded on the teacher's system/tee and internal/services/
// functions/tee_executor.go use of goja, and on fh-v8/src/runtime.rs for
// the RuntimeState semantics being reproduced.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/flow-heater/flow-heater/internal/apierrors"
	"github.com/flow-heater/flow-heater/internal/domain/conversation"
	"github.com/flow-heater/flow-heater/internal/metrics"
	"github.com/flow-heater/flow-heater/internal/storage"
	"github.com/flow-heater/flow-heater/prelude"
)

// ExecRequest is one request to run a processor's source against an
// inbound HTTP request.
type ExecRequest struct {
	ProcessorID    string
	ConversationID string
	Source         string
	WrapPrelude    bool
	Inbound        conversation.Request
	Limits         DispatchLimits
}

// Engine runs ExecRequests one at a time per goroutine slot behind a
// bounded channel, the same shape as the Storage actor.
type Engine struct {
	store recorder
	jobs  chan job
}

type job struct {
	req   ExecRequest
	reply chan execResult
}

type execResult struct {
	response conversation.Response
	err      error
}

// ChannelCapacity matches the Storage actor's queue bound.
const ChannelCapacity = 4096

// Concurrency is the number of invocation workers run in parallel; each
// worker owns one goja.Runtime at a time (goja runtimes are not
// goroutine-safe, so they are never shared across workers).
const Concurrency = 8

// New starts Concurrency worker goroutines draining the job queue until
// ctx is canceled.
func New(ctx context.Context, store storage.Store) *Engine {
	e := &Engine{store: store, jobs: make(chan job, ChannelCapacity)}
	for i := 0; i < Concurrency; i++ {
		go e.worker(ctx)
	}
	return e
}

func (e *Engine) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-e.jobs:
			resp, err := e.execute(j.req)
			j.reply <- execResult{resp, err}
		}
	}
}

// Run submits req and blocks for its result or ctx cancellation.
func (e *Engine) Run(ctx context.Context, req ExecRequest) (conversation.Response, error) {
	reply := make(chan execResult, 1)
	select {
	case e.jobs <- job{req: req, reply: reply}:
	case <-ctx.Done():
		return conversation.Response{}, apierrors.Locking("engine did not accept job before context was canceled")
	}
	select {
	case res := <-reply:
		return res.response, res.err
	case <-ctx.Done():
		return conversation.Response{}, apierrors.Locking("engine did not reply before context was canceled")
	}
}

// execute is the synchronous invocation body: one fresh goja.Runtime per
// call, interruptible via a goroutine racing a per-invocation timeout
// context (req.Limits.Timeout, or 30s when unset) against rt.Interrupt
// the way tee_executor.go races ctx.Done() against rt.Interrupt.
func (e *Engine) execute(req ExecRequest) (resp conversation.Response, err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.RecordInvocation(status, time.Since(start).Seconds())
	}()

	ctx := context.Background()

	rs, err := newRuntimeState(ctx, e.store, req.ConversationID, req.Inbound, req.Limits)
	if err != nil {
		return conversation.Response{}, err
	}

	rt := goja.New()
	if err := registerOps(rt, rs); err != nil {
		return conversation.Response{}, apierrors.Processing("register operation bridge", err)
	}

	var logs []string
	if err := attachConsole(rt, &logs); err != nil {
		return conversation.Response{}, apierrors.Processing("attach console", err)
	}

	source := req.Source
	if req.WrapPrelude {
		source = prelude.Wrap(source)
	}

	timeout := req.Limits.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-runCtx.Done():
			rt.Interrupt(runCtx.Err())
		case <-stop:
		}
	}()

	v, err := rt.RunString(source)
	if err != nil {
		return conversation.Response{}, classifyRuntimeError(err)
	}
	if err := rejectionError(v); err != nil {
		return conversation.Response{}, err
	}

	return rs.finalResponseBody(), nil
}

// rejectionError inspects the top-level value rt.RunString returned: the
// prelude wraps user code in an async IIFE, so a user-code throw surfaces
// as a rejected Promise rather than a synchronous error. Grounded on
// tee_executor.go's resolveValue, which performs the same inspection.
func rejectionError(v goja.Value) error {
	promise, ok := v.Export().(*goja.Promise)
	if !ok {
		return nil
	}
	switch promise.State() {
	case goja.PromiseStateRejected:
		reason := promise.Result()
		return apierrors.Processing(fmt.Sprintf("processor rejected: %v", reason), fmt.Errorf("%v", reason))
	default:
		return nil
	}
}

func classifyRuntimeError(err error) error {
	switch e := err.(type) {
	case *goja.InterruptedError:
		return apierrors.Processing("processor execution interrupted", e)
	case *goja.Exception:
		return apierrors.Processing(fmt.Sprintf("processor threw: %v", e.Value()), e)
	default:
		return apierrors.Processing("processor execution failed", err)
	}
}
