package engine

import (
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"

	"github.com/flow-heater/flow-heater/internal/domain/conversation"
)

// registerOps installs the four host-callable operations spec.md §5 names
// onto the `host` global object. getRequest returns the inbound request
// value directly; dispatchRequest, fhLog and respondWith each return a
// goja.Promise, the same shape sdk_adapter.go's "createAsyncX" functions
// use, even though — absent an event loop — the promise is always settled
// before the call returns; awaiting it in user code still works because
// goja drains already-resolved promise reactions synchronously.
func registerOps(rt *goja.Runtime, rs *runtimeState) error {
	host := rt.NewObject()

	if err := host.Set("getRequest", func(call goja.FunctionCall) goja.Value {
		return rt.ToValue(mustExport(rt, rs.inboundRequest))
	}); err != nil {
		return err
	}

	if err := host.Set("dispatchRequest", func(call goja.FunctionCall) goja.Value {
		return settledPromise(rt, func() (any, error) {
			spec, err := decodeRequestSpec(rt, call.Argument(0))
			if err != nil {
				return nil, err
			}
			auditID, inc, err := rs.addOutboundRequest(spec.Request)
			if err != nil {
				return nil, err
			}
			resp, err := dispatch(rs.ctx, rs.limits, spec.URL, spec.Request)
			if err != nil {
				return nil, err
			}
			if err := rs.addResponse(auditID, inc, resp); err != nil {
				return nil, err
			}
			return resp, nil
		})
	}); err != nil {
		return err
	}

	if err := host.Set("fhLog", func(call goja.FunctionCall) goja.Value {
		return settledPromise(rt, func() (any, error) {
			msg := call.Argument(0).String()
			if err := rs.addLog(msg); err != nil {
				return nil, err
			}
			return nil, nil
		})
	}); err != nil {
		return err
	}

	if err := host.Set("respondWith", func(call goja.FunctionCall) goja.Value {
		return settledPromise(rt, func() (any, error) {
			resp, err := decodeResponse(rt, call.Argument(0))
			if err != nil {
				return nil, err
			}
			rs.setFinalResponse(resp)
			// respond_with answers the inbound request directly (inc 0);
			// it does not dispatch an outbound request of its own.
			if err := rs.addResponse(rs.inboundAuditID, 0, resp); err != nil {
				return nil, err
			}
			return nil, nil
		})
	}); err != nil {
		return err
	}

	return rt.Set("host", host)
}

// settledPromise runs fn synchronously and returns an already-settled
// goja.Promise wrapping its outcome, mirroring op_dispatch_request's
// blocking reqwest call in fh-v8.
func settledPromise(rt *goja.Runtime, fn func() (any, error)) goja.Value {
	promise, resolve, reject := rt.NewPromise()
	v, err := fn()
	if err != nil {
		_ = reject(err)
	} else {
		_ = resolve(v)
	}
	return rt.ToValue(promise)
}

func mustExport(rt *goja.Runtime, v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("export value: %w", err))
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Errorf("export value: %w", err))
	}
	return out
}

// requestSpec mirrors the { request: Request, url: absolute URL string }
// envelope spec.md §4.3 documents for dispatch_request, grounded on
// fh-v8/runtime.rs's RequestSpec{request, url} struct.
type requestSpec struct {
	Request conversation.Request `json:"request"`
	URL     string               `json:"url"`
}

func decodeRequestSpec(rt *goja.Runtime, v goja.Value) (requestSpec, error) {
	var spec requestSpec
	data, err := json.Marshal(v.Export())
	if err != nil {
		return spec, fmt.Errorf("encode dispatch_request argument: %w", err)
	}
	if err := json.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("decode dispatch_request argument: %w", err)
	}
	return spec, nil
}

func decodeResponse(rt *goja.Runtime, v goja.Value) (conversation.Response, error) {
	var resp conversation.Response
	data, err := json.Marshal(v.Export())
	if err != nil {
		return resp, fmt.Errorf("encode respond_with argument: %w", err)
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return resp, fmt.Errorf("decode respond_with argument: %w", err)
	}
	return resp, nil
}
