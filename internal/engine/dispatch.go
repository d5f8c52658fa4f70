package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/flow-heater/flow-heater/internal/apierrors"
	"github.com/flow-heater/flow-heater/internal/domain/conversation"
)

// DispatchLimits bounds outbound HTTP calls made from dispatch_request,
// resolving spec.md §9 Open Question (c): per-invocation request shaping
// is configurable rather than hardcoded.
type DispatchLimits struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	Limiter      *rate.Limiter
}

// DefaultDispatchLimits matches the teacher's conservative defaults for
// outbound calls made on a caller's behalf.
func DefaultDispatchLimits() DispatchLimits {
	return DispatchLimits{
		Timeout:      15 * time.Second,
		MaxBodyBytes: 4 << 20,
		Limiter:      rate.NewLimiter(rate.Limit(20), 40),
	}
}

// dispatch performs the outbound HTTP call fh-v8's op_dispatch_request made
// via reqwest (Url::parse(&request_spec.url)), here via net/http, honoring
// the rate limiter and body cap. url is the absolute URL named by the
// dispatch_request envelope's "url" field, not req.Path.
func dispatch(ctx context.Context, limits DispatchLimits, url string, req conversation.Request) (conversation.Response, error) {
	if limits.Limiter != nil {
		if err := limits.Limiter.Wait(ctx); err != nil {
			return conversation.Response{}, apierrors.OutboundProcessing("rate limit wait canceled", err)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, limits.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, req.Method, url, strings.NewReader(req.Body))
	if err != nil {
		return conversation.Response{}, apierrors.OutboundProcessing("build outbound request", err)
	}
	for name, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return conversation.Response{}, apierrors.OutboundProcessing(fmt.Sprintf("dispatch to %s failed", url), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limits.MaxBodyBytes))
	if err != nil {
		return conversation.Response{}, apierrors.OutboundProcessing("read outbound response body", err)
	}

	out := conversation.Response{
		Status:  uint16(resp.StatusCode),
		Version: resp.Proto,
		Headers: map[string][]string(resp.Header),
		Body:    string(body),
	}
	return out, nil
}
