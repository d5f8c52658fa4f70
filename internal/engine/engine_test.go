package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/flow-heater/flow-heater/internal/apierrors"
	"github.com/flow-heater/flow-heater/internal/domain/conversation"
)

// fakeStore is a minimal storage.Store fake recording every audit item it
// is asked to persist, so tests can assert on ordering/content without a
// database.
type fakeStore struct {
	items []conversation.AuditItem
}

func (f *fakeStore) CreateAuditLogEntry(ctx context.Context, item conversation.AuditItem) (conversation.AuditItem, error) {
	if item.ID == "" {
		item.ID = time.Now().Format("20060102150405.000000000")
	}
	f.items = append(f.items, item)
	return item, nil
}

func testLimits() DispatchLimits {
	return DispatchLimits{
		Timeout:      5 * time.Second,
		MaxBodyBytes: 1 << 20,
		Limiter:      rate.NewLimiter(rate.Inf, 1),
	}
}

func TestEngineEchoProcessor(t *testing.T) {
	store := &fakeStore{}
	e := &Engine{store: store, jobs: make(chan job, 1)}
	go e.worker(context.Background())

	source := `
const req = get_request();
await respond_with({ status: 200, headers: {}, body: req.body });
`
	resp, err := e.Run(context.Background(), ExecRequest{
		ConversationID: "conv-1",
		Source:         source,
		WrapPrelude:    true,
		Inbound:        conversation.Request{Method: "GET", Path: "/", Body: "hello"},
		Limits:         testLimits(),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 200, resp.Status)
	assert.Equal(t, "hello", resp.Body)

	var kinds []conversation.Kind
	for _, item := range store.items {
		kinds = append(kinds, item.Kind)
	}
	assert.Equal(t, []conversation.Kind{conversation.KindRequest, conversation.KindResponse}, kinds)
}

func TestEngineDispatchProcessor(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("upstream-body"))
	}))
	defer upstream.Close()

	store := &fakeStore{}
	e := &Engine{store: store, jobs: make(chan job, 1)}
	go e.worker(context.Background())

	source := `
const upstreamResp = await dispatch_request({
  request: { method: "GET", path: "/", headers: {}, body: "" },
  url: "` + upstream.URL + `",
});
await respond_with({ status: 200, headers: {}, body: upstreamResp.body });
`
	resp, err := e.Run(context.Background(), ExecRequest{
		ConversationID: "conv-2",
		Source:         source,
		WrapPrelude:    true,
		Inbound:        conversation.Request{Method: "GET", Path: "/"},
		Limits:         testLimits(),
	})
	require.NoError(t, err)
	assert.Equal(t, "upstream-body", resp.Body)

	var kinds []conversation.Kind
	for _, item := range store.items {
		kinds = append(kinds, item.Kind)
	}
	assert.Equal(t, []conversation.Kind{
		conversation.KindRequest,
		conversation.KindRequest,
		conversation.KindResponse,
		conversation.KindResponse,
	}, kinds)
}

func TestEngineLogProcessor(t *testing.T) {
	store := &fakeStore{}
	e := &Engine{store: store, jobs: make(chan job, 1)}
	go e.worker(context.Background())

	source := `
await fh_log("hello from processor");
`
	resp, err := e.Run(context.Background(), ExecRequest{
		ConversationID: "conv-3",
		Source:         source,
		WrapPrelude:    true,
		Inbound:        conversation.Request{Method: "GET", Path: "/", Body: "echoed"},
		Limits:         testLimits(),
	})
	require.NoError(t, err)
	// no explicit respond_with and no dispatch: falls back to echoing the
	// inbound body.
	assert.Equal(t, "echoed", resp.Body)

	require.Len(t, store.items, 2)
	assert.Equal(t, conversation.KindRequest, store.items[0].Kind)
	assert.Equal(t, conversation.KindLog, store.items[1].Kind)
	assert.Equal(t, "hello from processor", *store.items[1].LogPayload)
}

func TestEngineProcessorThrowsIsProcessingError(t *testing.T) {
	store := &fakeStore{}
	e := &Engine{store: store, jobs: make(chan job, 1)}
	go e.worker(context.Background())

	source := `throw new Error("boom");`
	_, err := e.Run(context.Background(), ExecRequest{
		ConversationID: "conv-4",
		Source:         source,
		WrapPrelude:    true,
		Inbound:        conversation.Request{Method: "GET", Path: "/"},
		Limits:         testLimits(),
	})
	require.Error(t, err)
	ge, ok := apierrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apierrors.KindProcessing, ge.Kind)
}
