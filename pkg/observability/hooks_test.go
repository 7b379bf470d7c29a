package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Rank hooks
	r := NoopRankHooks{}
	r.OnRankStart(ctx, 100, 250)
	r.OnRankComplete(ctx, RankEvent{Nodes: 100, Edges: 250, Iterations: 12, Duration: time.Second})

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "rank")
	c.OnCacheMiss(ctx, "rank")
	c.OnCacheSet(ctx, "rank", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/rank")
	h.OnResponse(ctx, "POST", "/v1/rank", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Rank().(NoopRankHooks); !ok {
		t.Error("Rank() should return NoopRankHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customRank := &testRankHooks{}
	SetRankHooks(customRank)
	if Rank() != customRank {
		t.Error("SetRankHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Rank().(NoopRankHooks); !ok {
		t.Error("Reset() should restore NoopRankHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testRankHooks{}
	SetRankHooks(custom)

	// Setting nil should be ignored
	SetRankHooks(nil)

	if Rank() != custom {
		t.Error("SetRankHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testRankHooks struct{ NoopRankHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
