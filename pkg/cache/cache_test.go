package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/layerank/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	if _, hit, err := c.Get(ctx, "rank:missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "rank:a", []byte("ranks"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, hit, err := c.Get(ctx, "rank:a")
	if err != nil || !hit || string(data) != "ranks" {
		t.Errorf("Get() = %q, %v, %v; want \"ranks\", true, nil", data, hit, err)
	}

	if err := c.Delete(ctx, "rank:a"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, hit, _ := c.Get(ctx, "rank:a"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "rank:a"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned as hit")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(corrupt) = hit %v, err %v; want miss", hit, err)
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after Clear", len(entries))
	}
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/tmp/xdg/layerank" {
		t.Errorf("DefaultDir() = %q, want /tmp/xdg/layerank", dir)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, Options{Backend: BackendNone})
	if err != nil {
		t.Fatalf("Open(none) error = %v", err)
	}
	if _, ok := c.(*NullCache); !ok {
		t.Errorf("Open(none) = %T, want *NullCache", c)
	}

	c, err = Open(ctx, Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open(default) error = %v", err)
	}
	if _, ok := c.(*FileCache); !ok {
		t.Errorf("Open(default) = %T, want *FileCache", c)
	}

	if _, err := Open(ctx, Options{Backend: "memcached"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(memcached) error = %v, want ErrUnknownBackend", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	type result struct {
		Rows map[string]int `json:"rows"`
	}
	in := result{Rows: map[string]int{"a": 0, "b": 1}}
	if err := SetJSON(ctx, c, "rank:x", in, 0); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}

	var out result
	hit, err := GetJSON(ctx, c, "rank:x", &out)
	if err != nil || !hit {
		t.Fatalf("GetJSON() = %v, %v", hit, err)
	}
	if out.Rows["b"] != 1 {
		t.Errorf("GetJSON() rows = %v", out.Rows)
	}

	if err := c.Set(ctx, "rank:bad", []byte("nope"), 0); err != nil {
		t.Fatal(err)
	}
	if hit, err := GetJSON(ctx, c, "rank:bad", &out); hit || err != nil {
		t.Errorf("GetJSON(undecodable) = %v, %v; want miss", hit, err)
	}
	if _, hit, _ := c.Get(ctx, "rank:bad"); hit {
		t.Error("undecodable entry not deleted")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestHasherMatchesHash(t *testing.T) {
	h := NewHasher()
	_, _ = h.Write([]byte(`{"nodes":[{"id":"a"},`))
	_, _ = h.Write([]byte(`{"id":"b"}]}`))

	if got, want := h.Sum(), Hash([]byte(`{"nodes":[{"id":"a"},{"id":"b"}]}`)); got != want {
		t.Errorf("streamed Sum() = %s, want %s", got, want)
	}
}

func TestEntryKeySeparatesGraphAndOptions(t *testing.T) {
	a := entryKey(KeyTypeRank, "ab", RankKeyOpts{Ranker: "c"})
	b := entryKey(KeyTypeRank, "a", RankKeyOpts{Ranker: "bc"})
	if a == b {
		t.Error("graph hash and options run together in the key")
	}
	if !strings.HasPrefix(a, "rank:") || len(a) != len("rank:")+64 {
		t.Errorf("entryKey = %q, want rank:<64 hex>", a)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	rk1 := k.RankKey("hash123", RankKeyOpts{Balance: "none"})
	rk2 := k.RankKey("hash123", RankKeyOpts{Balance: "tb"})
	if rk1 == rk2 {
		t.Error("Different RankKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(rk1, "rank:") {
		t.Errorf("RankKey = %q, want rank: prefix", rk1)
	}
	if rk1 != k.RankKey("hash123", RankKeyOpts{Balance: "none"}) {
		t.Error("RankKey should be deterministic")
	}

	sk1 := k.RenderKey("hash123", RenderKeyOpts{Format: "svg"})
	sk2 := k.RenderKey("hash123", RenderKeyOpts{Format: "dot"})
	if sk1 == sk2 {
		t.Error("Different RenderKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "api:")

	key := scoped.RankKey("h", RankKeyOpts{})
	if !strings.HasPrefix(key, "api:rank:") {
		t.Errorf("ScopedKeyer RankKey = %q, want api:rank: prefix", key)
	}
	if got := keyType(key); got != KeyTypeRank {
		t.Errorf("keyType(%q) = %q, want rank", key, got)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	want := "prefix:" + NewDefaultKeyer().RenderKey("h", RenderKeyOpts{})
	if key := scoped.RenderKey("h", RenderKeyOpts{}); key != want {
		t.Errorf("RenderKey with nil inner = %q, want %q", key, want)
	}
}

type recordingHooks struct {
	mu                 sync.Mutex
	hits, misses, sets []string
}

func (h *recordingHooks) OnCacheHit(_ context.Context, kt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits = append(h.hits, kt)
}

func (h *recordingHooks) OnCacheMiss(_ context.Context, kt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses = append(h.misses, kt)
}

func (h *recordingHooks) OnCacheSet(_ context.Context, kt string, _ int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sets = append(h.sets, kt)
}

func TestInstrumented(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := Instrument(fc)
	if Instrument(c) != c {
		t.Error("Instrument should not wrap twice")
	}

	key := NewDefaultKeyer().RankKey("h", RankKeyOpts{})
	_, _, _ = c.Get(ctx, key)
	_ = c.Set(ctx, key, []byte("x"), 0)
	_, _, _ = c.Get(ctx, key)

	if len(hooks.misses) != 1 || len(hooks.sets) != 1 || len(hooks.hits) != 1 {
		t.Fatalf("hooks = %+v, want one miss, set and hit", hooks)
	}
	if hooks.hits[0] != KeyTypeRank {
		t.Errorf("key type = %q, want rank", hooks.hits[0])
	}
	if n, err := c.Clear(ctx); err != nil || n != 1 {
		t.Errorf("Clear() = %d, %v; want 1, nil", n, err)
	}
}

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network", ErrNetwork, true},
		{"wrapped network", fmt.Errorf("redis get rank:abc: %w", ErrNetwork), true},
		{"unknown backend", ErrUnknownBackend, false},
		{"cancelled", context.Canceled, false},
	}
	for _, tt := range tests {
		if got := IsUnavailable(tt.err); got != tt.want {
			t.Errorf("IsUnavailable(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBackoffDo(t *testing.T) {
	b := Backoff{Attempts: 3, Delay: time.Millisecond}
	ctx := context.Background()
	flaky := fmt.Errorf("redis set rank:abc: %w", ErrNetwork)

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"first try", 0, nil, 1, nil},
		{"recovers after one network error", 1, flaky, 2, nil},
		{"gives up after attempts", 10, flaky, 3, ErrNetwork},
		{"does not retry data errors", 10, ErrUnknownBackend, 1, ErrUnknownBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := b.Do(ctx, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("Do() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Do() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackoffDoZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Backoff{}.Do(context.Background(), func() error {
		calls++
		return ErrNetwork
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBackoffDoContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := DefaultBackoff.Do(ctx, func() error { return ErrNetwork })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}
