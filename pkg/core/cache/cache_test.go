package cache

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestCache(t *testing.T, cfg Config) *Cache[string] {
	t.Helper()
	c := New[string](cfg)
	t.Cleanup(c.Close)
	return c
}

func TestCache_SetGet(t *testing.T) {
	c := newTestCache(t, DefaultConfig())

	c.Set("a", "alpha")

	got, ok := c.Get("a")
	if !ok || got != "alpha" {
		t.Errorf("Get(a) = %q, %v; want alpha, true", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should miss")
	}

	hits, misses, rate := c.Stats()
	if hits != 1 || misses != 1 || rate != 50 {
		t.Errorf("Stats() = %d, %d, %v; want 1, 1, 50", hits, misses, rate)
	}
}

func TestCache_Expiration(t *testing.T) {
	c := newTestCache(t, Config{TTL: time.Hour})

	c.SetWithTTL("short", "x", 10*time.Millisecond)
	c.SetWithTTL("forever", "y", 0)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("expired entry should miss")
	}
	if _, ok := c.Get("forever"); !ok {
		t.Error("entry without TTL should not expire")
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestCache_EvictsOldest(t *testing.T) {
	c := newTestCache(t, Config{MaxItems: 2})

	c.Set("first", "1")
	time.Sleep(time.Millisecond)
	c.Set("second", "2")
	time.Sleep(time.Millisecond)
	c.Set("first", "1b")
	c.Set("third", "3")

	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
	if _, ok := c.Get("second"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if v, _ := c.Get("first"); v != "1b" {
		t.Errorf("Get(first) = %q, want 1b", v)
	}
}

func TestCache_DeleteClear(t *testing.T) {
	c := newTestCache(t, DefaultConfig())
	c.Set("a", "1")
	c.Set("b", "2")

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry should miss")
	}
	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size() after Clear = %d", c.Size())
	}
}

func TestCache_GetOrSet(t *testing.T) {
	c := newTestCache(t, DefaultConfig())
	calls := 0
	fn := func() (string, error) {
		calls++
		return "computed", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrSet("k", fn)
		if err != nil || v != "computed" {
			t.Fatalf("GetOrSet() = %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}

	_, err := c.GetOrSet("fail", func() (string, error) { return "", errors.New("boom") })
	if err == nil {
		t.Fatal("GetOrSet() should return fn error")
	}
	if _, ok := c.Get("fail"); ok {
		t.Error("errors must not be cached")
	}
}

func TestCache_CleanupLoop(t *testing.T) {
	c := newTestCache(t, Config{CleanupInterval: 5 * time.Millisecond})
	c.SetWithTTL("x", "1", time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for c.Size() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.Size() != 0 {
		t.Error("cleanup loop did not remove expired entry")
	}
	c.Close()
	c.Close()
}

func TestKey(t *testing.T) {
	type tok struct {
		Kind string
		X, Y float64
	}

	k1, err := Key("compile", []tok{{"direction", 1, 2}}, "")
	if err != nil {
		t.Fatal(err)
	}
	k2, _ := Key("compile", []tok{{"direction", 1, 2}}, "")
	k3, _ := Key("compile", []tok{{"direction", 1, 3}}, "")

	if k1 != k2 {
		t.Error("equal parts should give equal keys")
	}
	if k1 == k3 {
		t.Error("different parts should give different keys")
	}
	if !strings.HasPrefix(k1, "compile:") || len(k1) != len("compile:")+32 {
		t.Errorf("unexpected key format %q", k1)
	}

	if _, err := Key("bad", make(chan int)); err == nil {
		t.Error("unencodable part should fail")
	}
}
