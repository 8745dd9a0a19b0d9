package cache

import (
	"sync"
	"testing"
	"time"
)

func BenchmarkLRUCache_Set(b *testing.B) {
	cache := NewLRUCache[string](1000, 5*time.Minute)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Set(HashKey([]byte(string(rune(i)))), "value")
	}
}

func BenchmarkLRUCache_Get(b *testing.B) {
	cache := NewLRUCache[string](1000, 5*time.Minute)

	for i := 0; i < 100; i++ {
		cache.Set(HashKey([]byte(string(rune(i)))), "value")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Get(HashKey([]byte(string(rune(i % 100)))))
	}
}

func TestLRUCache_Basic(t *testing.T) {
	cache := NewLRUCache[int](3, time.Hour)

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Set("c", 3)

	if v, ok := cache.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %v %v", v, ok)
	}

	// "b" is now least recently used
	cache.Set("d", 4)
	if _, ok := cache.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if cache.Len() != 3 {
		t.Fatalf("expected len 3, got %d", cache.Len())
	}

	cache.Set("a", 10)
	if v, _ := cache.Get("a"); v != 10 {
		t.Fatalf("expected updated value 10, got %d", v)
	}

	cache.Delete("a")
	if _, ok := cache.Get("a"); ok {
		t.Fatalf("expected a to be deleted")
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache after Clear")
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	cache := NewLRUCache[string](2, time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Set("token", "abc")
	now = now.Add(59 * time.Second)
	if _, ok := cache.Get("token"); !ok {
		t.Fatalf("expected entry before ttl")
	}
	now = now.Add(2 * time.Second)
	if _, ok := cache.Get("token"); ok {
		t.Fatalf("expected entry to expire")
	}
	if cache.Len() != 0 {
		t.Fatalf("expired entry should be removed on access")
	}
}

func TestLRUCache_NoTTL(t *testing.T) {
	cache := NewLRUCache[string](0, 0)
	cache.Set("k", "v")
	if v, ok := cache.Get("k"); !ok || v != "v" {
		t.Fatalf("expected entry without ttl to persist")
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	cache := NewLRUCache[int](50, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := HashKey([]byte{byte(g), byte(i)})
				cache.Set(key, i)
				cache.Get(key)
			}
		}(g)
	}
	wg.Wait()
	if cache.Len() > 50 {
		t.Fatalf("capacity exceeded: %d", cache.Len())
	}
}

func TestHashKeyStable(t *testing.T) {
	if HashKey([]byte("x")) != HashKey([]byte("x")) {
		t.Fatalf("hash must be deterministic")
	}
	if HashKey([]byte("x")) == HashKey([]byte("y")) {
		t.Fatalf("different payloads must hash differently")
	}
}
