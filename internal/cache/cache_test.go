package cache

import (
	"context"
	"testing"
	"time"

	"github.com/opensource-finance/credix/internal/domain"
)

func TestLRUCache(t *testing.T) {
	cache := NewLRUCache(100)
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		err := cache.Set(ctx, "key1", []byte("value1"), time.Minute)
		if err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		val, err := cache.Get(ctx, "key1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}

		if string(val) != "value1" {
			t.Errorf("expected 'value1', got '%s'", string(val))
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		val, err := cache.Get(ctx, "nonexistent")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if val != nil {
			t.Errorf("expected nil for cache miss, got: %v", val)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = cache.Set(ctx, "key2", []byte("value2"), time.Minute)

		if err := cache.Delete(ctx, "key2"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		val, _ := cache.Get(ctx, "key2")
		if val != nil {
			t.Error("expected nil after delete")
		}
	})

	t.Run("TTLExpiration", func(t *testing.T) {
		_ = cache.Set(ctx, "expiring", []byte("temp"), 10*time.Millisecond)

		val, _ := cache.Get(ctx, "expiring")
		if val == nil {
			t.Error("expected value before expiration")
		}

		time.Sleep(20 * time.Millisecond)

		val, _ = cache.Get(ctx, "expiring")
		if val != nil {
			t.Error("expected nil after expiration")
		}
	})

	t.Run("LRUEviction", func(t *testing.T) {
		smallCache := NewLRUCache(3)

		_ = smallCache.Set(ctx, "a", []byte("1"), time.Minute)
		_ = smallCache.Set(ctx, "b", []byte("2"), time.Minute)
		_ = smallCache.Set(ctx, "c", []byte("3"), time.Minute)

		// Access 'a' to make it recently used
		_, _ = smallCache.Get(ctx, "a")

		// Add 'd' - should evict 'b' (oldest accessed)
		_ = smallCache.Set(ctx, "d", []byte("4"), time.Minute)

		val, _ := smallCache.Get(ctx, "b")
		if val != nil {
			t.Error("expected 'b' to be evicted")
		}

		val, _ = smallCache.Get(ctx, "a")
		if val == nil {
			t.Error("expected 'a' to still exist")
		}
	})
}

func TestCustomerSnapshot(t *testing.T) {
	cache := NewLRUCache(10)
	ctx := context.Background()

	rec := &domain.CustomerRecord{
		CustomerID:           "CUST-10001",
		ProbabilityOfDefault: domain.Float(0.74),
		TenureMonths:         domain.Int(18),
		EmailID:              "asha@example.com",
	}

	t.Run("RoundTrip", func(t *testing.T) {
		if err := cache.SetCustomer(ctx, rec, time.Minute); err != nil {
			t.Fatalf("SetCustomer failed: %v", err)
		}

		got, err := cache.GetCustomer(ctx, "CUST-10001")
		if err != nil {
			t.Fatalf("GetCustomer failed: %v", err)
		}
		if got == nil {
			t.Fatal("expected cached customer")
		}
		if got.PD() != 0.74 || got.Tenure() != 18 || got.EmailID != "asha@example.com" {
			t.Errorf("unexpected snapshot: %+v", got)
		}
		if got.SalaryCreditDelayDays != nil {
			t.Error("absent fields should stay absent")
		}
	})

	t.Run("Miss", func(t *testing.T) {
		got, err := cache.GetCustomer(ctx, "CUST-99999")
		if err != nil || got != nil {
			t.Errorf("expected nil, nil for miss, got %v, %v", got, err)
		}
	})

	t.Run("Invalidate", func(t *testing.T) {
		_ = cache.Delete(ctx, CustomerKey("CUST-10001"))
		got, _ := cache.GetCustomer(ctx, "CUST-10001")
		if got != nil {
			t.Error("expected nil after invalidation")
		}
	})

	t.Run("RequiresCustomerID", func(t *testing.T) {
		if err := cache.SetCustomer(ctx, &domain.CustomerRecord{}, time.Minute); err == nil {
			t.Error("expected error for missing customer id")
		}
	})

	t.Run("CorruptEntry", func(t *testing.T) {
		_ = cache.Set(ctx, CustomerKey("CUST-BAD"), []byte("{not json"), time.Minute)
		if _, err := cache.GetCustomer(ctx, "CUST-BAD"); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestLRUStats(t *testing.T) {
	cache := NewLRUCache(5)
	ctx := context.Background()

	_ = cache.Set(ctx, "a", []byte("1"), time.Minute)
	_, _ = cache.Get(ctx, "a")
	_, _ = cache.Get(ctx, "b")

	stats := cache.Stats()
	if stats.Size != 1 || stats.Capacity != 5 {
		t.Errorf("unexpected size/capacity: %+v", stats)
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("unexpected hit/miss counts: %+v", stats)
	}
}

func TestNew(t *testing.T) {
	c, err := New(domain.CacheConfig{Type: "memory", LocalMaxSize: 10})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := c.(*LRUCache); !ok {
		t.Errorf("expected *LRUCache, got %T", c)
	}

	if _, err := New(domain.CacheConfig{Type: "memcached"}); err == nil {
		t.Error("expected error for unsupported cache type")
	}
}
