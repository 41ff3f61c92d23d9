package scim

import (
	"sync"
	"testing"
)

func TestCacheFilter(t *testing.T) {
	c := NewCache(0)

	f1, err := c.Filter(`userName eq "a"`)
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	f2, _ := c.Filter(`userName eq "a"`)
	if f1 != f2 {
		t.Error("expected the cached filter to be returned")
	}

	_, err1 := c.Filter("a eq")
	_, err2 := c.Filter("a eq")
	if !IsFilterError(err1) || err1 != err2 {
		t.Errorf("expected the cached error to be returned, got %v and %v", err1, err2)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCachePath(t *testing.T) {
	c := NewCache(10)
	p, err := c.Path(`emails[type eq "work"].value`)
	if err != nil || p.Len() != 2 {
		t.Fatalf("Path failed: %v", err)
	}
	if _, err := c.Path("a."); !IsPathError(err) {
		t.Errorf("expected invalid path error, got %v", err)
	}
}

func TestCacheBound(t *testing.T) {
	c := NewCache(2)
	c.Filter("a pr")
	c.Filter("b pr")
	c.Filter("a pr")
	if c.Len() != 2 {
		t.Errorf("hits must not evict, Len() = %d", c.Len())
	}
	c.Filter("c pr")
	if c.Len() != 1 {
		t.Errorf("expected the table to be reset, Len() = %d", c.Len())
	}
}

func TestCacheOptions(t *testing.T) {
	c := NewCache(10, WithMaxDepth(1))
	if _, err := c.Filter("((a pr))"); !IsFilterError(err) {
		t.Errorf("expected depth error, got %v", err)
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := NewCache(100)
	exprs := []string{`a eq 1`, `b pr`, `emails[type eq "work"]`, `bad eq`}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				expr := exprs[j%len(exprs)]
				f, err := c.Filter(expr)
				if (err == nil) == (f == nil) {
					t.Errorf("inconsistent cache entry for %q", expr)
				}
			}
		}()
	}
	wg.Wait()
}
