package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/tmarche/fabula/pkg/ports"
)

func TestStoreContract(t *testing.T) {
	ports.RunStorageAdapterContract(t, New())
}

func TestConcurrentSavesAndLoads(t *testing.T) {
	store := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("slot-%d", n%4)
			for j := 0; j < 50; j++ {
				if err := store.Save(ctx, key, []byte(fmt.Sprintf("payload-%d-%d", n, j))); err != nil {
					t.Errorf("Save: %v", err)
					return
				}
				if _, err := store.Load(ctx, key); err != nil {
					t.Errorf("Load: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	keys, err := store.ListKeys(ctx)
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 4 {
		t.Errorf("keys = %v, want the four contended slots", keys)
	}
}
