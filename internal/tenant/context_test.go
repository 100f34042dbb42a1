package tenant

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBindAndFrom(t *testing.T) {
	ctx := Bind(context.Background(), "buildingA")
	id, ok := From(ctx)
	assert.True(t, ok)
	assert.Equal(t, "buildingA", id)
}

func TestFromUnbound(t *testing.T) {
	_, ok := From(context.Background())
	assert.False(t, ok)
}

func TestBindEmptyIsAnonymous(t *testing.T) {
	ctx := Bind(context.Background(), "")
	_, ok := From(ctx)
	assert.False(t, ok)
}

func TestClearRemovesBinding(t *testing.T) {
	ctx := Bind(context.Background(), "buildingA")
	ctx = Clear(ctx)
	_, ok := From(ctx)
	assert.False(t, ok)
}

func TestClearDoesNotAffectParent(t *testing.T) {
	parent := Bind(context.Background(), "buildingA")
	_ = Clear(parent)
	id, ok := From(parent)
	assert.True(t, ok)
	assert.Equal(t, "buildingA", id)
}

func TestConcurrentRequestsAreIsolated(t *testing.T) {
	base := context.Background()
	var wg sync.WaitGroup
	for _, building := range []string{"buildingA", "buildingB", "buildingC"} {
		wg.Add(1)
		go func(b string) {
			defer wg.Done()
			ctx := Bind(base, b)
			for i := 0; i < 1000; i++ {
				id, ok := From(ctx)
				if !ok || id != b {
					t.Errorf("binding leaked: want %s, got %s", b, id)
					return
				}
			}
		}(building)
	}
	wg.Wait()
}
