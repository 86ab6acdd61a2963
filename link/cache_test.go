package link

import (
	"context"
	"testing"

	"github.com/modlink/modlink/ir"
)

func countingLoader(t *testing.T, loads map[string]int) LoadFunc {
	t.Helper()
	return func(ctx context.Context, path string) (*ir.Module, error) {
		loads[path]++
		return ir.ParseBytes(path, []byte(`module "`+path+`"`))
	}
}

func TestModuleCacheMemoizes(t *testing.T) {
	loads := map[string]int{}
	c := NewModuleCache(countingLoader(t, loads))
	ctx := context.Background()

	m1, err := c.Get(ctx, "a.mir")
	if err != nil {
		t.Fatal(err)
	}
	m2, err := c.Get(ctx, "a.mir")
	if err != nil {
		t.Fatal(err)
	}
	if m1 != m2 {
		t.Error("repeated Get must return the same module")
	}
	if loads["a.mir"] != 1 {
		t.Errorf("loads: got %d, want 1", loads["a.mir"])
	}
}

func TestModuleCacheTake(t *testing.T) {
	loads := map[string]int{}
	c := NewModuleCache(countingLoader(t, loads))

	m, err := c.Get(context.Background(), "a.mir")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Take("a.mir"); got != m {
		t.Error("Take must return the cached module")
	}
}

func TestModuleCachePanics(t *testing.T) {
	tests := []struct {
		name string
		use  func(c *ModuleCache)
	}{
		{
			name: "get after take",
			use: func(c *ModuleCache) {
				c.Take("a.mir")
				c.Get(context.Background(), "a.mir")
			},
		},
		{
			name: "double take",
			use: func(c *ModuleCache) {
				c.Take("a.mir")
				c.Take("a.mir")
			},
		},
		{
			name: "take absent",
			use: func(c *ModuleCache) {
				c.Take("missing.mir")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loads := map[string]int{}
			c := NewModuleCache(countingLoader(t, loads))
			if _, err := c.Get(context.Background(), "a.mir"); err != nil {
				t.Fatal(err)
			}
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.use(c)
		})
	}
}
