package link

import (
	"context"
	"fmt"

	"github.com/modlink/modlink/ir"
)

// LoadFunc resolves a file identifier to a module. The import path uses a
// lazy-loading implementation so donor bodies stay deferred until needed.
type LoadFunc func(ctx context.Context, path string) (*ir.Module, error)

// slot holds a cached module, or records that its ownership was already
// transferred out.
type slot struct {
	module *ir.Module
	taken  bool
}

// ModuleCache memoizes loaded donor modules by file identifier so a module
// referenced by several import requests is parsed once. Take transfers
// ownership of an entry exactly once; any access to a taken entry is a
// programming error and panics rather than silently reloading.
type ModuleCache struct {
	load  LoadFunc
	slots map[string]*slot
}

// NewModuleCache creates a cache that loads missing entries with load.
func NewModuleCache(load LoadFunc) *ModuleCache {
	return &ModuleCache{
		load:  load,
		slots: make(map[string]*slot),
	}
}

// Get returns the cached module for id, loading it on first request.
func (c *ModuleCache) Get(ctx context.Context, id string) (*ir.Module, error) {
	s, ok := c.slots[id]
	if ok {
		if s.taken {
			panic(fmt.Sprintf("link: module cache: Get(%q) after Take", id))
		}
		return s.module, nil
	}
	m, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	c.slots[id] = &slot{module: m}
	return m, nil
}

// Take removes and returns ownership of the cached module for id.
func (c *ModuleCache) Take(id string) *ir.Module {
	s, ok := c.slots[id]
	if !ok {
		panic(fmt.Sprintf("link: module cache: Take(%q) of absent entry", id))
	}
	if s.taken {
		panic(fmt.Sprintf("link: module cache: Take(%q) called twice", id))
	}
	m := s.module
	s.module = nil
	s.taken = true
	return m
}
