package schema

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator produces the value of a field an insert omitted.
type Generator func() any

// Generators is a named set of default-value generators. It is safe for
// concurrent use.
type Generators struct {
	mu   sync.RWMutex
	gens map[string]Generator
}

// NewGenerators returns a set holding the builtin generators:
//
//	now    current time
//	today  current date as YYYY-MM-DD
//	unix   current Unix time in seconds
//	uuid   random version 4 UUID string
func NewGenerators() *Generators {
	g := &Generators{gens: make(map[string]Generator)}
	g.Register("now", func() any { return time.Now() })
	g.Register("today", func() any { return time.Now().Format(time.DateOnly) })
	g.Register("unix", func() any { return time.Now().Unix() })
	g.Register("uuid", func() any { return uuid.NewString() })
	return g
}

// Register adds or replaces the generator called name.
func (g *Generators) Register(name string, fn Generator) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gens == nil {
		g.gens = make(map[string]Generator)
	}
	g.gens[name] = fn
}

// Lookup returns the generator called name.
func (g *Generators) Lookup(name string) (Generator, bool) {
	if g == nil {
		return nil, false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	fn, ok := g.gens[name]
	return fn, ok
}

// Names returns the registered generator names in sorted order.
func (g *Generators) Names() []string {
	if g == nil {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.gens))
	for n := range g.gens {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
