// Package payload provides the random numeric computations the example
// driver submits as tasks. Each generator owns its own random source, so
// the sequence of one generator does not depend on how calls to the others
// are interleaved.
package payload

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"
)

// Generator draws x from a uniform distribution and returns f(x).
type Generator struct {
	name   string
	f      func(float64) float64
	lo, hi float64

	mu   sync.Mutex
	dist distuv.Uniform
}

func newGenerator(name string, lo, hi float64, f func(float64) float64, seed uint64) *Generator {
	return &Generator{
		name: name,
		f:    f,
		lo:   lo,
		hi:   hi,
		dist: distuv.Uniform{Min: lo, Max: hi, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)},
	}
}

// Sin returns sin(x) for x uniform in [-π, π].
func Sin(seed uint64) *Generator {
	return newGenerator("sin", -math.Pi, math.Pi, math.Sin, seed)
}

// Sqrt returns √x for x uniform in [1, 10].
func Sqrt(seed uint64) *Generator {
	return newGenerator("sqrt", 1, 10, math.Sqrt, seed)
}

// Pow2 returns x² for x uniform in [1, 10].
func Pow2(seed uint64) *Generator {
	return newGenerator("pow2", 1, 10, func(x float64) float64 { return math.Pow(x, 2) }, seed)
}

// Names lists the generators known to ByName, in their default order.
func Names() []string {
	return []string{"sin", "sqrt", "pow2"}
}

// ByName builds the named generator.
func ByName(name string, seed uint64) (*Generator, error) {
	switch name {
	case "sin":
		return Sin(seed), nil
	case "sqrt":
		return Sqrt(seed), nil
	case "pow2":
		return Pow2(seed), nil
	default:
		return nil, fmt.Errorf("payload: unknown generator %q", name)
	}
}

// Cycle returns n generators rotating through Names, each with its own
// seed derived from seed.
func Cycle(n int, seed uint64) []*Generator {
	names := Names()
	gens := make([]*Generator, n)
	for i := range gens {
		// ByName cannot fail for names from Names.
		gens[i], _ = ByName(names[i%len(names)], seed+uint64(i))
	}
	return gens
}

// Name returns the generator's name.
func (g *Generator) Name() string {
	return g.name
}

// Next draws one value. It is safe for concurrent use.
func (g *Generator) Next() float64 {
	g.mu.Lock()
	x := g.dist.Rand()
	g.mu.Unlock()
	return g.f(x)
}

// Bounds returns the closed interval every Next result falls in.
func (g *Generator) Bounds() (lo, hi float64) {
	switch g.name {
	case "sin":
		return -1, 1
	default:
		a, b := g.f(g.lo), g.f(g.hi)
		return min(a, b), max(a, b)
	}
}
