package engine

import (
	"math"

	"github.com/avrek/propsim/internal/ephemeris"
	"github.com/avrek/propsim/internal/propagation"
)

// evalVariable computes one dependent variable at the given state and
// epoch. Quantities the run cannot produce come back as NaN; threshold
// comparisons against NaN are never satisfied, so an unavailable variable
// simply never terminates the run.
func (p *Propagator) evalVariable(v propagation.DependentVariable, x State, t float64) float64 {
	switch v.Name {
	case propagation.VarMass:
		if blk, ok := p.findBlock(v.Body, propagation.StateMass); ok {
			return x[blk.offset]
		}
		return math.NaN()

	case propagation.VarRelativeDistance:
		rel, ok := p.relativeState(v.Body, v.RelativeTo, x, t)
		if !ok {
			return math.NaN()
		}
		return norm3(rel[0], rel[1], rel[2])

	case propagation.VarRelativeSpeed:
		rel, ok := p.relativeState(v.Body, v.RelativeTo, x, t)
		if !ok {
			return math.NaN()
		}
		return norm3(rel[3], rel[4], rel[5])

	case propagation.VarAltitude:
		rel, ok := p.relativeState(v.Body, v.RelativeTo, x, t)
		if !ok {
			return math.NaN()
		}
		radius := 0.0
		if provider, ok := p.Store.(ephemeris.RadiusProvider); ok {
			if r, known := provider.Radius(v.RelativeTo); known {
				radius = r
			}
		}
		return norm3(rel[0], rel[1], rel[2]) - radius
	}
	return math.NaN()
}

// relativeState returns body's position and velocity relative to target. A
// propagated translational body reads its block and shifts frames through
// the ephemeris when the target differs from its central body; anything
// else is a plain ephemeris lookup.
func (p *Propagator) relativeState(body, target string, x State, t float64) ([]float64, bool) {
	if blk, ok := p.findBlock(body, propagation.StateTranslational); ok {
		rel := make([]float64, ephemeris.StateSize)
		copy(rel, x[blk.offset:blk.offset+ephemeris.StateSize])
		if blk.central == target {
			return rel, true
		}
		shift, err := p.Store.State(blk.central, target, t)
		if err != nil {
			return nil, false
		}
		for i := range rel {
			rel[i] += shift[i]
		}
		return rel, true
	}
	st, err := p.Store.State(body, target, t)
	if err != nil {
		return nil, false
	}
	return st, true
}

func (p *Propagator) findBlock(body string, kind propagation.StateType) (block, bool) {
	for _, blk := range p.system.blocks {
		if blk.body == body && blk.kind == kind {
			return blk, true
		}
	}
	return block{}, false
}

func norm3(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}
