package engine

import (
	"math"

	"github.com/avrek/propsim/internal/confnode"
	"github.com/avrek/propsim/internal/ephemeris"
	"github.com/avrek/propsim/internal/propagation"
)

// Model type tags the engine executes.
const (
	ModelPointMassGravity = "pointMassGravity"
	ModelConstantMassRate = "constant"
)

type attractor struct {
	name string
	gm   float64
}

// block is one propagated body's slice of the combined state vector.
type block struct {
	body    string
	kind    propagation.StateType
	central string
	offset  int

	attractors []attractor // translational
	massRate   float64     // mass
}

// multiSystem executes the physical models of decoded settings over the
// combined state vector. Ephemeris lookups serve third-body positions; a
// lookup failure drops that term for the step rather than aborting the
// derivative.
type multiSystem struct {
	blocks []block
	dim    int
	store  ephemeris.Store
}

type accelerationModel struct {
	Type string
}

type massRateModel struct {
	Type string
	Rate float64
}

// buildSystem lays out the state vector and compiles the model maps. Bodies
// attract only when the store knows their gravitational parameter.
func buildSystem(settings *propagation.MultiTypeSettings, store ephemeris.Store) (*multiSystem, error) {
	sys := &multiSystem{store: store}
	gravity, _ := store.(ephemeris.GravityProvider)

	for _, arc := range settings.Propagators {
		size := arc.StateType().BlockSize()
		for i, body := range arc.Bodies() {
			blk := block{
				body:   body,
				kind:   arc.StateType(),
				offset: sys.dim,
			}
			switch typed := arc.(type) {
			case *propagation.TranslationalStateSettings:
				blk.central = typed.CentralBodies[i]
				attractors, err := compileAttractors(typed.Accelerations, body, gravity)
				if err != nil {
					return nil, err
				}
				blk.attractors = attractors
			case *propagation.MassStateSettings:
				rate, err := compileMassRate(typed.MassRateModels, body)
				if err != nil {
					return nil, err
				}
				blk.massRate = rate
			}
			sys.blocks = append(sys.blocks, blk)
			sys.dim += size
		}
	}
	return sys, nil
}

func compileAttractors(models propagation.ModelMap, body string, gravity ephemeris.GravityProvider) ([]attractor, error) {
	raw, ok := models[body]
	if !ok {
		return nil, nil
	}
	at := confnode.Path(propagation.KeyAccelerations, body)
	perBody, err := confnode.As[map[string][]accelerationModel](raw, at)
	if err != nil {
		return nil, err
	}
	var out []attractor
	for name, list := range perBody {
		for _, m := range list {
			if m.Type != ModelPointMassGravity {
				return nil, &ModelError{Body: body, Kind: "acceleration", Type: m.Type}
			}
			if gravity == nil {
				continue
			}
			if gm, ok := gravity.GM(name); ok {
				out = append(out, attractor{name: name, gm: gm})
			}
		}
	}
	return out, nil
}

func compileMassRate(models propagation.ModelMap, body string) (float64, error) {
	raw, ok := models[body]
	if !ok {
		return 0, nil
	}
	at := confnode.Path(propagation.KeyMassRateModels, body)
	list, err := confnode.As[[]massRateModel](raw, at)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, m := range list {
		if m.Type != ModelConstantMassRate {
			return 0, &ModelError{Body: body, Kind: "mass rate", Type: m.Type}
		}
		total += m.Rate
	}
	return total, nil
}

func (s *multiSystem) Dim() int { return s.dim }

func (s *multiSystem) Derive(x State, t float64) State {
	dx := make(State, len(x))
	for _, blk := range s.blocks {
		switch blk.kind {
		case propagation.StateTranslational:
			s.deriveTranslational(blk, x, dx, t)
		case propagation.StateMass:
			dx[blk.offset] = blk.massRate
		case propagation.StateRotational:
			deriveRotational(blk, x, dx)
		}
	}
	return dx
}

// deriveTranslational applies point-mass attractions to one body's
// central-relative state. The central body pulls directly; any other
// attractor contributes the standard third-body difference term.
func (s *multiSystem) deriveTranslational(blk block, x, dx State, t float64) {
	r := x[blk.offset : blk.offset+3]
	v := x[blk.offset+3 : blk.offset+6]
	copy(dx[blk.offset:blk.offset+3], v)

	acc := dx[blk.offset+3 : blk.offset+6]
	for _, a := range blk.attractors {
		if a.name == blk.central {
			inv := invCube(r[0], r[1], r[2])
			for i := 0; i < 3; i++ {
				acc[i] -= a.gm * r[i] * inv
			}
			continue
		}
		third, err := s.store.State(a.name, blk.central, t)
		if err != nil {
			continue
		}
		d := third[:3]
		rel := [3]float64{d[0] - r[0], d[1] - r[1], d[2] - r[2]}
		invRel := invCube(rel[0], rel[1], rel[2])
		invD := invCube(d[0], d[1], d[2])
		for i := 0; i < 3; i++ {
			acc[i] += a.gm * (rel[i]*invRel - d[i]*invD)
		}
	}
}

// deriveRotational integrates torque-free attitude kinematics: the
// quaternion follows the body rate, the body rate stays constant.
func deriveRotational(blk block, x, dx State) {
	q := x[blk.offset : blk.offset+4]
	w := x[blk.offset+4 : blk.offset+7]
	dx[blk.offset+0] = 0.5 * (-q[1]*w[0] - q[2]*w[1] - q[3]*w[2])
	dx[blk.offset+1] = 0.5 * (q[0]*w[0] + q[2]*w[2] - q[3]*w[1])
	dx[blk.offset+2] = 0.5 * (q[0]*w[1] - q[1]*w[2] + q[3]*w[0])
	dx[blk.offset+3] = 0.5 * (q[0]*w[2] + q[1]*w[1] - q[2]*w[0])
}

func invCube(x, y, z float64) float64 {
	d := math.Sqrt(x*x + y*y + z*z)
	if d == 0 {
		return 0
	}
	return 1 / (d * d * d)
}
