package propagation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avrek/propsim/internal/confnode"
)

func TestDependentVariableID(t *testing.T) {
	v := DependentVariable{Name: VarAltitude, Body: "Earth", RelativeTo: "Moon"}
	assert.Equal(t, "altitude(Earth,Moon)", v.ID())

	v = DependentVariable{Name: VarMass, Body: "Moon"}
	assert.Equal(t, "mass(Moon)", v.ID())
}

func TestDedupDependentVariables(t *testing.T) {
	altitude := DependentVariable{Name: VarAltitude, Body: "Earth", RelativeTo: "Moon"}
	mass := DependentVariable{Name: VarMass, Body: "Moon"}

	specs := []ExportSettings{
		{File: "a.dat", Variables: []Variable{EpochVariable{}, altitude}},
		{File: "b.dat", Variables: []Variable{altitude, mass, StateVariable{}}},
	}

	got := DedupDependentVariables(specs)
	require.Len(t, got, 2)
	assert.Equal(t, "altitude(Earth,Moon)", got[0].ID())
	assert.Equal(t, "mass(Moon)", got[1].ID())
}

func TestDedupKeyedByIDNotIdentity(t *testing.T) {
	// two distinct descriptor values with identical fields collapse
	a := DependentVariable{Name: VarRelativeSpeed, Body: "Vehicle", RelativeTo: "Earth"}
	b := DependentVariable{Name: VarRelativeSpeed, Body: "Vehicle", RelativeTo: "Earth"}

	got := DedupDependentVariables([]ExportSettings{
		{Variables: []Variable{a}},
		{Variables: []Variable{b}},
	})
	assert.Len(t, got, 1)
}

func TestDecodeVariable(t *testing.T) {
	v, err := decodeVariable("epoch", confnode.Path("v"))
	require.NoError(t, err)
	assert.Equal(t, EpochVariable{}, v)

	v, err = decodeVariable(map[string]any{"name": "altitude", "body": "Vehicle", "relativeTo": "Earth"}, confnode.Path("v"))
	require.NoError(t, err)
	assert.Equal(t, DependentVariable{Name: "altitude", Body: "Vehicle", RelativeTo: "Earth"}, v)

	_, err = decodeVariable("notakind", confnode.Path("v"))
	var mismatch *confnode.TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)

	_, err = decodeVariable(map[string]any{"body": "Vehicle"}, confnode.Path("v"))
	var missing *confnode.MissingKeyError
	assert.ErrorAs(t, err, &missing)
}

func TestDecodeExports(t *testing.T) {
	doc := []byte(`
export:
  - file: out.dat
    variables:
      - epoch
      - name: altitude
        body: Vehicle
        relativeTo: Earth
  - file: masses.dat
    header: false
    variables:
      - name: mass
        body: Vehicle
`)
	root, err := confnode.FromYAML(doc)
	require.NoError(t, err)

	specs, err := DecodeExports(root)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "out.dat", specs[0].File)
	assert.True(t, specs[0].Header)
	require.Len(t, specs[0].Variables, 2)
	assert.Equal(t, "epoch", specs[0].Variables[0].ID())
	assert.Equal(t, "altitude(Vehicle,Earth)", specs[0].Variables[1].ID())

	assert.False(t, specs[1].Header)

	deps := DedupDependentVariables(specs)
	require.Len(t, deps, 2)
	assert.Equal(t, "altitude(Vehicle,Earth)", deps[0].ID())
	assert.Equal(t, "mass(Vehicle)", deps[1].ID())
}

func TestEncodeExportsRoundTrip(t *testing.T) {
	specs := []ExportSettings{{
		File:                "out.dat",
		Variables:           []Variable{EpochVariable{}, DependentVariable{Name: VarAltitude, Body: "Vehicle", RelativeTo: "Earth"}},
		Header:              true,
		EpochsInFirstColumn: false,
	}}
	root := confnode.Map{KeyExport: EncodeExports(specs)}
	back, err := DecodeExports(root)
	require.NoError(t, err)
	assert.Equal(t, specs, back)
}

func TestDecodeExportsAbsent(t *testing.T) {
	specs, err := DecodeExports(confnode.Map{})
	require.NoError(t, err)
	assert.Empty(t, specs)
}
