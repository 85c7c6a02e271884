package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, name := range Names() {
		in, err := New(name, nil)
		require.NoError(t, err, name)
		assert.Equal(t, name, in.Name())
		assert.Greater(t, in.Cutoff(), 0.0)
	}

	_, err := New("morse", nil)
	assert.ErrorIs(t, err, ErrUnknownInteraction)

	_, err = New("constant", map[string]float64{"depth": 1})
	assert.ErrorIs(t, err, ErrUnknownParam)
}

func TestNew_AppliesParams(t *testing.T) {
	in, err := New("Shoulder", map[string]float64{"inner": -2, "r2": 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"inner": -2, "outer": 1, "r1": 1, "r2": 2}, in.GetParams())
	assert.Equal(t, 2.0, in.Cutoff())
}

func TestConstant(t *testing.T) {
	c := NewConstant()
	assert.Equal(t, -4.0, c.V(0.5))
	assert.Equal(t, -4.0, c.V(1))
	assert.ErrorIs(t, c.SetParam("rcut", 0), ErrInvalidParam)
	require.NoError(t, c.SetParam("v", 2))
	assert.Equal(t, 2.0, c.V(1))
}

func TestSquareShoulder(t *testing.T) {
	s := NewSquareShoulder()
	assert.Equal(t, -4.0, s.V(1))
	assert.Equal(t, 1.0, s.V(math.Sqrt2))
	assert.Equal(t, 1.0, s.V(3))
	assert.Equal(t, 3.0, s.Cutoff())

	assert.ErrorIs(t, s.SetParam("r1", 5), ErrInvalidParam)
}

func TestLennardJones(t *testing.T) {
	l := NewLennardJones()
	assert.InDelta(t, 0, l.V(l.Rcut), 1e-12)
	assert.Equal(t, 0.0, l.V(3))

	rmin := math.Pow(2, 1.0/6)
	shift := 4 * (math.Pow(1/2.5, 12) - math.Pow(1/2.5, 6))
	assert.InDelta(t, -1-shift, l.V(rmin), 1e-12)
	assert.Greater(t, l.V(0.9), 0.0)
	assert.True(t, math.IsInf(l.V(0), 1))

	assert.ErrorIs(t, l.SetParam("sigma", -1), ErrInvalidParam)
	assert.ErrorIs(t, l.SetParam("alpha", 1), ErrUnknownParam)
}

func TestYukawa(t *testing.T) {
	y := NewYukawa()
	assert.InDelta(t, math.Exp(-1), y.V(1), 1e-12)
	assert.InDelta(t, math.Exp(-2)/2, y.V(2), 1e-12)
	assert.Equal(t, 0.0, y.V(3.5))

	assert.ErrorIs(t, y.SetParam("kappa", -1), ErrInvalidParam)
	require.NoError(t, y.SetParam("kappa", 0))
	assert.InDelta(t, 0.5, y.V(2), 1e-12)
}
