package integrals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/gohf/internal/basis"
)

func sFunc(t *testing.T, sp basis.Species, center [3]float64, alpha float64) basis.Function {
	t.Helper()
	f, err := basis.S(sp, center, basis.Primitive{Exponent: alpha, Coefficient: 1})
	require.NoError(t, err)
	return f
}

// twoCentre: electron functions alpha at origin and beta at R; one positron
// function gamma at the origin.
func twoCentre(t *testing.T, alpha, beta, gamma, R float64) *Engine {
	t.Helper()
	set, err := basis.NewSet(
		[]basis.Function{
			sFunc(t, basis.Electron, [3]float64{}, alpha),
			sFunc(t, basis.Electron, [3]float64{R, 0, 0}, beta),
		},
		[]basis.Function{sFunc(t, basis.Positron, [3]float64{}, gamma)},
	)
	require.NoError(t, err)
	nuc := []basis.Nucleus{{Charge: 1, Center: [3]float64{}}}
	return NewEngine(set, nuc)
}

func get(t *testing.T, e Provider, k Key) float64 {
	t.Helper()
	v, err := e.Integral(k)
	require.NoError(t, err)
	return v
}

func TestEngineOneCentreAnalytic(t *testing.T) {
	alpha, gamma := 0.8, 0.3
	e := twoCentre(t, alpha, 1.1, gamma, 1.4)

	assert.InDelta(t, 1.0, get(t, e, OneBody(Overlap, basis.Electron, 0, 0)), 1e-14)
	assert.InDelta(t, 1.5*alpha, get(t, e, OneBody(Kinetic, basis.Electron, 0, 0)), 1e-13)
	assert.InDelta(t, -2*math.Sqrt(2*alpha/math.Pi), get(t, e, OneBody(Nuclear, basis.Electron, 0, 0)), 1e-13)
	assert.InDelta(t, 15*alpha*alpha, get(t, e, OneBody(MassVelocity, basis.Electron, 0, 0)), 1e-12)
	assert.InDelta(t, math.Pow(2*alpha/math.Pi, 1.5), get(t, e, OneBody(Darwin, basis.Electron, 0, 0)), 1e-13)

	self := 2 * math.Sqrt(alpha/math.Pi)
	assert.InDelta(t, self, get(t, e, TwoBodyKey(Coulomb, basis.Electron, basis.Electron, 0, 0, 0, 0)), 1e-12)

	ep := 2 / math.Sqrt(math.Pi) * math.Sqrt(2*alpha*gamma/(alpha+gamma))
	assert.InDelta(t, ep, get(t, e, TwoBodyKey(Coulomb, basis.Electron, basis.Positron, 0, 0, 0, 0)), 1e-12)

	ct := math.Pow(2*alpha*gamma/(math.Pi*(alpha+gamma)), 1.5)
	assert.InDelta(t, ct, get(t, e, TwoBodyKey(Annihilation, basis.Electron, basis.Positron, 0, 0, 0, 0)), 1e-13)
}

func TestEngineTwoCentreOverlapAndSymmetry(t *testing.T) {
	alpha, beta, R := 0.8, 1.1, 1.4
	e := twoCentre(t, alpha, beta, 0.3, R)

	want := math.Pow(2*math.Sqrt(alpha*beta)/(alpha+beta), 1.5) * math.Exp(-alpha*beta/(alpha+beta)*R*R)
	s01 := get(t, e, OneBody(Overlap, basis.Electron, 0, 1))
	assert.InDelta(t, want, s01, 1e-13)
	assert.InDelta(t, s01, get(t, e, OneBody(Overlap, basis.Electron, 1, 0)), 1e-15)

	for _, kind := range []Kind{Kinetic, Nuclear, MassVelocity, Darwin} {
		a := get(t, e, OneBody(kind, basis.Electron, 0, 1))
		b := get(t, e, OneBody(kind, basis.Electron, 1, 0))
		assert.InDelta(t, a, b, 1e-12, kind.String())
	}

	v1 := get(t, e, TwoBodyKey(Coulomb, basis.Electron, basis.Electron, 0, 1, 1, 1))
	v2 := get(t, e, TwoBodyKey(Coulomb, basis.Electron, basis.Electron, 1, 1, 1, 0))
	assert.InDelta(t, v1, v2, 1e-13)
}

func TestEngineKineticMatchesMassVelocityScale(t *testing.T) {
	// <p^4> >= <p^2>^2 for any normalized state
	e := twoCentre(t, 0.5, 2.0, 0.3, 0.7)
	for i := 0; i < 2; i++ {
		p2 := 2 * get(t, e, OneBody(Kinetic, basis.Electron, i, i))
		p4 := get(t, e, OneBody(MassVelocity, basis.Electron, i, i))
		assert.GreaterOrEqual(t, p4, p2*p2)
	}
}

func TestEngineErrors(t *testing.T) {
	pf, err := basis.NewFunction(basis.Electron, [3]float64{}, [3]int{1, 0, 0}, basis.Primitive{Exponent: 1, Coefficient: 1})
	require.NoError(t, err)
	set, err := basis.NewSet([]basis.Function{pf}, nil)
	require.NoError(t, err)
	e := NewEngine(set, nil, WithDisabled(Darwin))

	_, err = e.Integral(OneBody(Overlap, basis.Electron, 0, 0))
	assert.ErrorIs(t, err, ErrAngularMomentum)

	_, err = e.Integral(OneBody(Overlap, basis.Electron, 0, 3))
	assert.ErrorIs(t, err, ErrIndex)

	_, err = e.Integral(OneBody(Darwin, basis.Electron, 0, 0))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = e.Integral(TwoBodyKey(Annihilation, basis.Electron, basis.Electron, 0, 0, 0, 0))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = e.Integral(TwoBodyKey(Coulomb, basis.Electron, basis.Positron, 0, 0, 0, 0))
	assert.ErrorIs(t, err, ErrIndex)
}

func TestBoys(t *testing.T) {
	assert.Equal(t, 1.0, boys(0, 0))
	for _, x := range []float64{1e-6, 0.3, 2.5, 30} {
		want := 0.5 * math.Sqrt(math.Pi/x) * math.Erf(math.Sqrt(x))
		assert.InDelta(t, want, boys(x, 0), 1e-12)
	}
}

func TestKeyCanonical(t *testing.T) {
	cases := []struct {
		in, want Key
	}{
		{OneBody(Kinetic, basis.Electron, 3, 1), OneBody(Kinetic, basis.Electron, 1, 3)},
		{
			TwoBodyKey(Coulomb, basis.Electron, basis.Electron, 3, 2, 1, 0),
			TwoBodyKey(Coulomb, basis.Electron, basis.Electron, 0, 1, 2, 3),
		},
		{
			TwoBodyKey(Coulomb, basis.Positron, basis.Electron, 1, 0, 2, 1),
			TwoBodyKey(Coulomb, basis.Electron, basis.Positron, 1, 2, 0, 1),
		},
		{
			TwoBodyKey(Annihilation, basis.Electron, basis.Positron, 1, 0, 0, 0),
			TwoBodyKey(Annihilation, basis.Electron, basis.Positron, 0, 1, 0, 0),
		},
	}
	for _, c := range cases {
		got := c.in.Canonical()
		if got != c.want {
			t.Errorf("got %v, wanted %v\n", got, c.want)
		}
	}
}

func TestFingerprint(t *testing.T) {
	a := twoCentre(t, 0.8, 1.1, 0.3, 1.4)
	b := twoCentre(t, 0.8, 1.1, 0.3, 1.4)
	c := twoCentre(t, 0.8, 1.1, 0.3, 1.5)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
