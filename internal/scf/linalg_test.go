package scf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func assertOrthonormal(t *testing.T, o *orthogonalizer, S mat.Matrix) {
	t.Helper()
	m := o.M()
	id := mat.NewDiagDense(m, nil)
	for i := 0; i < m; i++ {
		id.SetDiag(i, 1)
	}
	got := o.transform(S)
	assert.True(t, mat.EqualApprox(id, got, 1e-10), "X^T S X =\n%v", FormatMatrix(got))
}

func TestLoewdin(t *testing.T) {
	S := mat.NewSymDense(2, []float64{1, 0.6, 0.6, 1})
	o, err := newOrthogonalizer(S, DefaultLinearDependence)
	require.NoError(t, err)
	assert.False(t, o.Canonical)
	assert.Equal(t, 2, o.M())
	assert.InDelta(t, 0.4, o.MinEig, 1e-12)
	assertOrthonormal(t, o, S)
	// S^-1/2 is symmetric
	assert.InDelta(t, o.X.At(0, 1), o.X.At(1, 0), 1e-14)
}

func TestCanonicalDropsDependentFunctions(t *testing.T) {
	e := 1e-10
	S := mat.NewSymDense(3, []float64{
		1, 1 - e, 0,
		1 - e, 1, 0,
		0, 0, 1,
	})
	o, err := newOrthogonalizer(S, DefaultLinearDependence)
	require.NoError(t, err)
	assert.True(t, o.Canonical)
	assert.Equal(t, 2, o.M())
	assertOrthonormal(t, o, S)
}

func TestOrthogonalizerRejectsNaN(t *testing.T) {
	S := mat.NewSymDense(1, []float64{math.NaN()})
	_, err := newOrthogonalizer(S, DefaultLinearDependence)
	assert.Error(t, err)
}

func TestDiagonalize(t *testing.T) {
	S := mat.NewSymDense(2, []float64{1, 0.5, 0.5, 1})
	o, err := newOrthogonalizer(S, DefaultLinearDependence)
	require.NoError(t, err)
	F := mat.NewDense(2, 2, []float64{-1, -0.8, -0.8, -1})
	C, eps, err := o.diagonalize(F)
	require.NoError(t, err)

	// symmetric dimer: (a +- b)/(1 +- s)
	assert.InDelta(t, -1.8/1.5, eps[0], 1e-12)
	assert.InDelta(t, -0.2/0.5, eps[1], 1e-12)
	D := density(C, []float64{2, 0})
	assert.InDelta(t, 2, traceProduct(D, S), 1e-12)
	assert.InDelta(t, D.At(0, 1), D.At(1, 0), 1e-15)

	_, _, err = o.diagonalize(mat.NewDense(2, 2, []float64{math.Inf(1), 0, 0, 1}))
	assert.Error(t, err)
}

func TestRMS(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, -1, 1, -1})
	assert.InDelta(t, 1, rms(a), 1e-15)
	assert.InDelta(t, 4, traceProduct(a, a), 1e-15)
}

func TestNaturalOrbitalsRecoverShells(t *testing.T) {
	S := mat.NewSymDense(3, []float64{
		1, 0.5, 0.2,
		0.5, 1, 0.4,
		0.2, 0.4, 1,
	})
	F := mat.NewSymDense(3, []float64{
		-2, -0.8, -0.3,
		-0.8, -1, -0.5,
		-0.3, -0.5, 0.5,
	})
	o, err := newOrthogonalizer(S, DefaultLinearDependence)
	require.NoError(t, err)
	C, _, err := o.diagonalize(F)
	require.NoError(t, err)

	// an open shell: one doubly and one singly occupied orbital
	D := density(C, []float64{2, 1})
	nat, occ, err := o.naturalOrbitals(D, S)
	require.NoError(t, err)
	require.Len(t, occ, 3)
	assert.InDelta(t, 2, occ[0], 1e-10)
	assert.InDelta(t, 1, occ[1], 1e-10)
	assert.InDelta(t, 0, occ[2], 1e-10)

	wantA, wantB := density(C, []float64{1, 1}), density(C, []float64{1})
	assert.True(t, mat.EqualApprox(wantA, density(nat, []float64{1, 1}), 1e-10))
	assert.True(t, mat.EqualApprox(wantB, density(nat, []float64{1}), 1e-10))
	assert.True(t, mat.EqualApprox(D, density(nat, occ), 1e-10))
}
