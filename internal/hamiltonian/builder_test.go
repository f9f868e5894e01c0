package hamiltonian_test

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gonum.org/v1/gonum/mat"

	"example.com/gohf/internal/basis"
	"example.com/gohf/internal/hamiltonian"
	"example.com/gohf/internal/integrals"
	"example.com/gohf/internal/molecule"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingProvider counts requests and can fail one integral kind.
type countingProvider struct {
	p     integrals.Provider
	calls atomic.Int64
	fail  integrals.Kind
	err   error
	nan   bool
}

func (c *countingProvider) Integral(k integrals.Key) (float64, error) {
	c.calls.Add(1)
	if c.err != nil && k.Kind == c.fail {
		return 0, c.err
	}
	if c.nan && k.Kind == c.fail {
		return math.NaN(), nil
	}
	return c.p.Integral(k)
}

func engineFor(sys hamiltonian.System) *countingProvider {
	return &countingProvider{p: integrals.NewEngine(sys.Basis, sys.Nuclei), fail: -1}
}

func TestAnnihilationOnPositronOnlyBasis(t *testing.T) {
	opts := hamiltonian.DefaultOptions()
	opts.IncludeAnnihilation = true

	sys, err := molecule.AntiHydrogen(0.3)
	require.NoError(t, err)
	p := engineFor(sys)
	m, err := hamiltonian.Build(sys, p, opts)
	assert.Nil(t, m)
	var cfg *hamiltonian.ConfigurationError
	require.True(t, errors.As(err, &cfg), "got %v", err)
	assert.Contains(t, cfg.Error(), "annihilation")
	assert.Zero(t, p.calls.Load(), "no integral may be requested")
}

func TestElectronOnlyIgnoresOptionalTerms(t *testing.T) {
	sys, err := molecule.HydrogenAtom(0.3)
	require.NoError(t, err)
	opts := hamiltonian.DefaultOptions()
	opts.IncludeAnnihilation = true
	opts.IncludeRelativistic = true

	m, err := hamiltonian.Build(sys, engineFor(sys), opts)
	require.NoError(t, err)
	assert.False(t, m.IncludeAnnihilation)
	assert.False(t, m.IncludeRelativistic)
	assert.Empty(t, m.Couplings)
	blk := m.Block(basis.Electron)
	assert.Empty(t, blk.Corrections)

	var want mat.SymDense
	want.AddSym(blk.T, blk.V)
	assert.True(t, mat.Equal(&want, blk.HCore))
}

func TestValidation(t *testing.T) {
	h, err := molecule.HydrogenAtom(0.3)
	require.NoError(t, err)
	empty, err := basis.NewSet(nil, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		mod  func(*hamiltonian.System, *hamiltonian.Options)
	}{
		{"nil basis", func(s *hamiltonian.System, _ *hamiltonian.Options) { s.Basis = nil }},
		{"empty basis", func(s *hamiltonian.System, _ *hamiltonian.Options) { s.Basis = empty }},
		{"negative electrons", func(s *hamiltonian.System, _ *hamiltonian.Options) { s.Electrons = -1 }},
		{"positrons without basis", func(s *hamiltonian.System, _ *hamiltonian.Options) { s.Positrons = 1 }},
		{"too many electrons", func(s *hamiltonian.System, _ *hamiltonian.Options) { s.Electrons = 3 }},
		{"negative coupling", func(_ *hamiltonian.System, o *hamiltonian.Options) { o.AnnihilationCoupling = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys, opts := h, hamiltonian.DefaultOptions()
			tt.mod(&sys, &opts)
			_, err := hamiltonian.Build(sys, engineFor(h), opts)
			var cfg *hamiltonian.ConfigurationError
			assert.True(t, errors.As(err, &cfg), "got %v", err)
		})
	}

	// two electrons fit in one spatial orbital
	sys := h
	sys.Electrons = 2
	_, err = hamiltonian.Build(sys, engineFor(h), hamiltonian.DefaultOptions())
	assert.NoError(t, err)
}

func TestPositronSeesRepulsiveNuclei(t *testing.T) {
	const alpha = 0.3
	sys, err := molecule.PositronicHydride([]float64{alpha}, []float64{alpha})
	require.NoError(t, err)
	m, err := hamiltonian.Build(sys, engineFor(sys), hamiltonian.DefaultOptions())
	require.NoError(t, err)

	e, p := m.Block(basis.Electron), m.Block(basis.Positron)
	require.NotNil(t, e)
	require.NotNil(t, p)
	assert.Equal(t, basis.Both, m.Species)
	assert.Equal(t, 2, e.Particles)
	assert.Equal(t, 1, p.Particles)

	nuc := -2 * math.Sqrt(2*alpha/math.Pi)
	assert.InDelta(t, nuc, e.V.At(0, 0), 1e-12)
	assert.InDelta(t, -nuc, p.V.At(0, 0), 1e-12)
	assert.InDelta(t, e.T.At(0, 0), p.T.At(0, 0), 1e-15)
	assert.InDelta(t, 1.5*alpha-nuc, p.HCore.At(0, 0), 1e-12)
	assert.Empty(t, p.Corrections)
}

func TestCouplings(t *testing.T) {
	const alpha, beta = 0.3, 0.2
	sys, err := molecule.Positronium(alpha, beta)
	require.NoError(t, err)

	m, err := hamiltonian.Build(sys, engineFor(sys), hamiltonian.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, m.Couplings, 1)
	assert.Nil(t, m.Coupling(hamiltonian.Annihilation))
	assert.Zero(t, m.NuclearRepulsion)

	coul := 2 / math.Sqrt(math.Pi) * math.Sqrt(2*alpha*beta/(alpha+beta))
	attr := m.Coupling(hamiltonian.Attraction)
	require.NotNil(t, attr)
	require.Equal(t, 1, attr.Tensor.Len())
	assert.InDelta(t, -coul, attr.Tensor.Val[0], 1e-12)

	opts := hamiltonian.DefaultOptions()
	opts.IncludeAnnihilation = true
	opts.AnnihilationCoupling = 0.5
	m, err = hamiltonian.Build(sys, engineFor(sys), opts)
	require.NoError(t, err)
	require.Len(t, m.Couplings, 2)
	ann := m.Coupling(hamiltonian.Annihilation)
	require.NotNil(t, ann)
	contact := math.Pow(2*alpha*beta/(math.Pi*(alpha+beta)), 1.5)
	assert.InDelta(t, -0.5*contact, ann.Tensor.Val[0], 1e-12)
	assert.True(t, m.IncludeAnnihilation)
	assert.Equal(t, 0.5, m.AnnihilationCoupling)
}

func TestDefaultAnnihilationCoupling(t *testing.T) {
	assert.InDelta(t, math.Pi/(137.035999084*137.035999084), hamiltonian.DefaultAnnihilationCoupling, 1e-18)
	m, err := hamiltonian.Build(mustPositronium(t), engineFor(mustPositronium(t)), hamiltonian.Options{})
	require.NoError(t, err)
	assert.Equal(t, hamiltonian.DefaultAnnihilationCoupling, m.AnnihilationCoupling)
}

func mustPositronium(t *testing.T) hamiltonian.System {
	sys, err := molecule.Positronium(0.3, 0.2)
	require.NoError(t, err)
	return sys
}

func TestPositronExchangeScale(t *testing.T) {
	sys := mustPositronium(t)
	opts := hamiltonian.DefaultOptions()
	m, err := hamiltonian.Build(sys, engineFor(sys), opts)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Block(basis.Positron).ExchangeScale)

	opts.DisablePositronExchange = true
	m, err = hamiltonian.Build(sys, engineFor(sys), opts)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.Block(basis.Positron).ExchangeScale)
	assert.Equal(t, 1.0, m.Block(basis.Electron).ExchangeScale)
}

func TestRelativisticCorrections(t *testing.T) {
	const alpha = 0.4
	c2 := hamiltonian.SpeedOfLight * hamiltonian.SpeedOfLight
	sys, err := molecule.PositronicHydride([]float64{alpha}, []float64{alpha})
	require.NoError(t, err)
	opts := hamiltonian.DefaultOptions()
	opts.IncludeRelativistic = true
	m, err := hamiltonian.Build(sys, engineFor(sys), opts)
	require.NoError(t, err)
	assert.True(t, m.IncludeRelativistic)

	mv := -15 * alpha * alpha / (8 * c2)
	dw := math.Pi / (2 * c2) * math.Pow(2*alpha/math.Pi, 1.5)
	for _, sp := range basis.AllSpecies {
		blk := m.Block(sp)
		require.Len(t, blk.Corrections, 2)
		assert.Equal(t, hamiltonian.MassVelocity, blk.Corrections[0].Name)
		assert.Equal(t, hamiltonian.Darwin, blk.Corrections[1].Name)
		assert.InDelta(t, mv, blk.Corrections[0].Matrix.At(0, 0), 1e-14, sp.String())
		// the contact term with the nucleus changes sign with the charge
		wantDw := dw
		if sp == basis.Positron {
			wantDw = -dw
		}
		assert.InDelta(t, wantDw, blk.Corrections[1].Matrix.At(0, 0), 1e-14, sp.String())

		var want mat.SymDense
		want.AddSym(blk.T, blk.V)
		assert.InDelta(t, want.At(0, 0)+mv+wantDw, blk.HCore.At(0, 0), 1e-14)
	}
}

func TestIntegralUnavailable(t *testing.T) {
	sys, err := molecule.HydrogenMolecule(1.4, "sto-3g")
	require.NoError(t, err)
	boom := errors.New("boom")

	p := engineFor(sys)
	p.fail, p.err = integrals.Coulomb, boom
	_, err = hamiltonian.Build(sys, p, hamiltonian.DefaultOptions())
	var iu *hamiltonian.IntegralUnavailableError
	require.True(t, errors.As(err, &iu), "got %v", err)
	assert.Equal(t, integrals.Coulomb, iu.Key.Kind)
	assert.ErrorIs(t, err, boom)

	p = engineFor(sys)
	p.fail, p.nan = integrals.Kinetic, true
	_, err = hamiltonian.Build(sys, p, hamiltonian.DefaultOptions())
	require.True(t, errors.As(err, &iu), "got %v", err)
	assert.Equal(t, integrals.Kinetic, iu.Key.Kind)
}

func TestSameSpeciesTwoBody(t *testing.T) {
	sys, err := molecule.HydrogenMolecule(1.4, "sto-3g")
	require.NoError(t, err)
	m, err := hamiltonian.Build(sys, engineFor(sys), hamiltonian.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, basis.ElectronOnly, m.Species)
	assert.Empty(t, m.Couplings)
	assert.Nil(t, m.Block(basis.Positron))
	// 3 bra pairs x 3 ket pairs, none screened
	assert.Equal(t, 9, m.Block(basis.Electron).TwoBody.Len())
	assert.InDelta(t, 1/1.4, m.NuclearRepulsion, 1e-14)
	assert.Equal(t, []basis.Species{basis.Electron}, m.Active())
}
