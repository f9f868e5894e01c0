// builder.go --  This file is part of goHF project.
// Mirzaeva Irina, 2023
//
//	goHF is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------
package hamiltonian

import (
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"example.com/gohf/internal/basis"
	"example.com/gohf/internal/integrals"
)

// Build assembles the matrices of sys from integrals supplied by p. The
// provider is only read. p must be safe for concurrent use.
func Build(sys System, p integrals.Provider, opts Options) (*Matrices, error) {
	opts = opts.withDefaults()
	if err := validate(sys, opts); err != nil {
		return nil, err
	}
	log := opts.Logger
	tstart := time.Now()

	set := sys.Basis.Species()
	// single-species systems reduce to plain Hartree-Fock
	if set != basis.Both && (opts.IncludeAnnihilation || opts.IncludeRelativistic) {
		log.Debug("optional electron-positron terms ignored",
			zap.Stringer("species", set),
			zap.Bool("annihilation", opts.IncludeAnnihilation),
			zap.Bool("relativistic", opts.IncludeRelativistic))
		opts.IncludeAnnihilation = false
		opts.IncludeRelativistic = false
	}

	b := builder{sys: sys, p: p, opts: opts}
	m := &Matrices{
		Species:              set,
		Blocks:               make(map[basis.Species]*Block),
		NuclearRepulsion:     basis.NuclearRepulsion(sys.Nuclei),
		IncludeAnnihilation:  opts.IncludeAnnihilation,
		IncludeRelativistic:  opts.IncludeRelativistic,
		AnnihilationCoupling: opts.AnnihilationCoupling,
	}

	for _, sp := range m.Species.Active() {
		blk, err := b.block(sp)
		if err != nil {
			return nil, err
		}
		m.Blocks[sp] = blk
		log.Debug("species block built",
			zap.Stringer("species", sp),
			zap.Int("n_basis", blk.N),
			zap.Int("particles", blk.Particles),
			zap.Int("two_body", blk.TwoBody.Len()))
	}

	if m.Species == basis.Both {
		attr, err := b.cross(integrals.Coulomb, -1)
		if err != nil {
			return nil, err
		}
		m.Couplings = append(m.Couplings, Coupling{Name: Attraction, Tensor: attr})
		if opts.IncludeAnnihilation {
			ann, err := b.cross(integrals.Annihilation, -opts.AnnihilationCoupling)
			if err != nil {
				return nil, err
			}
			m.Couplings = append(m.Couplings, Coupling{Name: Annihilation, Tensor: ann})
		}
	}

	log.Info("hamiltonian built",
		zap.Stringer("species", m.Species),
		zap.Int("n_total_basis", sys.Basis.NTotalBasis()),
		zap.Int("couplings", len(m.Couplings)),
		zap.Bool("annihilation", opts.IncludeAnnihilation),
		zap.Bool("relativistic", opts.IncludeRelativistic),
		zap.Float64("nuclear_repulsion", m.NuclearRepulsion),
		zap.Duration("elapsed", time.Since(tstart)))
	return m, nil
}

func validate(sys System, opts Options) error {
	if sys.Basis == nil {
		return configErrorf("no basis set")
	}
	set := sys.Basis.Species()
	if set == basis.None {
		return configErrorf("basis set is empty for both species")
	}
	if opts.IncludeAnnihilation && set == basis.PositronOnly {
		return configErrorf("annihilation requested but the basis is %v", set)
	}
	if opts.AnnihilationCoupling < 0 || math.IsNaN(opts.AnnihilationCoupling) {
		return configErrorf("annihilation coupling %v must be non-negative", opts.AnnihilationCoupling)
	}
	for _, sp := range basis.AllSpecies {
		n := sys.Particles(sp)
		if n < 0 {
			return configErrorf("negative %v count %d", sp, n)
		}
		if n > 0 && !set.Has(sp) {
			return configErrorf("%d %vs requested but the %v basis is empty", n, sp, sp)
		}
		if nalpha := (n + 1) / 2; nalpha > sys.Basis.N(sp) {
			return configErrorf("%d %vs need %d orbitals, basis has %d", n, sp, nalpha, sys.Basis.N(sp))
		}
	}
	return nil
}

type builder struct {
	sys  System
	p    integrals.Provider
	opts Options
}

func (b *builder) get(k integrals.Key) (float64, error) {
	v, err := b.p.Integral(k)
	if err != nil {
		return 0, &IntegralUnavailableError{Key: k, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &IntegralUnavailableError{Key: k, Err: errNonFinite}
	}
	return v, nil
}

// oneBody fills a symmetric matrix of kind for sp, one goroutine per row.
func (b *builder) oneBody(kind integrals.Kind, sp basis.Species) (*mat.SymDense, error) {
	n := b.sys.Basis.N(sp)
	res := mat.NewSymDense(n, nil)
	var g errgroup.Group
	g.SetLimit(b.opts.Workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			for j := 0; j <= i; j++ {
				v, err := b.get(integrals.OneBody(kind, sp, i, j))
				if err != nil {
					return err
				}
				res.SetSym(i, j, v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func (b *builder) block(sp basis.Species) (*Block, error) {
	n := b.sys.Basis.N(sp)
	blk := &Block{
		Species:       sp,
		N:             n,
		Particles:     b.sys.Particles(sp),
		ExchangeScale: 1,
	}
	if sp == basis.Positron && b.opts.DisablePositronExchange {
		blk.ExchangeScale = 0
	}

	var err error
	if blk.S, err = b.oneBody(integrals.Overlap, sp); err != nil {
		return nil, err
	}
	if blk.T, err = b.oneBody(integrals.Kinetic, sp); err != nil {
		return nil, err
	}
	if blk.V, err = b.oneBody(integrals.Nuclear, sp); err != nil {
		return nil, err
	}
	// the provider's nuclear term attracts electrons; positrons are repelled
	if sp == basis.Positron {
		blk.V.ScaleSym(-1, blk.V)
	}
	blk.HCore = mat.NewSymDense(n, nil)
	blk.HCore.AddSym(blk.T, blk.V)

	if b.opts.IncludeRelativistic {
		corr, err := b.relativistic(sp)
		if err != nil {
			return nil, err
		}
		for _, c := range corr {
			blk.HCore.AddSym(blk.HCore, c.Matrix)
		}
		blk.Corrections = corr
	}

	if blk.TwoBody, err = b.twoBody(integrals.Coulomb, sp, sp, 1); err != nil {
		return nil, err
	}
	return blk, nil
}

// relativistic returns the mass-velocity term -<p^4>/(8c^2) and the Darwin
// term (pi/2c^2) sum_A Z_A delta(r-R_A), whose sign follows the particle charge.
func (b *builder) relativistic(sp basis.Species) ([]Correction, error) {
	c2 := SpeedOfLight * SpeedOfLight
	mv, err := b.oneBody(integrals.MassVelocity, sp)
	if err != nil {
		return nil, err
	}
	mv.ScaleSym(-1/(8*c2), mv)

	dw, err := b.oneBody(integrals.Darwin, sp)
	if err != nil {
		return nil, err
	}
	dw.ScaleSym(-sp.Charge()*math.Pi/(2*c2), dw)

	return []Correction{{Name: MassVelocity, Matrix: mv}, {Name: Darwin, Matrix: dw}}, nil
}

// twoBody collects screened (ij|kl) with i >= j in bra and k >= l in ket,
// scaled by f. Rows are fetched concurrently and appended in order.
func (b *builder) twoBody(kind integrals.Kind, bra, ket basis.Species, f float64) (*TwoBody, error) {
	nb, nk := b.sys.Basis.N(bra), b.sys.Basis.N(ket)
	res := &TwoBody{NBra: nb, NKet: nk}
	rows := make([]*TwoBody, nb)
	var g errgroup.Group
	g.SetLimit(b.opts.Workers)
	for i := 0; i < nb; i++ {
		i := i
		g.Go(func() error {
			row := &TwoBody{NBra: nb, NKet: nk}
			for j := 0; j <= i; j++ {
				for k := 0; k < nk; k++ {
					for l := 0; l <= k; l++ {
						v, err := b.get(integrals.TwoBodyKey(kind, bra, ket, i, j, k, l))
						if err != nil {
							return err
						}
						if math.Abs(v) >= b.opts.Screening {
							row.add(i, j, k, l, f*v)
						}
					}
				}
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, row := range rows {
		res.Idx = append(res.Idx, row.Idx...)
		res.Val = append(res.Val, row.Val...)
	}
	return res, nil
}

func (b *builder) cross(kind integrals.Kind, f float64) (*TwoBody, error) {
	return b.twoBody(kind, basis.Electron, basis.Positron, f)
}
