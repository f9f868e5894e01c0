// solver.go --  This file is part of goHF project.
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

// Package scf iterates the coupled electron and positron Hartree-Fock
// equations to self-consistency with Pulay DIIS.
package scf

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"example.com/gohf/internal/basis"
	"example.com/gohf/internal/hamiltonian"
)

// Solver runs SCF calculations. It holds no per-run state and may be shared.
type Solver struct {
	opts Options
	log  *zap.Logger
}

func New(opts Options) (*Solver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	return &Solver{opts: opts, log: opts.Logger}, nil
}

func (s *Solver) Options() Options { return s.opts }

// Solve starts from the core Hamiltonian guess.
func (s *Solver) Solve(m *hamiltonian.Matrices) (*Result, error) {
	return s.SolveFrom(m, nil)
}

// SolveFrom starts from g, or from the core guess when g is nil. Reaching
// MaxIterations is not an error: the result has Converged false.
func (s *Solver) SolveFrom(m *hamiltonian.Matrices, g *Guess) (*Result, error) {
	if m == nil || len(m.Blocks) == 0 {
		return nil, errors.New("no Hamiltonian blocks to solve")
	}
	tstart := time.Now()
	r := &run{
		opts:   s.opts,
		m:      m,
		states: make(map[basis.Species]*speciesState),
		res: &Result{
			RunID:    uuid.NewString(),
			Status:   Initialized,
			Orbitals: make(map[basis.Species]*Orbitals),
			Matrices: m,
		},
	}
	r.log = s.log.With(zap.String("run_id", r.res.RunID))
	if s.opts.UseDIIS {
		r.diis = newDIIS(s.opts.DIISHistorySize)
	}

	if err := r.init(g); err != nil {
		var ni *NumericInstabilityError
		if errors.As(err, &ni) {
			return r.fail(err)
		}
		return nil, err
	}
	r.log.Info("SCF started",
		zap.Stringer("species", m.Species),
		zap.Float64("initial_energy", r.energy.Total),
		zap.Bool("diis", s.opts.UseDIIS),
		zap.Int("max_iterations", s.opts.MaxIterations))

	r.res.Status = Iterating
	for it := 1; it <= s.opts.MaxIterations; it++ {
		rec, err := r.step(it)
		if err != nil {
			return r.fail(err)
		}
		r.res.History = append(r.res.History, rec)
		r.res.Iterations = it
		r.log.Debug("SCF iteration",
			zap.Int("iteration", it),
			zap.Float64("energy", rec.Energy),
			zap.Float64("dE", rec.EnergyChange),
			zap.Float64("dRMS", rec.DensityRMS),
			zap.Float64("error_rms", rec.ErrorRMS),
			zap.Int("diis_size", rec.DIISSize),
			zap.Bool("fallback", rec.Fallback))
		if math.Abs(rec.EnergyChange) < s.opts.ConvergenceThreshold && rec.DensityRMS < s.opts.DensityThreshold {
			r.res.Status = Converged
			r.res.Converged = true
			break
		}
	}
	if !r.res.Converged {
		r.res.Status = MaxIterReached
	}
	r.finish()

	fields := []zap.Field{
		zap.Stringer("status", r.res.Status),
		zap.Int("iterations", r.res.Iterations),
		zap.Float64("energy", r.res.Energy.Total),
		zap.Float64("dE", r.res.EnergyChange),
		zap.Float64("dRMS", r.res.DensityChange),
		zap.Duration("elapsed", time.Since(tstart)),
	}
	if r.res.Converged {
		r.log.Info("SCF converged", fields...)
	} else {
		r.log.Warn("SCF not converged", fields...)
	}
	return r.res, nil
}

// speciesState is the per-species iteration state. A species with no
// particles is frozen: its densities stay zero and it gets no Fock update.
type speciesState struct {
	sp   basis.Species
	blk  *hamiltonian.Block
	orth *orthogonalizer

	nAlpha, nBeta int
	occ           []float64
	frozen        bool

	C   *mat.Dense
	eps []float64
	// D is the total density; Da and Db are the exchange densities of the
	// doubly and singly occupied shells.
	D, Da, Db *mat.Dense

	// Fock matrix of D and its pieces.
	F      *mat.Dense
	J      *mat.Dense
	Ka, Kb *mat.Dense
	cross  map[string]*mat.Dense
}

func newSpeciesState(blk *hamiltonian.Block, opts Options) (*speciesState, error) {
	orth, err := newOrthogonalizer(blk.S, opts.LinearDependence)
	if err != nil {
		return nil, &NumericInstabilityError{Species: blk.Species, Reason: err.Error()}
	}
	st := &speciesState{
		sp:     blk.Species,
		blk:    blk,
		orth:   orth,
		nAlpha: (blk.Particles + 1) / 2,
		nBeta:  blk.Particles / 2,
		frozen: blk.Particles == 0,
	}
	if st.nAlpha > orth.M() {
		return nil, &NumericInstabilityError{Species: blk.Species,
			Reason: fmt.Sprintf("%d orbitals needed but only %d are linearly independent", st.nAlpha, orth.M())}
	}
	st.occ = make([]float64, orth.M())
	for k := 0; k < st.nAlpha; k++ {
		st.occ[k] = 1
		if k < st.nBeta {
			st.occ[k] = 2
		}
	}
	return st, nil
}

func ones(n int) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = 1
	}
	return res
}

func (st *speciesState) setOrbitals(C *mat.Dense, eps []float64) {
	st.C, st.eps = C, eps
	st.D = density(C, st.occ)
	st.Da = density(C, ones(st.nAlpha))
	st.Db = density(C, ones(st.nBeta))
}

// mix replaces the densities by (1-w) new + w old.
func (st *speciesState) mix(w float64, D, Da, Db *mat.Dense) {
	lin := func(cur, old *mat.Dense) *mat.Dense {
		var res mat.Dense
		res.Scale(1-w, cur)
		res.Add(&res, scaled(w, old))
		return &res
	}
	st.D, st.Da, st.Db = lin(st.D, D), lin(st.Da, Da), lin(st.Db, Db)
}

func (st *speciesState) applyGuess(g *Guess) error {
	n := st.blk.N
	if c := g.Coefficients[st.sp]; c != nil {
		r, cols := c.Dims()
		if r != n || cols < st.nAlpha || cols > st.orth.M() {
			return fmt.Errorf("%w: %v coefficients are %dx%d, need %d rows and %d to %d columns",
				ErrBadGuess, st.sp, r, cols, n, st.nAlpha, st.orth.M())
		}
		C := mat.NewDense(n, st.orth.M(), nil)
		C.Copy(c)
		st.setOrbitals(C, st.eps)
		return nil
	}
	if d := g.Densities[st.sp]; d != nil {
		r, c := d.Dims()
		if r != n || c != n {
			return fmt.Errorf("%w: %v density is %dx%d, need %dx%d", ErrBadGuess, st.sp, r, c, n, n)
		}
		if !finite(d) {
			return fmt.Errorf("%w: %v density is not finite", ErrBadGuess, st.sp)
		}
		// the most occupied natural orbitals carry the exchange densities
		nat, _, err := st.orth.naturalOrbitals(d, st.blk.S)
		if err != nil {
			return fmt.Errorf("%w: %v: %v", ErrBadGuess, st.sp, err)
		}
		st.D = mat.DenseCopyOf(d)
		st.Da = density(nat, ones(st.nAlpha))
		st.Db = density(nat, ones(st.nBeta))
	}
	return nil
}

type run struct {
	opts   Options
	log    *zap.Logger
	m      *hamiltonian.Matrices
	states map[basis.Species]*speciesState
	order  []*speciesState
	diis   *diis
	iter   int
	energy Energy
	res    *Result
}

func (r *run) init(g *Guess) error {
	for _, sp := range r.m.Active() {
		blk := r.m.Block(sp)
		if blk == nil {
			return fmt.Errorf("no Hamiltonian block for %v", sp)
		}
		st, err := newSpeciesState(blk, r.opts)
		if err != nil {
			return err
		}
		C, eps, err := st.orth.diagonalize(blk.HCore)
		if err != nil {
			return &NumericInstabilityError{Species: sp, Reason: err.Error()}
		}
		st.setOrbitals(C, eps)
		if g != nil && !st.frozen {
			if err := st.applyGuess(g); err != nil {
				return err
			}
		}
		r.states[sp] = st
		r.order = append(r.order, st)
		r.log.Debug("species initialized",
			zap.Stringer("species", sp),
			zap.Int("n_basis", blk.N),
			zap.Int("n_orbitals", st.orth.M()),
			zap.Bool("canonical", st.orth.Canonical),
			zap.Float64("min_overlap_eigenvalue", st.orth.MinEig),
			zap.Bool("frozen", st.frozen))
	}
	if err := r.buildFocks(); err != nil {
		return err
	}
	return r.updateEnergy()
}

// buildFocks rebuilds every live Fock matrix concurrently. All builds read
// the densities of the same iteration.
func (r *run) buildFocks() error {
	var g errgroup.Group
	for _, st := range r.order {
		if st.frozen {
			continue
		}
		st := st
		g.Go(func() error { return r.fock(st) })
	}
	return g.Wait()
}

// fock computes F = H + J[D] - s K[Da] + sum_c C[D_partner].
func (r *run) fock(st *speciesState) error {
	blk := st.blk
	n, w := blk.N, r.opts.Workers

	J := mat.NewDense(n, n, nil)
	blk.TwoBody.ContractKet(st.D, J, w)
	F := mat.DenseCopyOf(blk.HCore)
	F.Add(F, J)

	var Ka, Kb *mat.Dense
	if blk.ExchangeScale != 0 {
		Ka = mat.NewDense(n, n, nil)
		blk.TwoBody.Exchange(st.Da, Ka, w)
		F.Add(F, scaled(-blk.ExchangeScale, Ka))
		switch {
		case st.nBeta == st.nAlpha:
			Kb = Ka
		case st.nBeta > 0:
			Kb = mat.NewDense(n, n, nil)
			blk.TwoBody.Exchange(st.Db, Kb, w)
		}
	}

	cross := make(map[string]*mat.Dense)
	if partner := r.states[st.sp.Partner()]; partner != nil {
		for _, c := range r.m.Couplings {
			X := mat.NewDense(n, n, nil)
			if st.sp == basis.Electron {
				c.Tensor.ContractKet(partner.D, X, w)
			} else {
				c.Tensor.ContractBra(partner.D, X, w)
			}
			F.Add(F, X)
			cross[c.Name] = X
		}
	}
	if !finite(F) {
		return &NumericInstabilityError{Iteration: r.iter, Species: st.sp, Reason: "Fock matrix is not finite"}
	}
	st.F, st.J, st.Ka, st.Kb, st.cross = F, J, Ka, Kb, cross
	return nil
}

func (r *run) updateEnergy() error {
	e := Energy{
		NuclearRepulsion: r.m.NuclearRepulsion,
		Species:          make(map[basis.Species]SpeciesEnergy),
		Couplings:        make(map[string]float64),
	}
	e.Total = e.NuclearRepulsion
	for _, st := range r.order {
		se := SpeciesEnergy{Corrections: make(map[string]float64)}
		if !st.frozen {
			blk := st.blk
			se.Kinetic = traceProduct(st.D, blk.T)
			se.Potential = traceProduct(st.D, blk.V)
			se.OneBody = traceProduct(st.D, blk.HCore)
			for _, c := range blk.Corrections {
				se.Corrections[c.Name] = traceProduct(st.D, c.Matrix)
			}
			se.Coulomb = 0.5 * traceProduct(st.D, st.J)
			if st.Ka != nil {
				ex := traceProduct(st.Da, st.Ka)
				if st.Kb != nil {
					ex += traceProduct(st.Db, st.Kb)
				}
				se.Exchange = -0.5 * blk.ExchangeScale * ex
			}
		}
		e.Species[st.sp] = se
		e.Total += se.Total()
	}
	el := r.states[basis.Electron]
	for _, c := range r.m.Couplings {
		v := 0.0
		if el != nil && !el.frozen {
			v = traceProduct(el.D, el.cross[c.Name])
		}
		e.Couplings[c.Name] = v
		e.Total += v
	}
	if math.IsNaN(e.Total) || math.IsInf(e.Total, 0) {
		return &NumericInstabilityError{Iteration: r.iter, Reason: "energy is not finite"}
	}
	r.energy = e
	return nil
}

// live lists the species that take part in the iteration.
func (r *run) live() []*speciesState {
	var res []*speciesState
	for _, st := range r.order {
		if !st.frozen {
			res = append(res, st)
		}
	}
	return res
}

// step performs one iteration: extrapolate, diagonalize, rebuild the Fock
// matrices from the new densities and evaluate the energy.
func (r *run) step(it int) (Iteration, error) {
	r.iter = it
	rec := Iteration{N: it}
	prev := r.energy.Total
	live := r.live()

	focks := make([]*mat.Dense, len(live))
	resids := make([]*mat.Dense, len(live))
	for k, st := range live {
		focks[k] = st.F
		resids[k] = commutator(st.orth, st.F, st.D, st.blk.S)
		rec.ErrorRMS = math.Max(rec.ErrorRMS, rms(resids[k]))
	}

	w := r.opts.Damping
	if r.diis != nil {
		w = 0
		r.diis.push(focks, resids)
		if r.diis.Len() >= 2 {
			if fx, ok := r.diis.extrapolate(); ok {
				focks = fx
			} else {
				w = FallbackMixing
				rec.Fallback = true
				r.log.Debug("DIIS extrapolation failed, mixing densities", zap.Int("iteration", it))
			}
		}
		rec.DIISSize = r.diis.Len()
	}

	for k, st := range live {
		C, eps, err := st.orth.diagonalize(focks[k])
		if err != nil {
			return rec, &NumericInstabilityError{Iteration: it, Species: st.sp, Reason: err.Error()}
		}
		D, Da, Db := st.D, st.Da, st.Db
		st.setOrbitals(C, eps)
		if w > 0 {
			st.mix(w, D, Da, Db)
		}
		var diff mat.Dense
		diff.Sub(st.D, D)
		rec.DensityRMS = math.Max(rec.DensityRMS, rms(&diff))
	}
	if err := r.buildFocks(); err != nil {
		return rec, err
	}
	if err := r.updateEnergy(); err != nil {
		return rec, err
	}
	rec.Energy = r.energy.Total
	rec.EnergyChange = rec.Energy - prev
	return rec, nil
}

func (r *run) finish() {
	res := r.res
	res.Energy = r.energy
	if n := len(res.History); n > 0 {
		res.EnergyChange = res.History[n-1].EnergyChange
		res.DensityChange = res.History[n-1].DensityRMS
	}
	for _, st := range r.order {
		if !st.frozen {
			res.ErrorRMS = math.Max(res.ErrorRMS, rms(commutator(st.orth, st.F, st.D, st.blk.S)))
		}
		res.Orbitals[st.sp] = &Orbitals{
			Energies:     append([]float64(nil), st.eps...),
			Coefficients: mat.DenseCopyOf(st.C),
			Occupations:  append([]float64(nil), st.occ...),
			Density:      mat.DenseCopyOf(st.D),
		}
	}
}

func (r *run) fail(err error) (*Result, error) {
	r.res.Status = Diverged
	r.log.Error("SCF failed",
		zap.Stringer("status", r.res.Status),
		zap.Int("iteration", r.iter),
		zap.Error(err))
	return nil, err
}
