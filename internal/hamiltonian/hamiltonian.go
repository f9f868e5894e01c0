// hamiltonian.go --  This file is part of goHF project.
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

// Package hamiltonian assembles the per-species core Hamiltonians, the
// same-species two-body lists and the cross-species couplings that the SCF
// solver consumes.
package hamiltonian

import (
	"math"
	"runtime"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"example.com/gohf/internal/basis"
)

const (
	// SpeedOfLight in atomic units.
	SpeedOfLight = 137.035999084
	// DefaultAnnihilationCoupling is pi/c^2, the contact strength of the
	// electron-positron annihilation term in atomic units.
	DefaultAnnihilationCoupling = math.Pi / (SpeedOfLight * SpeedOfLight)
	// DefaultScreening drops two-body values smaller in magnitude.
	DefaultScreening = 1e-14
)

// Coupling names.
const (
	Attraction   = "attraction"
	Annihilation = "annihilation"
)

// Correction names.
const (
	MassVelocity = "mass-velocity"
	Darwin       = "darwin"
)

// System is the input of one calculation.
type System struct {
	Basis     *basis.Set
	Nuclei    []basis.Nucleus
	Electrons int
	Positrons int
}

func (s System) Particles(sp basis.Species) int {
	if sp == basis.Positron {
		return s.Positrons
	}
	return s.Electrons
}

// Options select the optional terms. Annihilation and relativistic terms
// apply only when both species are present; annihilation on a positron-only
// basis is a ConfigurationError.
type Options struct {
	IncludeAnnihilation bool
	IncludeRelativistic bool
	// AnnihilationCoupling scales the contact term; zero means
	// DefaultAnnihilationCoupling.
	AnnihilationCoupling float64
	// DisablePositronExchange drops the positron-positron exchange term.
	DisablePositronExchange bool
	// Screening threshold for two-body values; zero means DefaultScreening.
	Screening float64
	// Workers bounds concurrent integral requests; zero means GOMAXPROCS.
	Workers int
	Logger  *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		AnnihilationCoupling: DefaultAnnihilationCoupling,
		Screening:            DefaultScreening,
		Workers:              runtime.GOMAXPROCS(0),
	}
}

func (o Options) withDefaults() Options {
	if o.AnnihilationCoupling == 0 {
		o.AnnihilationCoupling = DefaultAnnihilationCoupling
	}
	if o.Screening <= 0 {
		o.Screening = DefaultScreening
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Correction is a one-time additive contribution already folded into HCore.
type Correction struct {
	Name   string
	Matrix *mat.SymDense
}

// Block holds everything owned by one present species.
type Block struct {
	Species   basis.Species
	N         int
	Particles int

	S, T, V *mat.SymDense
	// HCore = T + V + sum of Corrections, with V in this species' sign.
	HCore       *mat.SymDense
	Corrections []Correction

	TwoBody *TwoBody
	// ExchangeScale multiplies the same-species exchange term.
	ExchangeScale float64
}

// Coupling is a two-body interaction between the electron pair (bra) and the
// positron pair (ket). Each species' Fock matrix receives the contraction of
// Tensor with the other species' density; the solver sums couplings without
// knowing which are present.
type Coupling struct {
	Name   string
	Tensor *TwoBody
}

// Matrices is the immutable output of Build.
type Matrices struct {
	Species   basis.SpeciesSet
	Blocks    map[basis.Species]*Block
	Couplings []Coupling

	NuclearRepulsion float64

	IncludeAnnihilation  bool
	IncludeRelativistic  bool
	AnnihilationCoupling float64
}

func (m *Matrices) Block(sp basis.Species) *Block { return m.Blocks[sp] }

// Active lists present species in canonical order.
func (m *Matrices) Active() []basis.Species { return m.Species.Active() }

func (m *Matrices) Coupling(name string) *Coupling {
	for i := range m.Couplings {
		if m.Couplings[i].Name == name {
			return &m.Couplings[i]
		}
	}
	return nil
}
