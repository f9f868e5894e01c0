// result.go --  This file is part of goHF project.
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
package scf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"example.com/gohf/internal/basis"
	"example.com/gohf/internal/hamiltonian"
)

// Status is the lifecycle state of a run.
type Status int

const (
	Initialized Status = iota
	Iterating
	Converged
	MaxIterReached
	Diverged
)

var statusNames = [...]string{"initialized", "iterating", "converged", "max-iterations-reached", "diverged"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// SpeciesEnergy splits one species' electronic energy.
type SpeciesEnergy struct {
	Kinetic   float64
	Potential float64
	// Corrections holds tr(D C) per relativistic correction.
	Corrections map[string]float64
	OneBody     float64
	Coulomb     float64
	Exchange    float64
}

func (e SpeciesEnergy) Total() float64 { return e.OneBody + e.Coulomb + e.Exchange }

type Energy struct {
	Total            float64
	NuclearRepulsion float64
	Species          map[basis.Species]SpeciesEnergy
	// Couplings holds tr(D_e C[D_p]) per cross-species coupling name.
	Couplings map[string]float64
}

// Relativistic sums the correction energies of all species.
func (e Energy) Relativistic() float64 {
	res := 0.0
	for _, se := range e.Species {
		for _, v := range se.Corrections {
			res += v
		}
	}
	return res
}

// Orbitals of one species. Coefficients hold one orbital per column.
type Orbitals struct {
	Energies     []float64
	Coefficients *mat.Dense
	Occupations  []float64
	Density      *mat.Dense
}

// HOMO returns the index of the highest occupied orbital, or -1.
func (o *Orbitals) HOMO() int {
	res := -1
	for k, occ := range o.Occupations {
		if occ > 0 {
			res = k
		}
	}
	return res
}

// Iteration records one SCF step.
type Iteration struct {
	N            int
	Energy       float64
	EnergyChange float64
	DensityRMS   float64
	ErrorRMS     float64
	DIISSize     int
	// Fallback is set when DIIS could not be solved and densities were mixed.
	Fallback bool
}

type Result struct {
	RunID      string
	Status     Status
	Converged  bool
	Iterations int

	Energy        Energy
	EnergyChange  float64
	DensityChange float64
	ErrorRMS      float64

	Orbitals map[basis.Species]*Orbitals
	History  []Iteration
	Matrices *hamiltonian.Matrices
}

func (r *Result) TotalEnergy() float64 { return r.Energy.Total }

// Density returns the final density of sp, or nil if sp is absent.
func (r *Result) Density(sp basis.Species) *mat.Dense {
	if o := r.Orbitals[sp]; o != nil {
		return o.Density
	}
	return nil
}

// Guess seeds a run. Coefficients take precedence over Densities for a
// species. A density alone is split into exchange densities along its
// natural orbitals: the n_beta most occupied fill both spins and the next
// ones up to n_alpha fill alpha.
type Guess struct {
	Coefficients map[basis.Species]*mat.Dense
	Densities    map[basis.Species]*mat.Dense
}

// FromResult restarts from the orbitals of a finished run.
func FromResult(r *Result) *Guess {
	g := &Guess{
		Coefficients: make(map[basis.Species]*mat.Dense),
		Densities:    make(map[basis.Species]*mat.Dense),
	}
	for sp, o := range r.Orbitals {
		g.Coefficients[sp] = mat.DenseCopyOf(o.Coefficients)
		g.Densities[sp] = mat.DenseCopyOf(o.Density)
	}
	return g
}
