// basis.go --  This file is part of goHF project.
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

// Package basis holds the ordered per-species catalog of Gaussian basis
// functions used by the integral engine, the Hamiltonian builder and the
// SCF solver.
package basis

import (
	"errors"
	"fmt"
	"math"
)

// Species tags a basis function or a particle kind.
type Species int

const (
	Electron Species = iota
	Positron
)

// AllSpecies lists every species in canonical order.
var AllSpecies = []Species{Electron, Positron}

func (s Species) String() string {
	switch s {
	case Electron:
		return "electron"
	case Positron:
		return "positron"
	}
	return fmt.Sprintf("species(%d)", int(s))
}

// Charge is the particle charge in atomic units.
func (s Species) Charge() float64 {
	if s == Positron {
		return 1
	}
	return -1
}

// Partner returns the other species.
func (s Species) Partner() Species {
	if s == Electron {
		return Positron
	}
	return Electron
}

// ParseSpecies accepts "electron"/"e"/"e-" and "positron"/"p"/"e+".
func ParseSpecies(name string) (Species, error) {
	switch name {
	case "electron", "electrons", "e", "e-":
		return Electron, nil
	case "positron", "positrons", "p", "e+":
		return Positron, nil
	}
	return 0, fmt.Errorf("unknown species %q", name)
}

// SpeciesSet says which species have a non-empty basis.
type SpeciesSet int

const (
	None SpeciesSet = iota
	ElectronOnly
	PositronOnly
	Both
)

func (s SpeciesSet) String() string {
	switch s {
	case ElectronOnly:
		return "electron-only"
	case PositronOnly:
		return "positron-only"
	case Both:
		return "electron+positron"
	}
	return "empty"
}

// Has reports whether sp is present.
func (s SpeciesSet) Has(sp Species) bool {
	switch s {
	case Both:
		return true
	case ElectronOnly:
		return sp == Electron
	case PositronOnly:
		return sp == Positron
	}
	return false
}

// Active returns the present species in canonical order.
func (s SpeciesSet) Active() []Species {
	var res []Species
	for _, sp := range AllSpecies {
		if s.Has(sp) {
			res = append(res, sp)
		}
	}
	return res
}

// Primitive is one (exponent, contraction coefficient) pair. The coefficient
// multiplies a normalized primitive.
type Primitive struct {
	Exponent    float64
	Coefficient float64
}

// NormCoeff is the normalization constant of an s-type primitive.
func (p Primitive) NormCoeff() float64 {
	return math.Pow((2 * p.Exponent / math.Pi), 0.75)
}

// Function is a contracted Cartesian Gaussian. Values are immutable once
// built by NewFunction; accessors hand out copies.
type Function struct {
	species    Species
	center     [3]float64
	l          [3]int
	primitives []Primitive
}

var (
	ErrNoPrimitives = errors.New("basis function has no primitives")
	ErrBadExponent  = errors.New("gaussian exponent must be positive and finite")
)

func NewFunction(sp Species, center [3]float64, l [3]int, prims ...Primitive) (Function, error) {
	if len(prims) == 0 {
		return Function{}, ErrNoPrimitives
	}
	for _, p := range prims {
		if !(p.Exponent > 0) || math.IsInf(p.Exponent, 0) || math.IsNaN(p.Coefficient) {
			return Function{}, fmt.Errorf("%w: %v", ErrBadExponent, p.Exponent)
		}
	}
	for _, v := range l {
		if v < 0 {
			return Function{}, fmt.Errorf("negative angular momentum %v", l)
		}
	}
	cp := make([]Primitive, len(prims))
	copy(cp, prims)
	return Function{species: sp, center: center, l: l, primitives: cp}, nil
}

// S is a shorthand for an s-type function.
func S(sp Species, center [3]float64, prims ...Primitive) (Function, error) {
	return NewFunction(sp, center, [3]int{}, prims...)
}

func (f Function) Species() Species { return f.species }
func (f Function) Center() [3]float64 { return f.center }
func (f Function) L() [3]int { return f.l }
func (f Function) AngularMomentum() int { return f.l[0] + f.l[1] + f.l[2] }

func (f Function) Primitives() []Primitive {
	res := make([]Primitive, len(f.primitives))
	copy(res, f.primitives)
	return res
}

// NPrims avoids the copy made by Primitives.
func (f Function) NPrims() int { return len(f.primitives) }

func (f Function) Primitive(k int) Primitive { return f.primitives[k] }

// Nucleus is a fixed point charge in bohr.
type Nucleus struct {
	Charge float64
	Center [3]float64
}

// NuclearRepulsion sums Z_a Z_b / R_ab over distinct pairs.
func NuclearRepulsion(nuclei []Nucleus) float64 {
	res := 0.0
	for i := range nuclei {
		for j := 0; j < i; j++ {
			zz := nuclei[i].Charge * nuclei[j].Charge
			if zz == 0 {
				continue
			}
			res += zz / math.Sqrt(Distance2(nuclei[i].Center, nuclei[j].Center))
		}
	}
	return res
}

// Distance2 is the squared distance between two points.
func Distance2(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dx*dx + dy*dy + dz*dz
}
