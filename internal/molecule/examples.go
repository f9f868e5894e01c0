// examples.go --  This file is part of goHF project.
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
package molecule

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"example.com/gohf/internal/basis"
	"example.com/gohf/internal/hamiltonian"
)

// Hydrogen shells in the STO-3G and 6-31G contractions.
var (
	hSTO3G = [][]basis.Primitive{{
		{Exponent: 0.3425250914e+01, Coefficient: 0.1543289673e+00},
		{Exponent: 0.6239137298e+00, Coefficient: 0.5353281423e+00},
		{Exponent: 0.1688554040e+00, Coefficient: 0.4446345422e+00},
	}}
	h631G = [][]basis.Primitive{{
		{Exponent: 0.1873113696e+02, Coefficient: 0.3349460434e-01},
		{Exponent: 0.2825394365e+01, Coefficient: 0.2347269535e+00},
		{Exponent: 0.6401216923e+00, Coefficient: 0.8137573261e+00},
	}, {
		{Exponent: 0.1612777588e+00, Coefficient: 1.0000000},
	}}
)

var hydrogenBases = map[string][][]basis.Primitive{
	"sto-3g": hSTO3G,
	"6-31g":  h631G,
}

// HydrogenBases lists the basis names accepted by HydrogenMolecule.
func HydrogenBases() []string {
	res := maps.Keys(hydrogenBases)
	slices.Sort(res)
	return res
}

func shellsAt(sp basis.Species, center [3]float64, shells [][]basis.Primitive) ([]basis.Function, error) {
	var res []basis.Function
	for _, prims := range shells {
		f, err := basis.S(sp, center, prims...)
		if err != nil {
			return nil, err
		}
		res = append(res, f)
	}
	return res, nil
}

// HydrogenMolecule places two protons dist bohr apart along x with two
// electrons in the named basis.
func HydrogenMolecule(dist float64, basisName string) (hamiltonian.System, error) {
	shells, ok := hydrogenBases[basisName]
	if !ok {
		return hamiltonian.System{}, fmt.Errorf("unknown hydrogen basis %q", basisName)
	}
	nuclei := []basis.Nucleus{
		{Charge: 1, Center: [3]float64{0.0, 0.0, 0.0}},
		{Charge: 1, Center: [3]float64{dist, 0.0, 0.0}},
	}
	var funcs []basis.Function
	for _, n := range nuclei {
		fs, err := shellsAt(basis.Electron, n.Center, shells)
		if err != nil {
			return hamiltonian.System{}, err
		}
		funcs = append(funcs, fs...)
	}
	set, err := basis.NewSet(funcs, nil)
	if err != nil {
		return hamiltonian.System{}, err
	}
	return hamiltonian.System{Basis: set, Nuclei: nuclei, Electrons: 2}, nil
}

// HydrogenAtom is one electron in a single s Gaussian of exponent alpha
// around a proton.
func HydrogenAtom(alpha float64) (hamiltonian.System, error) {
	return oneCentre(1, []float64{alpha}, nil, 1, 0)
}

// AntiHydrogen is one positron in a single s Gaussian of exponent alpha
// around an antiproton.
func AntiHydrogen(alpha float64) (hamiltonian.System, error) {
	return oneCentre(-1, nil, []float64{alpha}, 0, 1)
}

// Positronium binds one electron (exponent alpha) and one positron (exponent
// beta) sharing a ghost centre at the origin.
func Positronium(alpha, beta float64) (hamiltonian.System, error) {
	return oneCentre(0, []float64{alpha}, []float64{beta}, 1, 1)
}

// PositronicHydride is a proton with two electrons and one positron, each
// species in an even-tempered set of s Gaussians on the proton.
func PositronicHydride(eExps, pExps []float64) (hamiltonian.System, error) {
	return oneCentre(1, eExps, pExps, 2, 1)
}

// NeutralAtom places z electrons in s Gaussians around a nucleus of charge z.
func NeutralAtom(z int, exps []float64) (hamiltonian.System, error) {
	return oneCentre(float64(z), exps, nil, z, 0)
}

func oneCentre(charge float64, eExps, pExps []float64, ne, np int) (hamiltonian.System, error) {
	var sys hamiltonian.System
	center := [3]float64{}
	if charge != 0 {
		sys.Nuclei = []basis.Nucleus{{Charge: charge, Center: center}}
	}
	mk := func(sp basis.Species, exps []float64) ([]basis.Function, error) {
		var res []basis.Function
		for _, a := range exps {
			f, err := basis.S(sp, center, basis.Primitive{Exponent: a, Coefficient: 1})
			if err != nil {
				return nil, err
			}
			res = append(res, f)
		}
		return res, nil
	}
	es, err := mk(basis.Electron, eExps)
	if err != nil {
		return sys, err
	}
	ps, err := mk(basis.Positron, pExps)
	if err != nil {
		return sys, err
	}
	if sys.Basis, err = basis.NewSet(es, ps); err != nil {
		return sys, err
	}
	sys.Electrons, sys.Positrons = ne, np
	return sys, nil
}

// EvenTempered returns n exponents alpha*beta^k.
func EvenTempered(alpha, beta float64, n int) []float64 {
	res := make([]float64, n)
	for k := range res {
		res[k] = alpha
		alpha *= beta
	}
	return res
}
