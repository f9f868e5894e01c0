// set.go --  This file is part of goHF project.
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
package basis

import "fmt"

// Set is the ordered basis of one calculation. Indices are contiguous per
// species and stable for the lifetime of the Set.
type Set struct {
	electron []Function
	positron []Function
}

// NewSet checks that every function sits in the list of its own species.
func NewSet(electron, positron []Function) (*Set, error) {
	for i, f := range electron {
		if f.Species() != Electron {
			return nil, fmt.Errorf("electron basis function %d is tagged %v", i, f.Species())
		}
	}
	for i, f := range positron {
		if f.Species() != Positron {
			return nil, fmt.Errorf("positron basis function %d is tagged %v", i, f.Species())
		}
	}
	s := &Set{
		electron: make([]Function, len(electron)),
		positron: make([]Function, len(positron)),
	}
	copy(s.electron, electron)
	copy(s.positron, positron)
	return s, nil
}

func (s *Set) NElectronBasis() int { return len(s.electron) }
func (s *Set) NPositronBasis() int { return len(s.positron) }
func (s *Set) NTotalBasis() int { return len(s.electron) + len(s.positron) }

// N is the basis size of one species.
func (s *Set) N(sp Species) int {
	if sp == Positron {
		return len(s.positron)
	}
	return len(s.electron)
}

func (s *Set) Functions(sp Species) []Function {
	src := s.electron
	if sp == Positron {
		src = s.positron
	}
	res := make([]Function, len(src))
	copy(res, src)
	return res
}

func (s *Set) Function(sp Species, i int) Function {
	if sp == Positron {
		return s.positron[i]
	}
	return s.electron[i]
}

// Global maps a per-species index into the concatenated ordering, electrons
// first.
func (s *Set) Global(sp Species, i int) int {
	if sp == Positron {
		return len(s.electron) + i
	}
	return i
}

// Local is the inverse of Global.
func (s *Set) Local(g int) (Species, int) {
	if g >= len(s.electron) {
		return Positron, g - len(s.electron)
	}
	return Electron, g
}

// Species resolves which species are structurally present.
func (s *Set) Species() SpeciesSet {
	switch {
	case len(s.electron) > 0 && len(s.positron) > 0:
		return Both
	case len(s.electron) > 0:
		return ElectronOnly
	case len(s.positron) > 0:
		return PositronOnly
	}
	return None
}
