// elements.go --  This file is part of goHF project.
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
	"strings"

	"golang.org/x/exp/slices"
)

// a_B is the Bohr radius in angstrom.
const a_B = 0.52917720859

// Symb is indexed by nuclear charge. "X" is a ghost centre carrying basis
// functions without a nucleus.
var Symb = []string{"X",
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
}

// AtomicNumber looks up an element symbol, ignoring case.
func AtomicNumber(sym string) (int, error) {
	z := slices.IndexFunc(Symb, func(s string) bool { return strings.EqualFold(s, sym) })
	if z < 0 {
		return 0, fmt.Errorf("unknown element %q", sym)
	}
	return z, nil
}
