// errors.go --  This file is part of goHF project.
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
	"errors"
	"fmt"

	"example.com/gohf/internal/basis"
)

// NumericInstabilityError ends a run in the Diverged state.
type NumericInstabilityError struct {
	Iteration int
	Species   basis.Species
	Reason    string
}

func (e *NumericInstabilityError) Error() string {
	return fmt.Sprintf("numeric instability at iteration %d (%v): %s", e.Iteration, e.Species, e.Reason)
}

// ErrBadGuess is returned when an initial guess does not match the basis.
var ErrBadGuess = errors.New("initial guess does not match the basis")
