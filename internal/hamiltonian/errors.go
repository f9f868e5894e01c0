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
package hamiltonian

import (
	"errors"
	"fmt"

	"example.com/gohf/internal/integrals"
)

var errNonFinite = errors.New("non-finite value")

// ConfigurationError reports contradictory flags or inputs. It is raised
// before any integral is requested and is not retryable.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// IntegralUnavailableError reports that the provider could not supply a
// required integral.
type IntegralUnavailableError struct {
	Key integrals.Key
	Err error
}

func (e *IntegralUnavailableError) Error() string {
	return fmt.Sprintf("integral unavailable: %v: %v", e.Key, e.Err)
}

func (e *IntegralUnavailableError) Unwrap() error { return e.Err }
