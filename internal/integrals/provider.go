// provider.go --  This file is part of goHF project.
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

// Package integrals defines how the Hamiltonian builder queries one- and
// two-body integrals, and provides an analytic engine for s-type Gaussians
// plus a shared cache in front of any engine.
package integrals

import (
	"errors"
	"fmt"

	"example.com/gohf/internal/basis"
)

// Kind selects an integral operator.
type Kind int

const (
	// Overlap <i|j>.
	Overlap Kind = iota
	// Kinetic <i|-1/2 nabla^2|j>.
	Kinetic
	// Nuclear is the nuclear attraction in electron sign convention,
	// sum_A -Z_A <i|1/r_A|j>.
	Nuclear
	// Coulomb (ij|kl), positive; bra pair and ket pair may be different species.
	Coulomb
	// Annihilation is the contact overlap integral of an electron pair and a
	// positron pair, int phi_i phi_j phi_k phi_l.
	Annihilation
	// MassVelocity <nabla^2 i|nabla^2 j>.
	MassVelocity
	// Darwin sum_A Z_A phi_i(R_A) phi_j(R_A).
	Darwin
)

var kindNames = []string{"overlap", "kinetic", "nuclear", "coulomb", "annihilation", "mass-velocity", "darwin"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// TwoBody reports whether the kind takes four indices.
func (k Kind) TwoBody() bool {
	return k == Coulomb || k == Annihilation
}

// Key addresses one integral. One-body kinds use Bra, I and J; Ket must equal
// Bra. Two-body kinds address (I J | K L) with I, J in the Bra species and K, L
// in the Ket species.
type Key struct {
	Kind       Kind
	Bra, Ket   basis.Species
	I, J, K, L int
}

// OneBody builds a one-body key.
func OneBody(kind Kind, sp basis.Species, i, j int) Key {
	return Key{Kind: kind, Bra: sp, Ket: sp, I: i, J: j}
}

// TwoBodyKey builds a (ij|kl) key.
func TwoBodyKey(kind Kind, bra, ket basis.Species, i, j, k, l int) Key {
	return Key{Kind: kind, Bra: bra, Ket: ket, I: i, J: j, K: k, L: l}
}

// Canonical folds the key onto one representative of its permutation class,
// so that symmetric integrals share a cache entry.
func (k Key) Canonical() Key {
	if k.I > k.J {
		k.I, k.J = k.J, k.I
	}
	if !k.Kind.TwoBody() {
		k.K, k.L = 0, 0
		return k
	}
	if k.K > k.L {
		k.K, k.L = k.L, k.K
	}
	swap := false
	switch {
	case k.Bra != k.Ket:
		swap = k.Bra == basis.Positron
	default:
		swap = k.K < k.I || (k.K == k.I && k.L < k.J)
	}
	if swap {
		k.Bra, k.Ket = k.Ket, k.Bra
		k.I, k.J, k.K, k.L = k.K, k.L, k.I, k.J
	}
	return k
}

func (k Key) String() string {
	if k.Kind.TwoBody() {
		return fmt.Sprintf("%v(%v %d %d|%v %d %d)", k.Kind, k.Bra, k.I, k.J, k.Ket, k.K, k.L)
	}
	return fmt.Sprintf("%v(%v %d %d)", k.Kind, k.Bra, k.I, k.J)
}

// Provider supplies integral values. Implementations must be safe for
// concurrent use.
type Provider interface {
	Integral(k Key) (float64, error)
}

var (
	// ErrUnsupported is returned for a kind the provider cannot or will not
	// evaluate for the requested species combination.
	ErrUnsupported = errors.New("integral kind not supported for species combination")
	// ErrAngularMomentum is returned for functions beyond s-type.
	ErrAngularMomentum = errors.New("angular momentum not supported")
	// ErrIndex is returned for an index outside the species basis.
	ErrIndex = errors.New("basis index out of range")
)
