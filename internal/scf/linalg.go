// linalg.go --  This file is part of goHF project.
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
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// orthogonalizer maps the n-dimensional AO space onto m orthonormal
// combinations, X^T S X = 1.
type orthogonalizer struct {
	X         *mat.Dense // n x m
	MinEig    float64
	Canonical bool
}

// newOrthogonalizer builds S^-1/2 (Loewdin) when S is well conditioned and
// drops eigenvectors below thr otherwise (canonical).
func newOrthogonalizer(S mat.Symmetric, thr float64) (*orthogonalizer, error) {
	n := S.SymmetricDim()
	if !finite(S) {
		return nil, fmt.Errorf("overlap matrix is not finite")
	}
	var eigsym mat.EigenSym
	if ok := eigsym.Factorize(S, true); !ok {
		return nil, fmt.Errorf("S eigendecomposition failed")
	}
	var ev mat.Dense
	eigsym.VectorsTo(&ev)
	vals := eigsym.Values(nil)

	res := &orthogonalizer{MinEig: vals[0]}
	if vals[0] > thr {
		invSqrt := make([]float64, n)
		for i, v := range vals {
			invSqrt[i] = 1 / math.Sqrt(v)
		}
		var x mat.Dense
		x.Mul(&ev, mat.NewDiagDense(n, invSqrt))
		x.Mul(&x, ev.T())
		res.X = &x
		return res, nil
	}

	var keep []int
	for i, v := range vals {
		if v > thr {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("overlap matrix has no eigenvalue above %g", thr)
	}
	res.Canonical = true
	res.X = mat.NewDense(n, len(keep), nil)
	for c, i := range keep {
		s := 1 / math.Sqrt(vals[i])
		for r := 0; r < n; r++ {
			res.X.Set(r, c, ev.At(r, i)*s)
		}
	}
	return res, nil
}

// M is the number of orthonormal orbitals.
func (o *orthogonalizer) M() int {
	_, m := o.X.Dims()
	return m
}

// transform returns X^T A X.
func (o *orthogonalizer) transform(a mat.Matrix) *mat.Dense {
	var xa, res mat.Dense
	xa.Mul(o.X.T(), a)
	res.Mul(&xa, o.X)
	return &res
}

// diagonalize solves F C = S C e in the orthonormal basis and returns the
// AO coefficients (n x m, one orbital per column) with ascending energies.
func (o *orthogonalizer) diagonalize(F mat.Matrix) (*mat.Dense, []float64, error) {
	if !finite(F) {
		return nil, nil, fmt.Errorf("Fock matrix is not finite")
	}
	var eigsym mat.EigenSym
	if ok := eigsym.Factorize(symmetrize(o.transform(F)), true); !ok {
		return nil, nil, fmt.Errorf("Fock eigendecomposition failed")
	}
	var ev mat.Dense
	eigsym.VectorsTo(&ev)
	var c mat.Dense
	c.Mul(o.X, &ev)
	vals := eigsym.Values(nil)
	if !finite(&c) || !finiteSlice(vals) {
		return nil, nil, fmt.Errorf("orbitals are not finite")
	}
	return &c, vals, nil
}

// naturalOrbitals diagonalizes D in the orthonormal basis, where it is
// X^T S D S X, and returns the AO coefficients (n x m) with their
// occupations in decreasing order.
func (o *orthogonalizer) naturalOrbitals(D, S mat.Matrix) (*mat.Dense, []float64, error) {
	var sx mat.Dense
	sx.Mul(S, o.X)
	var sxd, p mat.Dense
	sxd.Mul(sx.T(), D)
	p.Mul(&sxd, &sx)
	var eigsym mat.EigenSym
	if ok := eigsym.Factorize(symmetrize(&p), true); !ok {
		return nil, nil, fmt.Errorf("density eigendecomposition failed")
	}
	var ev mat.Dense
	eigsym.VectorsTo(&ev)
	vals := eigsym.Values(nil)

	var c mat.Dense
	c.Mul(o.X, &ev)
	n, m := c.Dims()
	res := mat.NewDense(n, m, nil)
	occ := make([]float64, m)
	for k := 0; k < m; k++ {
		src := m - 1 - k
		occ[k] = vals[src]
		for i := 0; i < n; i++ {
			res.Set(i, k, c.At(i, src))
		}
	}
	return res, occ, nil
}

// symmetrize returns (A + A^T)/2.
func symmetrize(a mat.Matrix) *mat.SymDense {
	n, _ := a.Dims()
	res := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			res.SetSym(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}
	return res
}

// density returns sum_k occ[k] c_k c_k^T over the columns of C.
func density(C *mat.Dense, occ []float64) *mat.Dense {
	n, _ := C.Dims()
	res := mat.NewDense(n, n, nil)
	for k, o := range occ {
		if o == 0 {
			continue
		}
		col := C.ColView(k)
		res.RankOne(res, o, col, col)
	}
	return res
}

// traceProduct is tr(A B) for symmetric A and B.
func traceProduct(a, b mat.Matrix) float64 {
	var t mat.Dense
	t.MulElem(a, b)
	return mat.Sum(&t)
}

// rms is the root mean square of the elements.
func rms(a mat.Matrix) float64 {
	res := mat.DenseCopyOf(a)
	res.MulElem(res, res)
	return math.Sqrt(stat.Mean(res.RawMatrix().Data, nil))
}

// commutator returns X^T (F D S - S D F) X.
func commutator(o *orthogonalizer, F, D, S mat.Matrix) *mat.Dense {
	var term1, term2 mat.Dense
	term1.Mul(F, D)
	term1.Mul(&term1, S)
	term2.Mul(S, D)
	term2.Mul(&term2, F)
	term1.Sub(&term1, &term2)
	return o.transform(&term1)
}

func finite(a mat.Matrix) bool {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := a.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

func finiteSlice(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// FormatMatrix renders m with eight decimals for log and console output.
func FormatMatrix(m mat.Matrix) string {
	fa := mat.Formatted(m, mat.Prefix("    "), mat.Squeeze())
	return fmt.Sprintf("    %.8f", fa)
}
