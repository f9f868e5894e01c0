// diis.go --  This file is part of goHF project.
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
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// maxDIISCond rejects Pulay systems with a larger condition number.
var maxDIISCond = 1e12

// diis keeps the last Fock matrices of all live species with their
// commutator residuals and extrapolates new Fock matrices (Pulay). The
// species share one set of weights since their Fock matrices are coupled
// through the partner density.
type diis struct {
	size int
	// focks[e][s] is the Fock matrix of species s in entry e.
	focks [][]*mat.Dense
	errs  [][]*mat.Dense
}

func newDIIS(size int) *diis {
	return &diis{size: size}
}

func (d *diis) Len() int { return len(d.focks) }

// push stores copies of the Fock matrices and their residuals, evicting the
// oldest entry.
func (d *diis) push(F, r []*mat.Dense) {
	fs := make([]*mat.Dense, len(F))
	es := make([]*mat.Dense, len(r))
	for s := range F {
		fs[s] = mat.DenseCopyOf(F[s])
		es[s] = mat.DenseCopyOf(r[s])
	}
	d.focks = append(d.focks, fs)
	d.errs = append(d.errs, es)
	if len(d.focks) > d.size {
		d.focks = d.focks[1:]
		d.errs = d.errs[1:]
	}
}

// keepLast drops all but the n newest entries.
func (d *diis) keepLast(n int) {
	if n < len(d.focks) {
		d.focks = d.focks[len(d.focks)-n:]
		d.errs = d.errs[len(d.errs)-n:]
	}
}

// buildB returns the Pulay matrix of the n newest residuals, summed over
// species and scaled by its largest diagonal element, with the Lagrange row
// and column.
func (d *diis) buildB(n int) *mat.Dense {
	off := len(d.errs) - n
	res := mat.NewDense(n+1, n+1, nil)
	for i := 0; i < n; i++ {
		res.Set(i, n, -1)
		res.Set(n, i, -1)
	}
	maxDiag := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			b := 0.0
			for s, ei := range d.errs[off+i] {
				b += traceProduct(ei, d.errs[off+j][s])
			}
			res.Set(i, j, b)
			res.Set(j, i, b)
		}
		maxDiag = math.Max(maxDiag, res.At(i, i))
	}
	if maxDiag > 0 {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				res.Set(i, j, res.At(i, j)/maxDiag)
			}
		}
	}
	return res
}

// solve returns the extrapolation weights over the n newest entries, or
// false when the system is singular or too badly conditioned.
func (d *diis) solve(n int) ([]float64, bool) {
	bmat := d.buildB(n)
	rhs := mat.NewVecDense(n+1, nil)
	rhs.SetVec(n, -1)

	var lu mat.LU
	lu.Factorize(bmat)
	if c := lu.Cond(); math.IsInf(c, 1) || math.IsNaN(c) || c > maxDIISCond {
		return nil, false
	}
	var coefs mat.VecDense
	if err := lu.SolveVecTo(&coefs, false, rhs); err != nil {
		return nil, false
	}
	w := make([]float64, n)
	for i := range w {
		w[i] = coefs.AtVec(i)
	}
	// weights obey the Lagrange constraint unless the solve lost precision
	if !finiteSlice(w) || math.Abs(floats.Sum(w)-1) > 1e-6 {
		return nil, false
	}
	return w, true
}

// extrapolate combines the stored Fock matrices, one result per species. On
// an ill-conditioned system the oldest entries are dropped one at a time; if
// no history of at least two entries can be solved, it returns false and
// keeps only the newest entry.
func (d *diis) extrapolate() ([]*mat.Dense, bool) {
	for n := len(d.focks); n >= 2; n-- {
		w, ok := d.solve(n)
		if !ok {
			continue
		}
		d.keepLast(n)
		res := make([]*mat.Dense, len(d.focks[0]))
		for s := range res {
			r, c := d.focks[0][s].Dims()
			F := mat.NewDense(r, c, nil)
			for j, entry := range d.focks {
				F.Add(F, scaled(w[j], entry[s]))
			}
			res[s] = F
		}
		return res, true
	}
	d.keepLast(1)
	return nil, false
}

func scaled(f float64, a mat.Matrix) *mat.Dense {
	var res mat.Dense
	res.Scale(f, a)
	return &res
}
