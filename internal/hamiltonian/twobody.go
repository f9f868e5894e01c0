// twobody.go --  This file is part of goHF project.
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
	"sync"

	"gonum.org/v1/gonum/mat"
)

// parallelThreshold is the number of stored quartets below which contractions
// run on the calling goroutine.
var parallelThreshold = 4096

// TwoBody is a screened list of (ij|kl) values with i >= j in the bra basis
// and k >= l in the ket basis. Both (ij|kl) and (kl|ij) are stored when bra
// and ket are the same basis. Idx encodes ((i*NBra+j)*NKet+k)*NKet+l.
type TwoBody struct {
	NBra, NKet int
	Idx        []int
	Val        []float64
}

func (t *TwoBody) Len() int { return len(t.Idx) }

func (t *TwoBody) index(i, j, k, l int) int {
	return ((i*t.NBra+j)*t.NKet+k)*t.NKet + l
}

// Indices decodes the q-th stored quartet.
func (t *TwoBody) Indices(q int) (int, int, int, int) {
	idx := t.Idx[q]
	l := idx % t.NKet
	idx /= t.NKet
	k := idx % t.NKet
	idx /= t.NKet
	j := idx % t.NBra
	i := idx / t.NBra
	return i, j, k, l
}

func (t *TwoBody) add(i, j, k, l int, v float64) {
	t.Idx = append(t.Idx, t.index(i, j, k, l))
	t.Val = append(t.Val, v)
}

// ContractKet accumulates out[i][j] += sum_kl (ij|kl) d[k][l], where d lives
// in the ket basis and out in the bra basis. For a same-species list this is
// the Coulomb matrix J[d].
func (t *TwoBody) ContractKet(d mat.Matrix, out *mat.Dense, workers int) {
	t.fanOut(workers, out, func(q int, g *mat.Dense) {
		i, j, k, l := t.Indices(q)
		dkl := d.At(k, l)
		if k != l {
			dkl += d.At(l, k)
		}
		v := dkl * t.Val[q]
		g.Set(i, j, g.At(i, j)+v)
		if i != j {
			g.Set(j, i, g.At(j, i)+v)
		}
	})
}

// ContractBra accumulates out[k][l] += sum_ij (ij|kl) d[i][j], where d lives
// in the bra basis and out in the ket basis.
func (t *TwoBody) ContractBra(d mat.Matrix, out *mat.Dense, workers int) {
	t.fanOut(workers, out, func(q int, g *mat.Dense) {
		i, j, k, l := t.Indices(q)
		dij := d.At(i, j)
		if i != j {
			dij += d.At(j, i)
		}
		v := dij * t.Val[q]
		g.Set(k, l, g.At(k, l)+v)
		if k != l {
			g.Set(l, k, g.At(l, k)+v)
		}
	})
}

// Exchange accumulates the exchange matrix out[i][k] += sum_jl (ij|kl) d[j][l]
// of a same-species list.
func (t *TwoBody) Exchange(d mat.Matrix, out *mat.Dense, workers int) {
	t.fanOut(workers, out, func(q int, g *mat.Dense) {
		i, j, k, l := t.Indices(q)
		v := t.Val[q]
		g.Set(i, k, g.At(i, k)+d.At(j, l)*v)
		if i != j {
			g.Set(j, k, g.At(j, k)+d.At(i, l)*v)
		}
		if k != l {
			g.Set(i, l, g.At(i, l)+d.At(j, k)*v)
			if i != j {
				g.Set(j, l, g.At(j, l)+d.At(i, k)*v)
			}
		}
	})
}

// fanOut splits the quartet list into one chunk per worker, each summed into a
// private partial matrix, and adds the partials into out.
func (t *TwoBody) fanOut(workers int, out *mat.Dense, body func(q int, g *mat.Dense)) {
	n := t.Len()
	if workers <= 1 || n < parallelThreshold {
		for q := 0; q < n; q++ {
			body(q, out)
		}
		return
	}
	r, c := out.Dims()
	parts := make([]*mat.Dense, workers)
	size := n / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo, hi := w*size, (w+1)*size
		if w == workers-1 {
			hi = n
		}
		parts[w] = mat.NewDense(r, c, nil)
		part := parts[w]
		wg.Add(1)
		go func() {
			defer wg.Done()
			for q := lo; q < hi; q++ {
				body(q, part)
			}
		}()
	}
	wg.Wait()
	for _, p := range parts {
		out.Add(out, p)
	}
}
