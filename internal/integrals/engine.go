// engine.go --  This file is part of goHF project.
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
package integrals

// Formulas follow https://github.com/nickelandcopper/HartreeFockPythonProgram
// for s-type primitives.

import (
	"encoding/binary"
	"fmt"
	"hash/maphash"
	"math"

	"gonum.org/v1/gonum/mathext"

	"example.com/gohf/internal/basis"
)

var fingerprintSeed = maphash.MakeSeed()

// Engine evaluates integrals analytically over contracted s-type Gaussians.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	set      *basis.Set
	nuclei   []basis.Nucleus
	disabled map[Kind]bool
	fp       uint64
}

type EngineOption func(*Engine)

// WithDisabled makes the engine refuse the given kinds with ErrUnsupported.
func WithDisabled(kinds ...Kind) EngineOption {
	return func(e *Engine) {
		for _, k := range kinds {
			e.disabled[k] = true
		}
	}
}

func NewEngine(set *basis.Set, nuclei []basis.Nucleus, opts ...EngineOption) *Engine {
	e := &Engine{
		set:      set,
		nuclei:   append([]basis.Nucleus(nil), nuclei...),
		disabled: make(map[Kind]bool),
	}
	for _, o := range opts {
		o(e)
	}
	e.fp = e.fingerprint()
	return e
}

// Fingerprint identifies the basis and nuclei content the engine integrates
// over. Two engines built from equal inputs share a fingerprint.
func (e *Engine) Fingerprint() uint64 { return e.fp }

func (e *Engine) fingerprint() uint64 {
	var h maphash.Hash
	h.SetSeed(fingerprintSeed)
	buf := make([]byte, 0, 64)
	putF := func(v float64) { buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v)) }
	for _, sp := range basis.AllSpecies {
		buf = buf[:0]
		buf = binary.LittleEndian.AppendUint64(buf, uint64(e.set.N(sp)))
		h.Write(buf)
		for _, f := range e.set.Functions(sp) {
			buf = buf[:0]
			for _, c := range f.Center() {
				putF(c)
			}
			for _, l := range f.L() {
				buf = binary.LittleEndian.AppendUint64(buf, uint64(l))
			}
			for _, p := range f.Primitives() {
				putF(p.Exponent)
				putF(p.Coefficient)
			}
			h.Write(buf)
		}
	}
	for _, n := range e.nuclei {
		buf = buf[:0]
		putF(n.Charge)
		for _, c := range n.Center {
			putF(c)
		}
		h.Write(buf)
	}
	for k := Overlap; k <= Darwin; k++ {
		if e.disabled[k] {
			h.WriteString(k.String())
		}
	}
	return h.Sum64()
}

func (e *Engine) Integral(k Key) (float64, error) {
	if e.disabled[k.Kind] {
		return 0, fmt.Errorf("%v: disabled: %w", k, ErrUnsupported)
	}
	switch {
	case k.Kind == Annihilation && k.Bra == k.Ket:
		return 0, fmt.Errorf("%v: %w", k, ErrUnsupported)
	case !k.Kind.TwoBody() && k.Bra != k.Ket:
		return 0, fmt.Errorf("%v: %w", k, ErrUnsupported)
	case k.Kind > Darwin || k.Kind < Overlap:
		return 0, fmt.Errorf("%v: %w", k, ErrUnsupported)
	}

	n := 2
	if k.Kind.TwoBody() {
		n = 4
	}
	idx := [4]int{k.I, k.J, k.K, k.L}
	sps := [4]basis.Species{k.Bra, k.Bra, k.Ket, k.Ket}
	var fs [4]basis.Function
	for c := 0; c < n; c++ {
		if idx[c] < 0 || idx[c] >= e.set.N(sps[c]) {
			return 0, fmt.Errorf("%v: %w", k, ErrIndex)
		}
	}
	for c := 0; c < n; c++ {
		fs[c] = e.set.Function(sps[c], idx[c])
		if fs[c].AngularMomentum() != 0 {
			return 0, fmt.Errorf("%v: l=%v: %w", k, fs[c].L(), ErrAngularMomentum)
		}
	}

	switch k.Kind {
	case Overlap:
		return overlap(fs[0], fs[1]), nil
	case Kinetic:
		return kinetic(fs[0], fs[1]), nil
	case Nuclear:
		return nuclear(fs[0], fs[1], e.nuclei), nil
	case MassVelocity:
		return massVelocity(fs[0], fs[1]), nil
	case Darwin:
		return darwin(fs[0], fs[1], e.nuclei), nil
	case Coulomb:
		return coulomb(fs[0], fs[1], fs[2], fs[3]), nil
	default:
		return contact(fs[0], fs[1], fs[2], fs[3]), nil
	}
}

// gaussPair is the Gaussian product of two normalized, contraction-weighted
// primitives centred on A and B.
type gaussPair struct {
	a, b  float64    // exponents
	p     float64    // a + b
	P     [3]float64 // product centre
	PA    [3]float64
	PB    [3]float64
	s     float64 // overlap of the pair
	coeff float64 // N_a N_b c_a c_b exp(-q AB^2)
}

func newPair(pa basis.Primitive, A [3]float64, pb basis.Primitive, B [3]float64) gaussPair {
	var g gaussPair
	g.a, g.b = pa.Exponent, pb.Exponent
	g.p = g.a + g.b
	q := g.a * g.b / g.p
	for x := 0; x < 3; x++ {
		g.P[x] = (g.a*A[x] + g.b*B[x]) / g.p
		g.PA[x] = g.P[x] - A[x]
		g.PB[x] = g.P[x] - B[x]
	}
	N := pa.NormCoeff() * pb.NormCoeff()
	g.coeff = N * pa.Coefficient * pb.Coefficient * math.Exp(-q*basis.Distance2(A, B))
	g.s = g.coeff * math.Pow((math.Pi/g.p), 1.5)
	return g
}

func eachPair(f1, f2 basis.Function, fn func(g gaussPair)) {
	for k := 0; k < f1.NPrims(); k++ {
		for l := 0; l < f2.NPrims(); l++ {
			fn(newPair(f1.Primitive(k), f1.Center(), f2.Primitive(l), f2.Center()))
		}
	}
}

func dot(v1, v2 [3]float64) float64 {
	return v1[0]*v2[0] + v1[1]*v2[1] + v1[2]*v2[2]
}

func overlap(f1, f2 basis.Function) float64 {
	res := 0.0
	eachPair(f1, f2, func(g gaussPair) { res += g.s })
	return res
}

func kinetic(f1, f2 basis.Function) float64 {
	res := 0.0
	eachPair(f1, f2, func(g gaussPair) {
		PB2 := dot(g.PB, g.PB)
		res += 3 * g.b * g.s
		res -= 2 * g.b * g.b * g.s * (PB2 + 1.5/g.p)
	})
	return res
}

// boys is the Boys function F_n(x).
func boys(x float64, n int) float64 {
	nf := float64(n)
	if x == 0 {
		return 1.0 / (2.0*nf + 1)
	}
	return mathext.GammaIncReg(nf+0.5, x) * math.Gamma(nf+0.5) * (1.0 / (2.0 * math.Pow(x, (nf+0.5))))
}

func nuclear(f1, f2 basis.Function, nuclei []basis.Nucleus) float64 {
	res := 0.0
	eachPair(f1, f2, func(g gaussPair) {
		for _, at := range nuclei {
			if at.Charge == 0 {
				continue
			}
			PC2 := basis.Distance2(g.P, at.Center)
			res += -at.Charge * g.coeff * (2.0 * math.Pi / g.p) * boys(g.p*PC2, 0)
		}
	})
	return res
}

func coulomb(f1, f2, f3, f4 basis.Function) float64 {
	res := 0.0
	eachPair(f1, f2, func(gij gaussPair) {
		eachPair(f3, f4, func(gkl gaussPair) {
			pij, pkl := gij.p, gkl.p
			PQ2 := basis.Distance2(gij.P, gkl.P)
			denom := (1.0 / pij) + (1.0 / pkl)
			term1 := 2.0 * math.Pi * math.Pi / (pij * pkl)
			term2 := math.Sqrt(math.Pi / (pij + pkl))
			res += gij.coeff * gkl.coeff * term1 * term2 * boys(PQ2/denom, 0)
		})
	})
	return res
}

// contact integrates the product of four functions over all space.
func contact(f1, f2, f3, f4 basis.Function) float64 {
	res := 0.0
	eachPair(f1, f2, func(gij gaussPair) {
		eachPair(f3, f4, func(gkl gaussPair) {
			p := gij.p + gkl.p
			q := gij.p * gkl.p / p
			PQ2 := basis.Distance2(gij.P, gkl.P)
			res += gij.coeff * gkl.coeff * math.Exp(-q*PQ2) * math.Pow(math.Pi/p, 1.5)
		})
	})
	return res
}

// massVelocity uses nabla^2 g_a = (4a^2 r_A^2 - 6a) g_a and the second and
// fourth moments of the product Gaussian around its centre.
func massVelocity(f1, f2 basis.Function) float64 {
	res := 0.0
	eachPair(f1, f2, func(g gaussPair) {
		x2, y2, xy := dot(g.PA, g.PA), dot(g.PB, g.PB), dot(g.PA, g.PB)
		u2 := 1.5 / g.p
		rA2 := u2 + x2
		rB2 := u2 + y2
		rA2rB2 := 15.0/(4*g.p*g.p) + u2*(x2+y2) + 2*xy/g.p + x2*y2
		a, b := g.a, g.b
		res += g.s * (16*a*a*b*b*rA2rB2 - 24*a*a*b*rA2 - 24*a*b*b*rB2 + 36*a*b)
	})
	return res
}

func value(f basis.Function, r [3]float64) float64 {
	res := 0.0
	d2 := basis.Distance2(f.Center(), r)
	for k := 0; k < f.NPrims(); k++ {
		p := f.Primitive(k)
		res += p.Coefficient * p.NormCoeff() * math.Exp(-p.Exponent*d2)
	}
	return res
}

func darwin(f1, f2 basis.Function, nuclei []basis.Nucleus) float64 {
	res := 0.0
	for _, at := range nuclei {
		res += at.Charge * value(f1, at.Center) * value(f2, at.Center)
	}
	return res
}
