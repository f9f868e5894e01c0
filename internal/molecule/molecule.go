// molecule.go --  This file is part of goHF project.
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

// Package molecule reads calculation inputs (atoms, particle counts and
// per-species basis blocks) and turns them into a hamiltonian.System.
package molecule

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"example.com/gohf/internal/basis"
	"example.com/gohf/internal/hamiltonian"
)

type Atom struct {
	Z      int
	Charge float64 // nuclear charge, Z unless overridden
	Name   string
	Coords [3]float64
}

// Orbital is one contracted shell of an element's basis.
type Orbital struct {
	n, l, nPrim int
	Funcs       []PrimitiveGauss
}

type PrimitiveGauss struct {
	zeta, preExp float64
}

// Molecule is the parsed input.
type Molecule struct {
	Atoms []Atom
	// Bohr is true when coordinates are already in bohr.
	Bohr bool
	// Electrons < 0 means "derive from nuclear charges and Charge".
	Electrons int
	Positrons int
	Charge    int
	Nprocs    int
	// Basis maps species to per-element shells keyed by upper-case symbol.
	Basis map[basis.Species]map[string][]Orbital
}

func ReadFileLines(fname string) ([]string, error) {
	var result []string

	file, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		result = append(result, scanner.Text())
	}
	return result, scanner.Err()
}

// Parse reads the block input format:
//
//	Atoms
//	H 0.0 0.0 0.0 [charge]
//	end
//	Units bohr|angstrom
//	Particles
//	electrons 2
//	positrons 1
//	charge 0
//	end
//	Basis electron|positron
//	H
//	<nOrbs>
//	<n> <l> <nPrim>
//	<zeta> <coeff>
//	...
//	end
//	nprocs 4
//
// Lines starting with '#' are comments.
func Parse(data []string) (*Molecule, error) {
	mol := &Molecule{
		Electrons: -1,
		Basis:     make(map[basis.Species]map[string][]Orbital),
	}
	var atoms bool
	for i := 0; i < len(data); i++ {
		words := strings.Fields(data[i])
		if len(words) == 0 || strings.HasPrefix(words[0], "#") {
			continue
		}
		switch strings.ToLower(words[0]) {
		case "atoms":
			end, err := findBlockEnd(i, data, "Atoms")
			if err != nil {
				return nil, err
			}
			if err := mol.addAtoms(data, i+1, end-1); err != nil {
				return nil, err
			}
			atoms = true
			i = end
		case "particles":
			end, err := findBlockEnd(i, data, "Particles")
			if err != nil {
				return nil, err
			}
			if err := mol.setParticles(data[i+1 : end]); err != nil {
				return nil, err
			}
			i = end
		case "basis":
			if len(words) < 2 {
				return nil, fmt.Errorf("line %d: Basis needs a species", i+1)
			}
			sp, err := basis.ParseSpecies(strings.ToLower(words[1]))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			end, err := findBlockEnd(i, data, "Basis")
			if err != nil {
				return nil, err
			}
			lib, err := parseBasis(data[i+1 : end])
			if err != nil {
				return nil, fmt.Errorf("basis %v: %w", sp, err)
			}
			mol.Basis[sp] = lib
			i = end
		case "units":
			if len(words) < 2 {
				return nil, fmt.Errorf("line %d: Units needs a value", i+1)
			}
			switch strings.ToLower(words[1]) {
			case "bohr", "au":
				mol.Bohr = true
			case "angstrom", "ang":
				mol.Bohr = false
			default:
				return nil, fmt.Errorf("line %d: unknown units %q", i+1, words[1])
			}
		case "nprocs":
			if len(words) < 2 {
				return nil, fmt.Errorf("line %d: nprocs needs a value", i+1)
			}
			n, err := strconv.Atoi(words[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			mol.Nprocs = n
		default:
			return nil, fmt.Errorf("line %d: unexpected %q", i+1, words[0])
		}
	}
	if !atoms {
		return nil, fmt.Errorf("no Atoms found")
	}
	return mol, nil
}

func findBlockEnd(n int, data []string, bname string) (int, error) {
	for i := n + 1; i < len(data); i++ {
		words := strings.Fields(data[i])
		if len(words) > 0 && strings.ToLower(words[0]) == "end" {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no end of block %s", bname)
}

func (m *Molecule) addAtoms(data []string, start int, end int) error {
	for i := start; i < end+1; i++ {
		words := strings.Fields(data[i])
		if len(words) == 0 {
			continue
		}
		var atm Atom
		z, err := AtomicNumber(words[0])
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		atm.Z = z
		atm.Charge = float64(z)
		atm.Name = Symb[z] + strconv.Itoa(1+i-start)
		if len(words) < 4 {
			return fmt.Errorf("line %d: incorrect format of coordinates for atom %s", i+1, atm.Name)
		}
		for x := 0; x < 3; x++ {
			atm.Coords[x], err = strconv.ParseFloat(words[x+1], 64)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
		}
		if len(words) > 4 {
			atm.Charge, err = strconv.ParseFloat(words[4], 64)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
		}
		m.Atoms = append(m.Atoms, atm)
	}
	return nil
}

func (m *Molecule) setParticles(lines []string) error {
	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		if len(words) < 2 {
			return fmt.Errorf("particles: %q needs a value", line)
		}
		v, err := strconv.Atoi(words[1])
		if err != nil {
			return fmt.Errorf("particles: %w", err)
		}
		switch strings.ToLower(words[0]) {
		case "electrons":
			m.Electrons = v
		case "positrons":
			m.Positrons = v
		case "charge":
			m.Charge = v
		default:
			return fmt.Errorf("particles: unknown key %q", words[0])
		}
	}
	return nil
}

// parseBasis reads element sections: a symbol line, an orbital count, then
// per orbital "n l nPrim" followed by nPrim "zeta coeff" lines.
func parseBasis(data []string) (map[string][]Orbital, error) {
	lib := make(map[string][]Orbital)
	var lines [][]string
	for _, s := range data {
		if w := strings.Fields(s); len(w) > 0 && !strings.HasPrefix(w[0], "#") {
			lines = append(lines, w)
		}
	}
	for pos := 0; pos < len(lines); {
		sym := strings.ToUpper(lines[pos][0])
		if _, err := AtomicNumber(sym); err != nil {
			return nil, err
		}
		pos++
		if pos >= len(lines) {
			return nil, fmt.Errorf("element %s: missing orbital count", sym)
		}
		nOrbs, err := strconv.Atoi(lines[pos][0])
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", sym, err)
		}
		pos++
		for k := 0; k < nOrbs; k++ {
			if pos >= len(lines) || len(lines[pos]) < 3 {
				return nil, fmt.Errorf("element %s: orbital %d header must be \"n l nPrim\"", sym, k+1)
			}
			var orb Orbital
			ints := [3]*int{&orb.n, &orb.l, &orb.nPrim}
			for x, p := range ints {
				if *p, err = strconv.Atoi(lines[pos][x]); err != nil {
					return nil, fmt.Errorf("element %s: %w", sym, err)
				}
			}
			pos++
			for l := 0; l < orb.nPrim; l++ {
				if pos >= len(lines) || len(lines[pos]) < 2 {
					return nil, fmt.Errorf("element %s: orbital %d: missing primitive", sym, k+1)
				}
				var pg PrimitiveGauss
				if pg.zeta, err = strconv.ParseFloat(lines[pos][0], 64); err != nil {
					return nil, err
				}
				if pg.preExp, err = strconv.ParseFloat(lines[pos][1], 64); err != nil {
					return nil, err
				}
				orb.Funcs = append(orb.Funcs, pg)
				pos++
			}
			lib[sym] = append(lib[sym], orb)
		}
	}
	return lib, nil
}

func (m *Molecule) getNelec() int {
	result := 0
	for _, a := range m.Atoms {
		result += a.Z
	}
	return result - m.Charge
}

// cartesians lists the Cartesian angular-momentum triples of a shell.
func cartesians(l int) [][3]int {
	var res [][3]int
	for x := l; x >= 0; x-- {
		for y := l - x; y >= 0; y-- {
			res = append(res, [3]int{x, y, l - x - y})
		}
	}
	return res
}

// System converts coordinates to bohr and places each element's shells on
// every atom of that element.
func (m *Molecule) System() (hamiltonian.System, error) {
	var sys hamiltonian.System
	scale := 1.0
	if !m.Bohr {
		scale = 1 / a_B
	}
	funcs := make(map[basis.Species][]basis.Function)
	for _, atm := range m.Atoms {
		center := [3]float64{atm.Coords[0] * scale, atm.Coords[1] * scale, atm.Coords[2] * scale}
		sys.Nuclei = append(sys.Nuclei, basis.Nucleus{Charge: atm.Charge, Center: center})
		for _, sp := range basis.AllSpecies {
			for _, orb := range m.Basis[sp][strings.ToUpper(Symb[atm.Z])] {
				prims := make([]basis.Primitive, len(orb.Funcs))
				for k, pg := range orb.Funcs {
					prims[k] = basis.Primitive{Exponent: pg.zeta, Coefficient: pg.preExp}
				}
				for _, l := range cartesians(orb.l) {
					f, err := basis.NewFunction(sp, center, l, prims...)
					if err != nil {
						return sys, fmt.Errorf("atom %s: %w", atm.Name, err)
					}
					funcs[sp] = append(funcs[sp], f)
				}
			}
		}
	}
	set, err := basis.NewSet(funcs[basis.Electron], funcs[basis.Positron])
	if err != nil {
		return sys, err
	}
	sys.Basis = set
	sys.Electrons = m.Electrons
	if sys.Electrons < 0 {
		sys.Electrons = m.getNelec()
	}
	sys.Positrons = m.Positrons
	return sys, nil
}
