// run.go --  This file is part of goHF project.
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
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"example.com/gohf/internal/basis"
	"example.com/gohf/internal/config"
	"example.com/gohf/internal/hamiltonian"
	"example.com/gohf/internal/integrals"
	"example.com/gohf/internal/logging"
	"example.com/gohf/internal/molecule"
	"example.com/gohf/internal/scf"
)

func appInfo(w io.Writer) {
	fmt.Fprint(w, "\n              __  __  ____      |\n             /\\ \\/\\ \\/\\  __\\    |"+
		" Author: Mirzaeva Irina Valerievna\n   __     ___\\ \\ \\_\\ \\ \\ \\_/    | email: dairdre@gmail.com\n"+
		" /'_ `\\  / __`\\ \\  _  \\ \\  _\\   | Nikolaev Institute of Inorganic Chemistry SB RAS"+
		" (http://niic.nsc.ru/)\n/\\ \\L\\ \\/\\ \\L\\ \\ \\ \\ \\ \\ \\ \\/   | Novosibirsk, Russia"+
		"\n\\ \\____ \\ \\____/\\ \\_\\ \\_\\ \\_\\   | HF stands for Himicheskaya Fizika\n \\/___L\\"+
		" \\/___/  \\/_/\\/_/\\/_/   | Have Fun!!!\n   /\\____/                      |\n   \\_/__/                       |\n\n")
}

func printOutputDelimiter(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("-", 70))
}

// defaultOutput replaces the input extension with "out".
func defaultOutput(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".out"
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runCalculation(cmd *cobra.Command, input string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Logging, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	out := cmd.OutOrStdout()
	if outputPath == "" {
		outputPath = defaultOutput(input)
	}
	if outputPath != "-" {
		file, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer file.Close()
		out = io.MultiWriter(out, file)
		log.Info("writing report", zap.String("output", outputPath))
	}

	log.Info("starting goHF", zap.String("version", version), zap.String("input", input))
	inpData, err := molecule.ReadFileLines(input)
	if err != nil {
		return fmt.Errorf("cannot read input file: %w", err)
	}
	appInfo(out)
	fmt.Fprintln(out, "Input file content:")
	printOutputDelimiter(out)
	for _, line := range inpData {
		fmt.Fprintln(out, line)
	}
	printOutputDelimiter(out)

	mol, err := molecule.Parse(inpData)
	if err != nil {
		return fmt.Errorf("parsing input: %w", err)
	}
	if mol.Nprocs > 0 {
		cfg.Workers = mol.Nprocs
		log.Info("number of workers set from input", zap.Int("workers", mol.Nprocs))
	}
	sys, err := mol.System()
	if err != nil {
		return err
	}

	tstart := time.Now()
	cache := integrals.NewCache(cfg.Cache.Capacity)
	engine := integrals.NewEngine(sys.Basis, sys.Nuclei)
	m, err := hamiltonian.Build(sys, cache.Wrap(engine), cfg.HamiltonianOptions(log))
	if err != nil {
		return err
	}
	st := cache.Stats()
	log.Info("integrals done",
		zap.Duration("elapsed", time.Since(tstart)),
		zap.Int64("cache_hits", st.Hits),
		zap.Int64("cache_misses", st.Misses),
		zap.Int64("cache_evictions", st.Evictions))

	solver, err := scf.New(cfg.SCFOptions(log))
	if err != nil {
		return err
	}
	res, err := solver.Solve(m)
	if err != nil {
		return err
	}
	writeReport(out, res, printOrbitals)
	log.Info("exiting goHF", zap.String("run_id", res.RunID))
	return nil
}

func writeReport(w io.Writer, res *scf.Result, orbitals bool) {
	fmt.Fprintln(w, "Run ID: ", res.RunID)
	for _, it := range res.History {
		fmt.Fprintf(w, "Iteration %4d. Energy = %16.10f, dE = %12.4e, dRMS = %12.4e\n",
			it.N, it.Energy, it.EnergyChange, it.DensityRMS)
	}
	if res.Converged {
		fmt.Fprintln(w, "SCF converged after step ", res.Iterations)
	} else {
		fmt.Fprintln(w, "Warning! SCF NOT converged after step ", res.Iterations)
	}
	printOutputDelimiter(w)

	e := res.Energy
	for _, sp := range res.Matrices.Active() {
		se := e.Species[sp]
		fmt.Fprintf(w, "%-9s kinetic = %16.10f  potential = %16.10f  coulomb = %16.10f  exchange = %16.10f\n",
			sp, se.Kinetic, se.Potential, se.Coulomb, se.Exchange)
		for _, c := range res.Matrices.Block(sp).Corrections {
			fmt.Fprintf(w, "%-9s %s correction = %16.10f\n", sp, c.Name, se.Corrections[c.Name])
		}
	}
	for _, c := range res.Matrices.Couplings {
		fmt.Fprintf(w, "Electron-positron %s energy = %16.10f a.u.\n", c.Name, e.Couplings[c.Name])
	}
	fmt.Fprintln(w, "Nuclei Repulsion Energy: ", e.NuclearRepulsion, " a.u.")
	printOutputDelimiter(w)
	fmt.Fprintln(w, "Final total energy = ", e.Total, " a.u.")
	printOutputDelimiter(w)

	if !orbitals {
		return
	}
	for _, sp := range basis.AllSpecies {
		orb := res.Orbitals[sp]
		if orb == nil {
			continue
		}
		fmt.Fprintf(w, "%v orbital energies (occupations):\n", sp)
		for k, eps := range orb.Energies {
			fmt.Fprintf(w, "  %4d %16.10f (%g)\n", k+1, eps, orb.Occupations[k])
		}
		fmt.Fprintf(w, "%v coefficients:\n", sp)
		fmt.Fprintln(w, scf.FormatMatrix(orb.Coefficients))
	}
}

func writeDefaultConfig(cmd *cobra.Command, path string) error {
	if err := config.Default().Save(path); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Default configuration written to", path)
	return nil
}
