// main.go --  This file is part of goHF project.
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
	"os"

	"github.com/spf13/cobra"
)

var version = "0.2.0"

var (
	configPath    string
	outputPath    string
	verbose       bool
	printOrbitals bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gohf",
		Short: "goHF - Hartree-Fock for electrons and positrons",
		Long: `goHF solves the coupled Hartree-Fock equations of electrons and positrons
in Gaussian basis sets, with optional annihilation and relativistic terms.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd := &cobra.Command{
		Use:   "run <input>",
		Short: "Run an SCF calculation",
		Long: `Reads an input file (Atoms, Units, Particles, Basis electron|positron blocks),
builds the Hamiltonian and iterates to self-consistency. The report is written
to standard output and to <input>.out unless --output says otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalculation(cmd, args[0])
		},
	}
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML or TOML configuration file")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", `report file ("-" for none; default <input>.out)`)
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every SCF iteration")
	runCmd.Flags().BoolVar(&printOrbitals, "print-orbitals", false, "print orbital energies and coefficients")

	configCmd := &cobra.Command{
		Use:   "config <file>",
		Short: "Write the default configuration (.yaml or .toml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeDefaultConfig(cmd, args[0])
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "goHF", version)
		},
	}

	root.AddCommand(runCmd, configCmd, versionCmd)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
