// options.go --  This file is part of goHF project.
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
	"runtime"

	"go.uber.org/zap"
)

const (
	DefaultMaxIterations        = 100
	DefaultConvergenceThreshold = 1e-6
	DefaultDIISHistorySize      = 8
	DefaultLinearDependence     = 1e-8

	// FallbackMixing is the weight of the previous density when a DIIS
	// extrapolation cannot be solved.
	FallbackMixing = 0.5
)

type Options struct {
	MaxIterations int
	// ConvergenceThreshold bounds |dE| between iterations.
	ConvergenceThreshold float64
	// DensityThreshold bounds the RMS density change; zero means
	// ConvergenceThreshold.
	DensityThreshold float64
	UseDIIS          bool
	DIISHistorySize  int
	// Damping is the weight of the previous density in plain (non-DIIS)
	// iterations.
	Damping float64
	// LinearDependence is the smallest overlap eigenvalue kept; below it
	// the canonical orthogonalization drops functions.
	LinearDependence float64
	Workers          int
	Logger           *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		MaxIterations:        DefaultMaxIterations,
		ConvergenceThreshold: DefaultConvergenceThreshold,
		DensityThreshold:     DefaultConvergenceThreshold,
		UseDIIS:              true,
		DIISHistorySize:      DefaultDIISHistorySize,
		LinearDependence:     DefaultLinearDependence,
		Workers:              runtime.GOMAXPROCS(0),
	}
}

func (o Options) Validate() error {
	if o.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be positive, got %d", o.MaxIterations)
	}
	if !(o.ConvergenceThreshold > 0) {
		return fmt.Errorf("convergence threshold must be positive, got %v", o.ConvergenceThreshold)
	}
	if o.DensityThreshold < 0 {
		return fmt.Errorf("density threshold must not be negative, got %v", o.DensityThreshold)
	}
	if o.UseDIIS && o.DIISHistorySize < 2 {
		return fmt.Errorf("DIIS history size must be at least 2, got %d", o.DIISHistorySize)
	}
	if o.Damping < 0 || o.Damping >= 1 {
		return fmt.Errorf("damping must be in [0, 1), got %v", o.Damping)
	}
	if o.LinearDependence < 0 {
		return fmt.Errorf("linear dependence threshold must not be negative, got %v", o.LinearDependence)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.DensityThreshold == 0 {
		o.DensityThreshold = o.ConvergenceThreshold
	}
	if o.LinearDependence == 0 {
		o.LinearDependence = DefaultLinearDependence
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
