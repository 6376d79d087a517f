package impact

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const DEFAULT_WORKERS = 1

// Config holds the tunables shared by PhysicsEngine and CollisionSystem
type Config struct {
	// Gravity acceleration (m/s², or N/kg)
	Gravity mgl64.Vec3
	// MaxSubstep is the longest time slice CollisionSystem.Tick integrates at once
	MaxSubstep float64
	// TerminalSpeed caps the falling speed, 0 disables it
	TerminalSpeed float64

	// BacktrackSteps is the number of halvings PhysicsEngine.Step tries to
	// leave a penetration, ForwardRetries the number of steps back toward it
	BacktrackSteps int
	ForwardRetries int

	// Spatial grid of the broad phase
	CellSize  float64
	GridCells int

	Workers int
}

func DefaultConfig() Config {
	return Config{
		Gravity:        mgl64.Vec3{0, -9.82, 0},
		MaxSubstep:     0.01,
		BacktrackSteps: 2,
		ForwardRetries: 3,
		CellSize:       4,
		GridCells:      1024,
		Workers:        DEFAULT_WORKERS,
	}
}

// SystemConfig is DefaultConfig with the falling speed capped, as used by
// character-driven scenes
func SystemConfig() Config {
	cfg := DefaultConfig()
	cfg.TerminalSpeed = 8

	return cfg
}

// Validate reports every invalid field at once
func (c Config) Validate() error {
	var err error

	if c.MaxSubstep <= 0 {
		err = multierr.Append(err, errors.Errorf("max substep must be positive, got %g", c.MaxSubstep))
	}
	if c.TerminalSpeed < 0 {
		err = multierr.Append(err, errors.Errorf("terminal speed must not be negative, got %g", c.TerminalSpeed))
	}
	if c.BacktrackSteps < 0 {
		err = multierr.Append(err, errors.Errorf("backtrack steps must not be negative, got %d", c.BacktrackSteps))
	}
	if c.ForwardRetries < 0 {
		err = multierr.Append(err, errors.Errorf("forward retries must not be negative, got %d", c.ForwardRetries))
	}
	if c.CellSize <= 0 {
		err = multierr.Append(err, errors.Errorf("cell size must be positive, got %g", c.CellSize))
	}
	if c.GridCells <= 0 {
		err = multierr.Append(err, errors.Errorf("grid cells must be positive, got %d", c.GridCells))
	}
	if c.Workers < 0 {
		err = multierr.Append(err, errors.Errorf("workers must not be negative, got %d", c.Workers))
	}

	return err
}

func (c Config) workers() int {
	return max(DEFAULT_WORKERS, c.Workers)
}
