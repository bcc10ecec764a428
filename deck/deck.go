// Package deck reads the YAML input deck driving quadrature, mesh generation,
// neighbor search and crack insertion.
package deck

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/notargets/PDKernel/element"
	"github.com/notargets/PDKernel/element/quadrature"
	"github.com/notargets/PDKernel/fracture"
	"github.com/notargets/PDKernel/geometry"
	"github.com/notargets/PDKernel/mesh"
	"github.com/notargets/PDKernel/partitions"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Deck is the complete input deck
type Deck struct {
	Quadrature QuadratureDeck `yaml:"quadrature"`
	Mesh       MeshDeck       `yaml:"mesh"`
	Horizon    float64        `yaml:"horizon"`
	Fracture   FractureDeck   `yaml:"fracture"`
	Workers    int            `yaml:"workers"`
	Strategy   string         `yaml:"strategy"`
	Logging    LoggingDeck    `yaml:"logging"`
}

type QuadratureDeck struct {
	Family string `yaml:"family"`
	Order  int    `yaml:"order"`
}

// MeshDeck describes a uniform grid of nx x ny cells over lx x ly
type MeshDeck struct {
	Nx     int       `yaml:"nx"`
	Ny     int       `yaml:"ny"`
	Lx     float64   `yaml:"lx"`
	Ly     float64   `yaml:"ly"`
	Origin []float64 `yaml:"origin"`
}

type FractureDeck struct {
	Cracks []CrackDeck `yaml:"cracks"`
}

// CrackDeck is one prescribed crack. End points are [x, y] or [x, y, z].
type CrackDeck struct {
	Pb             []float64 `yaml:"pb"`
	Pt             []float64 `yaml:"pt"`
	Orientation    int       `yaml:"orientation,omitempty"`
	ActivationTime float64   `yaml:"activation_time"`
}

type LoggingDeck struct {
	Level string `yaml:"level"`
}

// Default returns a deck for a unit square of 10 x 10 quadrangles, no cracks
func Default() *Deck {
	return &Deck{
		Quadrature: QuadratureDeck{Family: "quadrangle", Order: 2},
		Mesh:       MeshDeck{Nx: 10, Ny: 10, Lx: 1, Ly: 1, Origin: []float64{0, 0}},
		Horizon:    0.3,
		Workers:    4,
		Strategy:   partitions.BlockPartition.String(),
		Logging:    LoggingDeck{Level: "info"},
	}
}

// Load reads a deck from path. Keys absent from the file keep their defaults
// and environment overrides are applied last.
func Load(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse decodes a YAML deck over the defaults and validates it
func Parse(data []byte) (*Deck, error) {
	d := Default()
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("failed to parse deck: %w", err)
	}
	return Resolve(d)
}

// Resolve applies the environment overrides to d and validates the result.
// Every deck handed to the kernel goes through it, including Default().
func Resolve(d *Deck) (*Deck, error) {
	d.applyEnvOverrides()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Save writes the deck as YAML, creating the parent directory
func (d *Deck) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create deck directory: %w", err)
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal deck: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write deck: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides
func (d *Deck) applyEnvOverrides() {
	if v := os.Getenv("PDKERNEL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			d.Workers = n
		}
	}
	if v := os.Getenv("PDKERNEL_STRATEGY"); v != "" {
		d.Strategy = v
	}
	if v := os.Getenv("PDKERNEL_LOG_LEVEL"); v != "" {
		d.Logging.Level = v
	}
}

// Validate checks every section of the deck
func (d *Deck) Validate() error {
	if _, err := element.ParseFamily(d.Quadrature.Family); err != nil {
		return fmt.Errorf("quadrature: %w", err)
	}
	if d.Quadrature.Order < 1 || d.Quadrature.Order > quadrature.MaxOrder {
		return fmt.Errorf("quadrature: %w: order %d (supported 1..%d)",
			element.ErrUnsupportedOrder, d.Quadrature.Order, quadrature.MaxOrder)
	}
	if d.Mesh.Nx < 1 || d.Mesh.Ny < 1 {
		return fmt.Errorf("mesh: cell counts must be positive, got %d x %d", d.Mesh.Nx, d.Mesh.Ny)
	}
	if !positive(d.Mesh.Lx) || !positive(d.Mesh.Ly) {
		return fmt.Errorf("mesh: extents must be positive, got %g x %g", d.Mesh.Lx, d.Mesh.Ly)
	}
	if _, err := toPoint(d.Mesh.Origin); err != nil {
		return fmt.Errorf("mesh: origin: %w", err)
	}
	if !positive(d.Horizon) {
		return fmt.Errorf("horizon must be positive, got %g", d.Horizon)
	}
	for k, c := range d.Fracture.Cracks {
		if _, err := toPoint(c.Pb); err != nil {
			return fmt.Errorf("fracture: crack %d: pb: %w", k, err)
		}
		if _, err := toPoint(c.Pt); err != nil {
			return fmt.Errorf("fracture: crack %d: pt: %w", k, err)
		}
		if c.Orientation < -1 || c.Orientation > 1 {
			return fmt.Errorf("fracture: crack %d: orientation must be -1, 0 or 1, got %d", k, c.Orientation)
		}
		if math.IsNaN(c.ActivationTime) {
			return fmt.Errorf("fracture: crack %d: activation time is NaN", k)
		}
	}
	if d.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", d.Workers)
	}
	if _, err := partitions.ParseStrategy(d.Strategy); err != nil {
		return err
	}
	if _, err := zapcore.ParseLevel(d.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) }

// toPoint accepts [x, y] or [x, y, z]. An empty list is the origin.
func toPoint(v []float64) (geometry.Point3, error) {
	switch len(v) {
	case 0:
		return geometry.Point3{}, nil
	case 2:
		return geometry.NewPoint3(v[0], v[1], 0), nil
	case 3:
		return geometry.NewPoint3(v[0], v[1], v[2]), nil
	}
	return geometry.Point3{}, fmt.Errorf("%w: point needs 2 or 3 coordinates, got %d",
		element.ErrDimensionMismatch, len(v))
}

// Family returns the element family of the quadrature section
func (d *Deck) Family() (element.Family, error) {
	return element.ParseFamily(d.Quadrature.Family)
}

// PartitionStrategy returns how work is split between the workers
func (d *Deck) PartitionStrategy() (partitions.Strategy, error) {
	return partitions.ParseStrategy(d.Strategy)
}

// LogLevel returns the configured zap level
func (d *Deck) LogLevel() (zapcore.Level, error) {
	return zapcore.ParseLevel(d.Logging.Level)
}

// FractureDeck converts the crack list for fracture.Store. Every call returns
// fresh, inactive cracks.
func (d *Deck) FractureDeck() (*fracture.Deck, error) {
	fd := &fracture.Deck{Cracks: make([]*fracture.Crack, 0, len(d.Fracture.Cracks))}
	for k, c := range d.Fracture.Cracks {
		pb, err := toPoint(c.Pb)
		if err != nil {
			return nil, fmt.Errorf("crack %d: pb: %w", k, err)
		}
		pt, err := toPoint(c.Pt)
		if err != nil {
			return nil, fmt.Errorf("crack %d: pt: %w", k, err)
		}
		fd.Cracks = append(fd.Cracks, &fracture.Crack{
			Pb:             pb,
			Pt:             pt,
			O:              c.Orientation,
			ActivationTime: c.ActivationTime,
		})
	}
	return fd, nil
}

// BuildMesh generates the uniform grid of the mesh section
func (d *Deck) BuildMesh() (*mesh.Mesh, error) {
	family, err := d.Family()
	if err != nil {
		return nil, err
	}
	origin, err := toPoint(d.Mesh.Origin)
	if err != nil {
		return nil, err
	}
	return mesh.NewUniformGrid(family, d.Mesh.Nx, d.Mesh.Ny, origin, d.Mesh.Lx, d.Mesh.Ly)
}
