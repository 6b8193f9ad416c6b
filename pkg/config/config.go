// Package config loads a run's parameters from a YAML file. It exists
// alongside the CLI's own cobra flags so a long or repeated run can be
// pinned to a checked-in file instead of a wall of command-line
// arguments.
package config

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/kargakis/vowmitm/pkg/distributed"
	"github.com/kargakis/vowmitm/pkg/engine"
)

// Run is the on-disk shape of a search configuration: engine tuning
// plus, optionally, a distributed topology. Topology is a pointer so
// its absence (sequential mode) round-trips cleanly through YAML.
type Run struct {
	N           uint8                 `yaml:"n"`
	M           uint8                 `yaml:"m,omitempty"`
	Theta       uint8                 `yaml:"theta,omitempty"`
	RAM         string                `yaml:"ram,omitempty"`
	MaxVersions uint64                `yaml:"max_versions,omitempty"`
	Seed        uint64                `yaml:"seed,omitempty"`
	Topology    *distributed.Topology `yaml:"topology,omitempty"`
}

// Load reads and parses a Run configuration from fs at path.
func Load(fs afero.Fs, path string) (*Run, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var r Run
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if r.N == 0 {
		return nil, fmt.Errorf("config: %s: n must be set and non-zero", path)
	}
	return &r, nil
}

// EngineParameters converts the loaded configuration into
// engine.Parameters. DictCapacity is always left zero, so the engine
// falls back to its own available-memory default; the RAM field is not
// consulted here.
func (r *Run) EngineParameters() engine.Parameters {
	return engine.Parameters{
		Theta:       r.Theta,
		MaxVersions: r.MaxVersions,
		Seed:        r.Seed,
	}
}

// Save writes r back to fs at path, the counterpart to Load used by
// a run that wants to snapshot the configuration it actually used.
func Save(fs afero.Fs, path string, r *Run) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
