// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package runtime composes a Heap, an interning pool set, and an
// Assembler into the one object an embedder actually needs: load a
// source listing, run its @main, get a Value back.
package runtime

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/JoeStrout/MS2Prototypes-sub000/vm"
)

// Config is a Runtime's tunable policy, loadable from a YAML file so
// an embedder (or the msvm CLI) doesn't have to recompile to change
// GC aggressiveness or the cycle budget.
type Config struct {
	GCInitialThreshold int   `json:"gc_initial_threshold"`
	MaxCycles          int64 `json:"max_cycles"`
	MaxFrames          int   `json:"max_frames"`
	Debug              bool  `json:"debug"`
	Trace              bool  `json:"trace"`
}

// DefaultConfig returns the configuration a Runtime uses when no YAML
// file is supplied.
func DefaultConfig() *Config {
	return &Config{
		GCInitialThreshold: 1 << 20,
		MaxCycles:          0,
		MaxFrames:          vm.DefaultMaxFrames,
		Debug:              false,
		Trace:              false,
	}
}

// LoadConfig reads a YAML configuration file, applying its fields on
// top of DefaultConfig so a file only needs to name what it overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("runtime: reading config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("runtime: parsing config %s: %w", path, err)
	}
	return cfg, nil
}
