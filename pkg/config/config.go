// Package config loads the metering-point configuration the coordinator
// syncs. Onboarding happens elsewhere; this service consumes the resulting
// file as a read-only snapshot.
package config

import (
	"fmt"
	"os"

	"github.com/levenlabs/go-lflag"
	"gopkg.in/yaml.v3"

	"github.com/lenedabridge/lenedabridge/pkg/types"
)

// file is the on-disk shape of the metering-point configuration.
type file struct {
	MeteringPoints []types.MeteringPoint `yaml:"meteringPoints"`
}

// Configured loads the metering points based on flags.
func Configured() *[]types.MeteringPoint {
	path := lflag.RequiredString("metering-points-file", "Path to the YAML file listing metering points and their channels")

	var points []types.MeteringPoint

	lflag.Do(func() {
		p, err := Load(*path)
		if err != nil {
			panic(fmt.Sprintf("failed to load metering points: %v", err))
		}
		points = p
	})

	return &points
}

// Load reads and validates the metering-point file at path.
func Load(path string) ([]types.MeteringPoint, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if len(f.MeteringPoints) == 0 {
		return nil, fmt.Errorf("%s contains no metering points", path)
	}
	seen := map[string]bool{}
	for i, mp := range f.MeteringPoints {
		if mp.ID == "" {
			return nil, fmt.Errorf("metering point %d is missing an id", i)
		}
		if seen[mp.ID] {
			return nil, fmt.Errorf("metering point %s is listed twice", mp.ID)
		}
		seen[mp.ID] = true
		if len(mp.Channels) == 0 {
			return nil, fmt.Errorf("metering point %s has no channels", mp.ID)
		}
		for _, ch := range mp.Channels {
			if ch == "" {
				return nil, fmt.Errorf("metering point %s has an empty channel", mp.ID)
			}
		}
	}
	return f.MeteringPoints, nil
}
