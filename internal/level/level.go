// Package level loads level definitions: the playable hex map extents and the
// spawn points a match hands out. Levels are data files; scene geometry and
// rendering are somebody else's problem.
package level

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"hextactics/internal/hex"
)

// DefaultSpawnRadius is how far from an assigned spawn point a character may
// be placed, in tiles.
const DefaultSpawnRadius = 8

type Spawnpoint struct {
	Pos       hex.Axial `yaml:",inline"`
	Elevation int       `yaml:"elevation"`
}

type Level struct {
	Name        string       `yaml:"name"`
	Width       int          `yaml:"width"`
	Depth       int          `yaml:"depth"`
	SpawnRadius int          `yaml:"spawn_radius"`
	Spawnpoints []Spawnpoint `yaml:"spawnpoints"`
}

// Load reads and validates a level file.
func Load(path string) (*Level, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lvl Level
	if err := yaml.Unmarshal(raw, &lvl); err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	if lvl.Name == "" {
		lvl.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if lvl.SpawnRadius == 0 {
		lvl.SpawnRadius = DefaultSpawnRadius
	}
	if err := lvl.validate(); err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	return &lvl, nil
}

func (l *Level) validate() error {
	if l.Width <= 0 || l.Depth <= 0 {
		return fmt.Errorf("map extents must be positive, got %dx%d", l.Width, l.Depth)
	}
	if len(l.Spawnpoints) == 0 {
		return fmt.Errorf("no spawnpoints defined")
	}
	for i, sp := range l.Spawnpoints {
		if !l.Contains(sp.Pos) {
			return fmt.Errorf("spawnpoint %d at %+v is outside the map", i, sp.Pos)
		}
	}
	return nil
}

// Contains reports whether a position lies on the playable map.
func (l *Level) Contains(a hex.Axial) bool {
	return a.Q >= -l.Width && a.Q < l.Width && a.R >= -l.Depth && a.R < l.Depth
}
