package data

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/core/event"
	"github.com/l1jgo/phasesim/internal/world"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Point is a coordinate in YAML data files.
type Point struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
	O float32 `yaml:"o"`
}

func (p Point) Position() component.Position {
	return component.Position{X: p.X, Y: p.Y, Z: p.Z, O: p.O}
}

// ZoneInfo is a rectangular zone of a map.
type ZoneInfo struct {
	ID   int32   `yaml:"id"`
	MinX float32 `yaml:"min_x"`
	MinY float32 `yaml:"min_y"`
	MaxX float32 `yaml:"max_x"`
	MaxY float32 `yaml:"max_y"`
}

// GridRef names a grid by its coordinates.
type GridRef struct {
	X int32 `yaml:"x"`
	Y int32 `yaml:"y"`
}

// MapInfo holds metadata for a single map, loaded from map_list.yaml.
type MapInfo struct {
	MapID   int32      `yaml:"map_id"`
	Name    string     `yaml:"name"`
	Phases  []uint32   `yaml:"phases"` // phase masks; empty = [1]
	Start   *Point     `yaml:"start"`  // marks the map new players enter
	Preload []GridRef  `yaml:"preload"`
	Zones   []ZoneInfo `yaml:"zones"`

	// Overrides of the [world] config section; zero keeps the default.
	ActivationRange float32       `yaml:"activation_range"`
	VisibilityRange float32       `yaml:"visibility_range"`
	GridUnloadDelay time.Duration `yaml:"grid_unload_delay"`
}

type mapListFile struct {
	Maps []MapInfo `yaml:"maps"`
}

// MapTable holds map metadata indexed by map id.
type MapTable struct {
	maps map[int32]*MapInfo
}

// LoadMapList loads map metadata from a YAML file.
func LoadMapList(path string) (*MapTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map_list: %w", err)
	}
	var f mapListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse map_list: %w", err)
	}
	t := &MapTable{maps: make(map[int32]*MapInfo, len(f.Maps))}
	for i := range f.Maps {
		mi := &f.Maps[i]
		if _, dup := t.maps[mi.MapID]; dup {
			return nil, fmt.Errorf("map_list: duplicate map_id %d", mi.MapID)
		}
		if len(mi.Phases) == 0 {
			mi.Phases = []uint32{1}
		}
		if err := checkPhases(mi); err != nil {
			return nil, fmt.Errorf("map_list: %w", err)
		}
		t.maps[mi.MapID] = mi
	}
	return t, nil
}

// checkPhases rejects zero and overlapping phase masks. Every object lives
// in exactly one phase, so masks sharing a bit would make the owning phase
// ambiguous.
func checkPhases(mi *MapInfo) error {
	var seen uint32
	for _, mask := range mi.Phases {
		if mask == 0 {
			return fmt.Errorf("map %d: phase mask 0", mi.MapID)
		}
		if seen&mask != 0 {
			return fmt.Errorf("map %d: phase mask %d overlaps %#b", mi.MapID, mask, seen)
		}
		seen |= mask
	}
	return nil
}

// Get returns a map by id, or nil if not found.
func (t *MapTable) Get(id int32) *MapInfo {
	return t.maps[id]
}

func (t *MapTable) Count() int {
	return len(t.maps)
}

// All returns every map in id order.
func (t *MapTable) All() []*MapInfo {
	out := make([]*MapInfo, 0, len(t.maps))
	for _, mi := range t.maps {
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MapID < out[j].MapID })
	return out
}

// StartPoint returns the entry point of the first map that declares one.
func (t *MapTable) StartPoint() (world.StartPoint, bool) {
	for _, mi := range t.All() {
		if mi.Start != nil {
			return world.StartPoint{MapID: mi.MapID, Pos: mi.Start.Position(), PhaseMask: mi.Phases[0]}, true
		}
	}
	return world.StartPoint{}, false
}

// Settings merges the map's overrides into base.
func (mi *MapInfo) Settings(base world.Settings) world.Settings {
	s := base
	if mi.ActivationRange > 0 {
		s.ActivationRange = mi.ActivationRange
	}
	if mi.VisibilityRange > 0 {
		s.VisibilityRange = mi.VisibilityRange
	}
	if mi.GridUnloadDelay > 0 {
		s.GridUnloadDelay = mi.GridUnloadDelay
	}
	s.Zones = make([]world.Zone, 0, len(mi.Zones))
	for _, z := range mi.Zones {
		s.Zones = append(s.Zones, world.Zone{ID: z.ID, MinX: z.MinX, MinY: z.MinY, MaxX: z.MaxX, MaxY: z.MaxY})
	}
	return s
}

// Build creates the map described by mi with all its phases and preloaded
// grids.
func (mi *MapInfo) Build(base world.Settings, bus *event.Bus, log *zap.Logger) *world.Map {
	m := world.NewMap(mi.MapID, mi.Name, mi.Settings(base), bus, log)
	for _, mask := range mi.Phases {
		m.AddPhase(mask)
	}
	return m
}

// Preload loads the grids listed for mi. Call after the spawner is in place
// so the grids get populated.
func (mi *MapInfo) Preload(m *world.Map) {
	for _, g := range mi.Preload {
		m.LoadGrid(component.Grid{X: g.X, Y: g.Y})
	}
}
