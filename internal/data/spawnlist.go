package data

import (
	"fmt"
	"os"
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/world"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// CreatureSpawn places one creature.
type CreatureSpawn struct {
	Entry        int32         `yaml:"entry"`
	Name         string        `yaml:"name"`
	MapID        int32         `yaml:"map_id"`
	Phase        uint32        `yaml:"phase"`
	Home         Point         `yaml:"home"`
	Active       bool          `yaml:"active"`
	WanderRadius float32       `yaml:"wander_radius"`
	Speed        float32       `yaml:"speed"`
	MoveInterval time.Duration `yaml:"move_interval"`
	LeashRange   float32       `yaml:"leash_range"`
	// Seats turns the creature into a vehicle with one seat per offset.
	Seats []Point `yaml:"seats"`
}

// GameObjectSpawn places one game object.
type GameObjectSpawn struct {
	Entry    int32         `yaml:"entry"`
	Name     string        `yaml:"name"`
	MapID    int32         `yaml:"map_id"`
	Phase    uint32        `yaml:"phase"`
	Pos      Point         `yaml:"pos"`
	Radius   float32       `yaml:"radius"`
	Height   float32       `yaml:"height"`
	Lifetime time.Duration `yaml:"lifetime"`
	Path     []Point       `yaml:"path"`
	Speed    float32       `yaml:"speed"`
}

// DynamicObjectSpawn places one standing area effect.
type DynamicObjectSpawn struct {
	Entry    int32         `yaml:"entry"`
	Name     string        `yaml:"name"`
	MapID    int32         `yaml:"map_id"`
	Phase    uint32        `yaml:"phase"`
	Pos      Point         `yaml:"pos"`
	Radius   float32       `yaml:"radius"`
	Duration time.Duration `yaml:"duration"`
}

// TransportSpawn places one motion transport.
type TransportSpawn struct {
	Entry int32   `yaml:"entry"`
	Name  string  `yaml:"name"`
	MapID int32   `yaml:"map_id"`
	Phase uint32  `yaml:"phase"`
	Path  []Point `yaml:"path"`
	Speed float32 `yaml:"speed"`
}

type spawnListFile struct {
	Creatures      []CreatureSpawn      `yaml:"creatures"`
	GameObjects    []GameObjectSpawn    `yaml:"game_objects"`
	DynamicObjects []DynamicObjectSpawn `yaml:"dynamic_objects"`
	Transports     []TransportSpawn     `yaml:"transports"`
}

// SpawnTable holds every static spawn, grouped by map.
type SpawnTable struct {
	file spawnListFile
}

// LoadSpawnList loads spawn entries from a YAML file.
func LoadSpawnList(path string) (*SpawnTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn_list: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn_list: %w", err)
	}
	for _, tr := range f.Transports {
		if len(tr.Path) < 2 {
			return nil, fmt.Errorf("spawn_list: transport %q needs at least two path points", tr.Name)
		}
	}
	return &SpawnTable{file: f}, nil
}

// Count returns the number of spawn entries.
func (t *SpawnTable) Count() int {
	f := &t.file
	return len(f.Creatures) + len(f.GameObjects) + len(f.DynamicObjects) + len(f.Transports)
}

// Spawner builds the spawner of one map.
func (t *SpawnTable) Spawner(mapID int32, mover world.Mover, log *zap.Logger) *world.Spawner {
	s := world.NewSpawner(mover, log)
	for _, c := range t.file.Creatures {
		if c.MapID != mapID {
			continue
		}
		s.AddCreature(world.CreatureInfo{
			Entry:        c.Entry,
			Name:         c.Name,
			Home:         c.Home.Position(),
			PhaseMask:    c.Phase,
			Active:       c.Active,
			WanderRadius: c.WanderRadius,
			Speed:        c.Speed,
			MoveInterval: c.MoveInterval,
			LeashRange:   c.LeashRange,
			Seats:        positions(c.Seats),
		})
	}
	for _, g := range t.file.GameObjects {
		if g.MapID != mapID {
			continue
		}
		s.AddGameObject(world.GameObjectInfo{
			Entry:     g.Entry,
			Name:      g.Name,
			Pos:       g.Pos.Position(),
			PhaseMask: g.Phase,
			Radius:    g.Radius,
			Height:    g.Height,
			Lifetime:  g.Lifetime,
			Path:      positions(g.Path),
			Speed:     g.Speed,
		})
	}
	for _, d := range t.file.DynamicObjects {
		if d.MapID != mapID {
			continue
		}
		s.AddDynamicObject(world.DynamicObjectInfo{
			Entry:     d.Entry,
			Name:      d.Name,
			Pos:       d.Pos.Position(),
			PhaseMask: d.Phase,
			Radius:    d.Radius,
			Duration:  d.Duration,
		})
	}
	for _, tr := range t.file.Transports {
		if tr.MapID != mapID {
			continue
		}
		s.AddTransport(world.TransportInfo{
			Entry:     tr.Entry,
			Name:      tr.Name,
			PhaseMask: tr.Phase,
			Path:      positions(tr.Path),
			Speed:     tr.Speed,
		})
	}
	return s
}

func positions(pts []Point) []component.Position {
	if len(pts) == 0 {
		return nil
	}
	out := make([]component.Position, len(pts))
	for i, p := range pts {
		out[i] = p.Position()
	}
	return out
}
