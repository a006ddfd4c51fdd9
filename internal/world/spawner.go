package world

import (
	"github.com/l1jgo/phasesim/internal/component"
	"go.uber.org/zap"
)

// Spawner populates grids from static spawn data as they load. Active
// creatures and transports do not wait for a grid: Populate places them when
// the map starts.
type Spawner struct {
	creatures   []CreatureInfo
	gameObjects []GameObjectInfo
	dynObjects  []DynamicObjectInfo
	transports  []TransportInfo
	mover       Mover
	log         *zap.Logger
}

func NewSpawner(mover Mover, log *zap.Logger) *Spawner {
	return &Spawner{mover: mover, log: log}
}

func (s *Spawner) AddCreature(info CreatureInfo)           { s.creatures = append(s.creatures, info) }
func (s *Spawner) AddGameObject(info GameObjectInfo)       { s.gameObjects = append(s.gameObjects, info) }
func (s *Spawner) AddDynamicObject(info DynamicObjectInfo) { s.dynObjects = append(s.dynObjects, info) }
func (s *Spawner) AddTransport(info TransportInfo)         { s.transports = append(s.transports, info) }

// Len returns the number of spawn entries.
func (s *Spawner) Len() int {
	return len(s.creatures) + len(s.gameObjects) + len(s.dynObjects) + len(s.transports)
}

// Populate installs s as the grid loader of m and places the objects that
// live independently of any grid.
func (s *Spawner) Populate(m *Map) {
	m.SetGridLoader(s)
	for _, info := range s.transports {
		m.AddPhase(phaseOr1(info.PhaseMask))
		if err := m.AddTransport(NewTransport(info)); err != nil {
			s.log.Warn("transport spawn failed", zap.String("name", info.Name), zap.Error(err))
		}
	}
	for _, info := range s.creatures {
		if !info.Active {
			continue
		}
		s.spawnCreature(m, info)
	}
}

// LoadGrid places the grid-bound spawns whose home lies in g.
func (s *Spawner) LoadGrid(m *Map, g component.Grid) {
	n := 0
	for _, info := range s.creatures {
		if info.Active || component.CellOf(info.Home).Grid() != g {
			continue
		}
		if s.spawnCreature(m, info) {
			n++
		}
	}
	for _, info := range s.gameObjects {
		if component.CellOf(info.Pos).Grid() != g {
			continue
		}
		m.AddPhase(phaseOr1(info.PhaseMask))
		if err := m.AddGameObject(NewGameObject(info)); err != nil {
			s.log.Warn("game object spawn failed", zap.String("name", info.Name), zap.Error(err))
			continue
		}
		n++
	}
	for _, info := range s.dynObjects {
		if component.CellOf(info.Pos).Grid() != g {
			continue
		}
		m.AddPhase(phaseOr1(info.PhaseMask))
		if err := m.AddDynamicObject(NewDynamicObject(info, nil)); err != nil {
			s.log.Warn("dynamic object spawn failed", zap.String("name", info.Name), zap.Error(err))
			continue
		}
		n++
	}
	if n > 0 {
		s.log.Debug("grid populated", zap.Int32("map", m.ID()), zap.Int32("gx", g.X), zap.Int32("gy", g.Y), zap.Int("objects", n))
	}
}

func (s *Spawner) spawnCreature(m *Map, info CreatureInfo) bool {
	m.AddPhase(phaseOr1(info.PhaseMask))
	c := NewCreature(info)
	if s.mover != nil {
		c.SetMover(s.mover)
	}
	if err := m.AddCreature(c); err != nil {
		s.log.Warn("creature spawn failed", zap.String("name", info.Name), zap.Error(err))
		return false
	}
	return true
}

func phaseOr1(mask uint32) uint32 {
	if mask == 0 {
		return 1
	}
	return mask
}
