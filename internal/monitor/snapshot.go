package monitor

import (
	"github.com/l1jgo/phasesim/internal/phase"
	"github.com/l1jgo/phasesim/internal/world"
)

// Snapshot is the JSON document pushed to viewers.
type Snapshot struct {
	Tick     uint64    `json:"tick"`
	Sessions int       `json:"sessions"`
	Players  int       `json:"players"`
	Maps     []MapView `json:"maps"`
}

type MapView struct {
	ID          int32              `json:"id"`
	Name        string             `json:"name"`
	Objects     int                `json:"objects"`
	Grids       int                `json:"grids"`
	RemoveQueue int                `json:"remove_queue"`
	LastRemoved int                `json:"last_removed"`
	Phases      []phase.TickReport `json:"phases"`
}

// Capture reads the world state. Must run on the world goroutine between
// map updates.
func Capture(tick uint64, w *world.Manager) Snapshot {
	s := Snapshot{
		Tick:     tick,
		Sessions: w.SessionCount(),
		Players:  w.PlayerCount(),
	}
	for _, m := range w.Maps() {
		s.Maps = append(s.Maps, MapView{
			ID:          m.ID(),
			Name:        m.Name(),
			Objects:     m.ObjectCount(),
			Grids:       m.Grid().LoadedGrids(),
			RemoveQueue: m.RemoveListLen(),
			LastRemoved: m.LastRemoved(),
			Phases:      m.Reports(),
		})
	}
	return s
}
