package event

import (
	"time"

	"github.com/l1jgo/phasesim/internal/component"
)

// Relocation failure outcomes.
const (
	ActionDespawned = "despawned" // pet removed without saving to a slot
	ActionRemoved   = "removed"   // queued on the map's remove list
	ActionStranded  = "stranded"  // left in place
)

// RelocationFailed is emitted when neither the destination cell nor the
// respawn cell of a queued object could be loaded.
type RelocationFailed struct {
	MapID     int32
	PhaseMask uint32
	GUID      uint64
	Kind      component.ObjectKind
	Action    string
	Position  component.Position
	Target    component.Position
	At        time.Time
}

// ObjectRemoved is emitted when a map drops an object, either from its
// remove list or immediately (pet despawn, logout).
type ObjectRemoved struct {
	MapID    int32
	GUID     uint64
	Kind     component.ObjectKind
	Entry    int32
	Name     string
	Position component.Position
	Deferred bool // went through the remove list
	At       time.Time
}

// PhaseTicked carries the counters of one completed phase tick.
type PhaseTicked struct {
	MapID     int32         `json:"map_id"`
	PhaseMask uint32        `json:"phase_mask"`
	Tick      uint64        `json:"tick"`
	Players   int           `json:"players"`
	Active    int           `json:"active"`
	Transport int           `json:"transports"`
	Visits    int           `json:"visits"`
	Relocated int           `json:"relocated"`
	Respawned int           `json:"respawned"`
	Removed   int           `json:"removed"`
	Despawned int           `json:"despawned"`
	Stranded  int           `json:"stranded"`
	Stale     int           `json:"stale"`
	Foreign   int           `json:"foreign"`
	Duration  time.Duration `json:"duration_ns"`
}
