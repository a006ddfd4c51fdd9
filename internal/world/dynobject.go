package world

import (
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/phase"
)

// DynamicObjectInfo is the data of an area effect.
type DynamicObjectInfo struct {
	Entry     int32
	Name      string
	Pos       component.Position
	PhaseMask uint32
	Radius    float32
	Duration  time.Duration // 0 = until removed
}

// DynamicObject is an area effect, optionally bound to a caster it follows.
type DynamicObject struct {
	Object
	caster    phase.Object
	radius    float32
	remaining time.Duration
	timed     bool
	updates   int
}

func NewDynamicObject(info DynamicObjectInfo, caster phase.Object) *DynamicObject {
	return &DynamicObject{
		Object:    newObject(component.KindDynamicObject, info.Name, info.Entry, info.Pos, info.PhaseMask),
		caster:    caster,
		radius:    info.Radius,
		remaining: info.Duration,
		timed:     info.Duration > 0,
	}
}

func (d *DynamicObject) Update(diff time.Duration) {
	d.updates++
	if d.m == nil {
		return
	}
	if d.timed {
		d.remaining -= diff
		if d.remaining <= 0 {
			d.m.AddObjectToRemoveList(d)
			return
		}
	}
	c := d.caster
	if c == nil || !c.IsInWorld() || c.FindMap() != d.FindMap() {
		return
	}
	if cp := c.Position(); cp.ExactDist2dSq(d.pos) > 0.01 {
		d.m.DynamicObjectRelocation(d, cp)
	}
}

func (d *DynamicObject) Caster() phase.Object     { return d.caster }
func (d *DynamicObject) Radius() float32          { return d.radius }
func (d *DynamicObject) Remaining() time.Duration { return d.remaining }
func (d *DynamicObject) Updates() int             { return d.updates }
