package world

import (
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/phase"
)

// TransportInfo is the data of a motion transport.
type TransportInfo struct {
	Entry     int32
	Name      string
	PhaseMask uint32
	Path      []component.Position // looped
	Speed     float32
}

type transportPassenger struct {
	obj    worldObject
	offset component.Position
}

// Transport is a platform that follows a looped path and carries
// passengers. It is not filed in any cell; the phase ticks it every tick.
type Transport struct {
	Object
	path       []component.Position
	speed      float32
	leg        int
	passengers []transportPassenger
	updates    int
}

func NewTransport(info TransportInfo) *Transport {
	var start component.Position
	if len(info.Path) > 0 {
		start = info.Path[0]
	}
	t := &Transport{
		Object: newObject(component.KindTransport, info.Name, info.Entry, start, info.PhaseMask),
		path:   info.Path,
		speed:  info.Speed,
	}
	if t.speed <= 0 {
		t.speed = defaultSpeed
	}
	if len(t.path) > 1 {
		t.leg = 1
	}
	return t
}

func (t *Transport) Update(diff time.Duration) {
	t.updates++
	if t.m == nil || len(t.path) < 2 {
		return
	}
	budget := t.speed * float32(diff.Seconds())
	pos := t.pos
	// one tick may pass several waypoints
	for i := 0; budget > 0 && i < len(t.path); i++ {
		target := t.path[t.leg]
		d := pos.ExactDist2d(target)
		if d > budget {
			pos, _ = stepToward(pos, target, budget, 0)
			break
		}
		budget -= d
		pos = target
		t.leg = (t.leg + 1) % len(t.path)
	}
	t.m.TransportRelocation(t, pos)
}

// AddPassenger carries obj at the given offset from the transport.
func (t *Transport) AddPassenger(obj phase.Object, offset component.Position) bool {
	wo, ok := obj.(worldObject)
	if !ok {
		return false
	}
	for _, p := range t.passengers {
		if p.obj.GUID() == obj.GUID() {
			return false
		}
	}
	t.passengers = append(t.passengers, transportPassenger{obj: wo, offset: offset})
	return true
}

func (t *Transport) RemovePassenger(obj phase.Object) {
	for i, p := range t.passengers {
		if p.obj.GUID() == obj.GUID() {
			t.passengers = append(t.passengers[:i], t.passengers[i+1:]...)
			return
		}
	}
}

func (t *Transport) Passengers() int { return len(t.passengers) }
func (t *Transport) Updates() int    { return t.updates }
