package net

import "github.com/l1jgo/phasesim/internal/net/packet"

// PacketFilter decides whether a loop may run a packet with the given
// processing place right now.
type PacketFilter interface {
	Process(mode packet.Processing) bool
}

// FilterSubject is the session state a filter looks at.
type FilterSubject interface {
	State() packet.SessionState
}

// MapSessionFilter admits packets that are safe to run inside the tick of
// the session's current map.
type MapSessionFilter struct {
	sess FilterSubject
}

func NewMapSessionFilter(sess FilterSubject) MapSessionFilter {
	return MapSessionFilter{sess: sess}
}

func (f MapSessionFilter) Process(mode packet.Processing) bool {
	switch mode {
	case packet.ProcessInPlace:
		return true
	case packet.ProcessThreadUnsafe:
		return false
	}
	// map-safe handlers need the player on a map
	return f.sess.State() == packet.StateInWorld
}

// WorldSessionFilter admits packets for the single-threaded world loop.
// Map-safe packets of players already in the world are left to the map.
type WorldSessionFilter struct {
	sess FilterSubject
}

func NewWorldSessionFilter(sess FilterSubject) WorldSessionFilter {
	return WorldSessionFilter{sess: sess}
}

func (f WorldSessionFilter) Process(mode packet.Processing) bool {
	switch mode {
	case packet.ProcessInPlace, packet.ProcessThreadUnsafe:
		return true
	}
	return f.sess.State() != packet.StateInWorld
}
