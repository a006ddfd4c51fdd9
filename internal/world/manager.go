package world

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/l1jgo/phasesim/internal/core/event"
	"github.com/l1jgo/phasesim/internal/net"
	"github.com/l1jgo/phasesim/internal/net/packet"
	"go.uber.org/zap"
)

var ErrUnknownMap = errors.New("unknown map")

// StartPoint is where new players enter the world.
type StartPoint struct {
	MapID     int32
	Pos       component.Position
	PhaseMask uint32
}

// Manager owns every map and the session-to-player index. Its methods run on
// the world loop, never concurrently with map ticks.
type Manager struct {
	maps  map[int32]*Map
	order []int32

	sessions map[uint64]*net.Session
	players  map[uint64]*Player // by session id
	start    StartPoint

	bus *event.Bus
	log *zap.Logger
}

func NewManager(bus *event.Bus, log *zap.Logger) *Manager {
	return &Manager{
		maps:     make(map[int32]*Map),
		sessions: make(map[uint64]*net.Session),
		players:  make(map[uint64]*Player),
		start:    StartPoint{PhaseMask: 1},
		bus:      bus,
		log:      log,
	}
}

func (w *Manager) Bus() *event.Bus { return w.bus }

// AddMap registers m. A second map with the same id replaces nothing and
// returns an error.
func (w *Manager) AddMap(m *Map) error {
	if _, dup := w.maps[m.ID()]; dup {
		return fmt.Errorf("map %d already registered", m.ID())
	}
	w.maps[m.ID()] = m
	w.order = append(w.order, m.ID())
	sort.Slice(w.order, func(i, j int) bool { return w.order[i] < w.order[j] })
	return nil
}

// Map returns the map with id, or nil.
func (w *Manager) Map(id int32) *Map {
	return w.maps[id]
}

// Maps returns every map in id order.
func (w *Manager) Maps() []*Map {
	out := make([]*Map, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.maps[id])
	}
	return out
}

func (w *Manager) SetStart(sp StartPoint) {
	if sp.PhaseMask == 0 {
		sp.PhaseMask = 1
	}
	w.start = sp
}

// Accept registers a freshly connected session.
func (w *Manager) Accept(sess *net.Session) {
	w.sessions[sess.ID] = sess
	w.log.Info("session accepted", zap.Uint64("session", sess.ID), zap.String("remote", sess.RemoteAddr))
}

// SessionCount returns the number of connected sessions.
func (w *Manager) SessionCount() int { return len(w.sessions) }

// PlayerCount returns the number of players in the world.
func (w *Manager) PlayerCount() int { return len(w.players) }

// Login places a player for sess at the start point.
func (w *Manager) Login(sess *net.Session, name string) (*Player, error) {
	if p := w.players[sess.ID]; p != nil {
		return p, nil
	}
	m := w.maps[w.start.MapID]
	if m == nil {
		return nil, fmt.Errorf("start map %d: %w", w.start.MapID, ErrUnknownMap)
	}
	m.AddPhase(w.start.PhaseMask)
	p := NewPlayer(name, sess, w.start.Pos, w.start.PhaseMask)
	if err := m.AddPlayer(p); err != nil {
		return nil, fmt.Errorf("place %s: %w", name, err)
	}
	w.players[sess.ID] = p
	w.log.Info("player entered world",
		zap.String("name", name),
		zap.Uint64("guid", p.GUID()),
		zap.Int32("map", m.ID()),
	)
	return p, nil
}

// Logout removes the player of sess and its pet from their map.
func (w *Manager) Logout(sess *net.Session) {
	p := w.players[sess.ID]
	if p == nil {
		return
	}
	delete(w.players, sess.ID)
	if pet := p.pet; pet != nil && pet.m != nil {
		pet.m.RemoveFromMap(pet)
	}
	if m := p.m; m != nil {
		m.RemoveFromMap(p)
	}
	w.log.Info("player left world", zap.String("name", p.name), zap.Uint64("guid", p.guid))
}

// Transfer moves p to another map. The pet follows its owner.
func (w *Manager) Transfer(p *Player, mapID int32, pos component.Position) error {
	dst := w.maps[mapID]
	if dst == nil {
		return fmt.Errorf("transfer to %d: %w", mapID, ErrUnknownMap)
	}
	if p.session != nil {
		p.session.SetState(packet.StateTransferring)
	}
	pet := p.pet
	if pet != nil && pet.m != nil {
		pet.m.RemoveFromMap(pet)
	}
	if p.m != nil {
		p.m.RemoveFromMap(p)
	}
	dst.AddPhase(p.phaseMask)
	p.pos = pos
	if err := dst.AddPlayer(p); err != nil {
		return fmt.Errorf("transfer to %d: %w", mapID, err)
	}
	if pet != nil && !pet.removed {
		pet.pos = pos
		if err := dst.AddPet(pet); err != nil {
			w.log.Warn("pet transfer failed", zap.Uint64("guid", pet.guid), zap.Error(err))
		}
	}
	return nil
}

// UpdateSessions pumps every session with the world filter and logs out
// sessions that closed.
func (w *Manager) UpdateSessions(diff time.Duration) {
	for id, sess := range w.sessions {
		if sess.Update(diff, net.NewWorldSessionFilter(sess)) {
			continue
		}
		w.Logout(sess)
		delete(w.sessions, id)
		w.log.Info("session closed", zap.Uint64("session", id))
	}
}

// FlushSessions moves buffered output of every session to its transport.
func (w *Manager) FlushSessions() {
	for _, sess := range w.sessions {
		sess.FlushOutput()
	}
}

// PlayerBySession returns the player of a session, or nil.
func (w *Manager) PlayerBySession(id uint64) *Player {
	return w.players[id]
}

// EachPlayer walks every player in the world.
func (w *Manager) EachPlayer(fn func(*Player)) {
	for _, p := range w.players {
		fn(p)
	}
}
