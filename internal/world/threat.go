package world

// threatEntry is one player on a creature's threat list.
type threatEntry struct {
	target *Player
	amount float32
}

// ThreatList is a creature's ordered list of players it is fighting. Each
// entry is mirrored by a hostile reference on the target player, so a player
// can walk the creatures that threaten it.
// Game loop only; no locks.
type ThreatList struct {
	owner   *Creature
	entries []threatEntry
	victim  *Player // cached top entry
}

// Add accumulates threat and keeps the cached top target current.
// A target whose total passes the current one takes over.
func (t *ThreatList) Add(p *Player, amount float32) {
	if p == nil || amount <= 0 {
		return
	}
	i := t.index(p)
	if i < 0 {
		t.entries = append(t.entries, threatEntry{target: p, amount: amount})
		p.addHostile(t.owner)
		i = len(t.entries) - 1
	} else {
		t.entries[i].amount += amount
	}

	if t.victim == nil {
		t.victim = p
		return
	}
	if p != t.victim && t.entries[i].amount > t.Amount(t.victim) {
		t.victim = p
	}
}

// Remove drops a target that disconnected or left the map.
func (t *ThreatList) Remove(p *Player) {
	i := t.index(p)
	if i < 0 {
		return
	}
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	p.removeHostile(t.owner)
	if t.victim == p {
		t.victim = t.top()
	}
}

// Clear empties the list when the owner dies or is sent home.
func (t *ThreatList) Clear() {
	for _, e := range t.entries {
		e.target.removeHostile(t.owner)
	}
	clear(t.entries)
	t.entries = t.entries[:0]
	t.victim = nil
}

// Victim returns the player with the most threat, or nil.
func (t *ThreatList) Victim() *Player {
	return t.victim
}

func (t *ThreatList) Amount(p *Player) float32 {
	if i := t.index(p); i >= 0 {
		return t.entries[i].amount
	}
	return 0
}

func (t *ThreatList) Len() int {
	return len(t.entries)
}

// Total returns the summed threat of all targets.
func (t *ThreatList) Total() float32 {
	var total float32
	for _, e := range t.entries {
		total += e.amount
	}
	return total
}

func (t *ThreatList) top() *Player {
	var best *Player
	var max float32 = -1
	for _, e := range t.entries {
		if e.amount > max {
			max = e.amount
			best = e.target
		}
	}
	return best
}

func (t *ThreatList) index(p *Player) int {
	for i, e := range t.entries {
		if e.target == p {
			return i
		}
	}
	return -1
}
