package phase

import (
	"testing"

	"github.com/l1jgo/phasesim/internal/component"
	"github.com/stretchr/testify/assert"
)

func TestObjectUpdaterFilters(t *testing.T) {
	m := newFakeMap(1)
	mob := newFakeObject(1, component.KindCreature, m)
	gone := newFakeObject(2, component.KindCreature, m)
	gone.inWorld = false
	other := newFakeObject(3, component.KindGameObject, m)
	other.mask = 4
	shared := newFakeObject(4, component.KindGameObject, m)
	shared.mask = 1 | 4
	pl := newFakePlayer(5, m)

	u := NewObjectUpdater(tick, 1)
	for _, obj := range []Object{mob, gone, other, shared, pl, nil} {
		u.Update(obj)
	}

	assert.Equal(t, 1, u.Updated())
	assert.Equal(t, 1, mob.updates)
	assert.Zero(t, shared.updates)
	assert.Zero(t, gone.updates)
	assert.Zero(t, other.updates)
	assert.Zero(t, pl.updates)
}

func TestOverlappingPhasesAdvanceOnce(t *testing.T) {
	m := newFakeMap(1)
	obj := newFakeObject(1, component.KindCreature, m)
	obj.mask = 3

	// one map tick visits the object from phase 1 and from phase 3
	for _, mask := range []uint32{1, 3} {
		NewObjectUpdater(tick, mask).Update(obj)
	}
	assert.Equal(t, 1, obj.updates)
}

func TestContainerVisitorMatchesStorage(t *testing.T) {
	m := newFakeMap(1)
	mob := newFakeObject(1, component.KindCreature, m)
	pet := &fakePet{fakeObject: newFakeObject(2, component.KindPet, m)}
	objs := []Object{mob, pet}

	u := NewObjectUpdater(tick, 1)
	grid := NewContainerVisitor(StorageGrid, u)

	grid.Visit(fakeBucket{storage: StorageWorld, objects: objs})
	assert.Zero(t, u.Updated())

	grid.Visit(fakeBucket{storage: StorageGrid, objects: objs})
	assert.Equal(t, 1, mob.updates)
	assert.Zero(t, pet.updates)

	grid.Visit(nil)
	assert.Equal(t, 1, u.Updated())
}
