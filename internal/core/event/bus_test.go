package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversNextTick(t *testing.T) {
	b := NewBus()
	var got []uint64
	Subscribe(b, func(ev RelocationFailed) { got = append(got, ev.GUID) })

	Emit(b, RelocationFailed{GUID: 7})
	b.DispatchAll()
	assert.Empty(t, got, "events are not readable in the tick they are emitted")

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []uint64{7}, got)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []uint64{7}, got, "front buffer is cleared by the next swap")
}

func TestBusConcurrentEmit(t *testing.T) {
	b := NewBus()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(mapID int32) {
			defer wg.Done()
			for range 100 {
				Emit(b, PhaseTicked{MapID: mapID})
			}
		}(int32(i))
	}
	wg.Wait()
	assert.Equal(t, 800, Pending[PhaseTicked](b))
}

func TestEmitNilBus(t *testing.T) {
	assert.NotPanics(t, func() { Emit[PhaseTicked](nil, PhaseTicked{}) })
}
