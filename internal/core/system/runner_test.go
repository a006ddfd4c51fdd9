package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	phase Phase
	name  string
	out   *[]string
	sleep time.Duration
}

func (r recorder) Phase() Phase { return r.phase }
func (r recorder) Update(time.Duration) {
	*r.out = append(*r.out, r.name)
	if r.sleep > 0 {
		time.Sleep(r.sleep)
	}
}

func TestRunnerPhaseOrder(t *testing.T) {
	var out []string
	r := NewRunner(0, zap.NewNop())
	r.Register(recorder{phase: PhaseCleanup, name: "cleanup", out: &out})
	r.Register(recorder{phase: PhaseUpdate, name: "maps", out: &out})
	r.Register(recorder{phase: PhasePreUpdate, name: "events", out: &out})
	r.Register(recorder{phase: PhaseUpdate, name: "maps2", out: &out})

	r.Tick(100 * time.Millisecond)
	assert.Equal(t, []string{"events", "maps", "maps2", "cleanup"}, out)

	out = out[:0]
	r.TickPhase(PhaseUpdate, 0)
	assert.Equal(t, []string{"maps", "maps2"}, out)
}

func TestRunnerWarnsOnOverrun(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	var out []string
	r := NewRunner(time.Millisecond, zap.New(core))
	r.Register(recorder{phase: PhaseUpdate, name: "slow", out: &out, sleep: 5 * time.Millisecond})

	r.Tick(time.Millisecond)
	assert.Equal(t, 1, logs.FilterMessage("tick overran budget").Len())
}
