package setup

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/setup-texlive/internal/domain/cache"
)

// State is a stage of a provisioning run.
type State string

const (
	// StateUninitialized is the state before the cache has been consulted.
	StateUninitialized State = "uninitialized"
	// StateCacheHitFull means the cache held exactly the requested installation.
	StateCacheHitFull State = "cache-hit-full"
	// StateCacheHitPartial means the cache held an installation of the same
	// release with a different package set.
	StateCacheHitPartial State = "cache-hit-partial"
	// StateCacheMiss means TeX Live is installed from scratch.
	StateCacheMiss State = "cache-miss"
	// StateConfigured means the installation is on the PATH with every
	// requested package.
	StateConfigured State = "configured"
	// StateReady means outputs and the post-step state have been written.
	StateReady State = "ready"
	// StateFailed is entered on the first fatal error.
	StateFailed State = "failed"
)

// Event types for the run state machine.
const (
	EventFullHit    = "FULL_HIT"
	EventPartialHit = "PARTIAL_HIT"
	EventMiss       = "MISS"
	EventConfigured = "CONFIGURED"
	EventReady      = "READY"
	EventFail       = "FAIL"
)

// Context is the statekit context of a run. Run data lives on the run
// itself.
type Context struct{}

// run tracks the stages of one provisioning run.
type run struct {
	interp  *statekit.Interpreter[Context]
	history []State
	err     error
}

// newRun builds the state machine of a run. Actions append to the run
// through the captured pointer.
func newRun() (*run, error) {
	r := &run{}
	machine, err := statekit.NewMachine[Context]("setup-texlive").
		WithInitial(statekit.StateID(StateUninitialized)).
		WithContext(Context{}).
		WithAction("recordOutcome", func(_ *Context, event statekit.Event) {
			r.record(event)
		}).
		WithAction("recordError", func(_ *Context, event statekit.Event) {
			if err, ok := event.Payload.(error); ok {
				r.err = err
			}
			r.record(event)
		}).
		WithAction("recordStage", func(_ *Context, event statekit.Event) {
			r.record(event)
		}).
		State(statekit.StateID(StateUninitialized)).
		On(EventFullHit).Target(statekit.StateID(StateCacheHitFull)).
		On(EventPartialHit).Target(statekit.StateID(StateCacheHitPartial)).
		On(EventMiss).Target(statekit.StateID(StateCacheMiss)).
		On(EventFail).Target(statekit.StateID(StateFailed)).Done().
		State(statekit.StateID(StateCacheHitFull)).
		OnEntry("recordOutcome").
		On(EventConfigured).Target(statekit.StateID(StateConfigured)).
		On(EventFail).Target(statekit.StateID(StateFailed)).Done().
		State(statekit.StateID(StateCacheHitPartial)).
		OnEntry("recordOutcome").
		On(EventConfigured).Target(statekit.StateID(StateConfigured)).
		On(EventFail).Target(statekit.StateID(StateFailed)).Done().
		State(statekit.StateID(StateCacheMiss)).
		OnEntry("recordOutcome").
		On(EventConfigured).Target(statekit.StateID(StateConfigured)).
		On(EventFail).Target(statekit.StateID(StateFailed)).Done().
		State(statekit.StateID(StateConfigured)).
		OnEntry("recordStage").
		On(EventReady).Target(statekit.StateID(StateReady)).
		On(EventFail).Target(statekit.StateID(StateFailed)).Done().
		State(statekit.StateID(StateReady)).
		OnEntry("recordStage").
		On(EventFail).Target(statekit.StateID(StateFailed)).Done().
		State(statekit.StateID(StateFailed)).
		OnEntry("recordError").
		On(EventFail).Target(statekit.StateID(StateFailed)).Done().
		Build()
	if err != nil {
		return nil, err
	}
	r.interp = statekit.NewInterpreter(machine)
	r.history = []State{StateUninitialized}
	return r, nil
}

func (r *run) record(event statekit.Event) {
	if to, ok := targets[string(event.Type)]; ok {
		r.history = append(r.history, to)
	}
}

var targets = map[string]State{
	EventFullHit:    StateCacheHitFull,
	EventPartialHit: StateCacheHitPartial,
	EventMiss:       StateCacheMiss,
	EventConfigured: StateConfigured,
	EventReady:      StateReady,
	EventFail:       StateFailed,
}

func (r *run) start() {
	r.interp.Start()
}

func (r *run) stop() {
	r.interp.Stop()
}

// State returns the current state.
func (r *run) State() State {
	return State(r.interp.State().Value)
}

// advance sends event and checks that the machine reached its target.
func (r *run) advance(event string) error {
	want := targets[event]
	r.interp.Send(statekit.Event{Type: statekit.EventType(event)})
	if got := r.State(); got != want {
		return fmt.Errorf("invalid transition %s: in state %s, expected %s", event, got, want)
	}
	return nil
}

// fail moves the run to StateFailed, remembering err.
func (r *run) fail(err error) {
	r.interp.Send(statekit.Event{Type: EventFail, Payload: err})
}

// outcomeEvent maps a restore outcome to its event.
func outcomeEvent(o cache.Outcome) string {
	switch o {
	case cache.FullHit:
		return EventFullHit
	case cache.PartialHit:
		return EventPartialHit
	default:
		return EventMiss
	}
}
