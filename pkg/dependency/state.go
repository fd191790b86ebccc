package dependency

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Status is the load state of a field's options.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusError   Status = "error"
)

const (
	eventLoad    = "load"
	eventSucceed = "succeed"
	eventFail    = "fail"
	eventReset   = "reset"
)

// FieldState is a point-in-time view of a field's options.
type FieldState struct {
	Status     Status
	Options    []model.Option
	Generation uint64
	// Dependency is the controlling value of the latest dispatch.
	Dependency any
	Err        error
}

func newMachine(initial Status, onEnter fsm.Callback) *fsm.FSM {
	all := []string{string(StatusIdle), string(StatusLoading), string(StatusLoaded), string(StatusError)}
	callbacks := fsm.Callbacks{}
	if onEnter != nil {
		callbacks["enter_state"] = onEnter
	}
	return fsm.NewFSM(
		string(initial),
		fsm.Events{
			{Name: eventLoad, Src: all, Dst: string(StatusLoading)},
			{Name: eventSucceed, Src: []string{string(StatusLoading)}, Dst: string(StatusLoaded)},
			{Name: eventFail, Src: []string{string(StatusLoading)}, Dst: string(StatusError)},
			{Name: eventReset, Src: all, Dst: string(StatusIdle)},
		},
		callbacks,
	)
}

// fire applies event, treating a self transition (load while loading, reset
// while idle) as success.
func fire(machine *fsm.FSM, event string) error {
	err := machine.Event(context.Background(), event)
	if err == nil {
		return nil
	}
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return err
}
