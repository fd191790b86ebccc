package controller

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"github.com/goliatone/go-formkit/pkg/dependency"
)

// Status is the lifecycle state of a form session.
type Status string

const (
	StatusPristine   Status = "pristine"
	StatusEditing    Status = "editing"
	StatusValidating Status = "validating"
	StatusSubmitting Status = "submitting"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

const (
	eventEdit      = "edit"
	eventValidate  = "validate"
	eventValidated = "validated"
	eventSubmit    = "submit"
	eventSucceed   = "succeed"
	eventFail      = "fail"
	eventReset     = "reset"
)

// FormState is a deep copy of a session's state, safe to hand to renderers.
type FormState struct {
	Session    string                           `json:"session"`
	Status     Status                           `json:"status"`
	Values     map[string]any                   `json:"values"`
	Errors     map[string]string                `json:"errors,omitempty"`
	FormErrors []string                         `json:"formErrors,omitempty"`
	Touched    map[string]bool                  `json:"touched,omitempty"`
	Submitting bool                             `json:"submitting"`
	Options    map[string]dependency.FieldState `json:"-"`
}

// Valid reports whether the state carries no field or form errors.
func (s FormState) Valid() bool {
	return len(s.Errors) == 0 && len(s.FormErrors) == 0
}

func newLifecycle(onEnter fsm.Callback) *fsm.FSM {
	states := func(statuses ...Status) []string {
		out := make([]string, len(statuses))
		for i, status := range statuses {
			out[i] = string(status)
		}
		return out
	}
	callbacks := fsm.Callbacks{}
	if onEnter != nil {
		callbacks["enter_state"] = onEnter
	}
	return fsm.NewFSM(
		string(StatusPristine),
		fsm.Events{
			{Name: eventEdit, Src: states(StatusPristine, StatusEditing, StatusSucceeded, StatusFailed), Dst: string(StatusEditing)},
			{Name: eventValidate, Src: states(StatusPristine, StatusEditing, StatusSucceeded, StatusFailed), Dst: string(StatusValidating)},
			{Name: eventValidated, Src: states(StatusValidating), Dst: string(StatusEditing)},
			{Name: eventSubmit, Src: states(StatusValidating), Dst: string(StatusSubmitting)},
			{Name: eventSucceed, Src: states(StatusSubmitting), Dst: string(StatusSucceeded)},
			{Name: eventFail, Src: states(StatusSubmitting), Dst: string(StatusFailed)},
			{Name: eventReset, Src: states(StatusPristine, StatusEditing, StatusValidating, StatusSubmitting, StatusSucceeded, StatusFailed), Dst: string(StatusPristine)},
		},
		callbacks,
	)
}

func transition(machine *fsm.FSM, event string) error {
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
