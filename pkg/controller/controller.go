// Package controller runs a single form session: it owns the values, errors
// and touched flags, drives the lifecycle from pristine through submission,
// and keeps dependent option lists in step with their controlling fields.
//
// A Controller expects calls from one owner. Background work is limited to
// option loads, which never mutate the session state; their results are read
// through Snapshot and Options.
package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/goliatone/go-formkit/internal/clone"
	"github.com/goliatone/go-formkit/pkg/defaults"
	"github.com/goliatone/go-formkit/pkg/dependency"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// Controller is the sole mutator of a form session's state.
type Controller struct {
	spec      *model.FormSpec
	validator *validation.Validator
	resolver  *dependency.Resolver
	handler   SubmitHandler
	logger    *zap.Logger
	machine   *fsm.FSM
	ctx       context.Context
	session   string

	validateOnChange bool

	mu         sync.Mutex
	initial    map[string]any
	values     map[string]any
	errors     map[string]string
	formErrors []string
	touched    map[string]bool
	submitting bool
	submitSeq  uint64
	closed     bool
}

// New starts a session for spec. Initial data is completed through the
// default resolver and dynamic options of root fields start loading
// immediately.
func New(spec *model.FormSpec, opts ...Option) (*Controller, error) {
	if spec == nil {
		return nil, fmt.Errorf("controller: form spec is required")
	}
	cfg := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	session := uuid.New().String()
	logger := cfg.logger.With(zap.String("form", spec.ID), zap.String("session", session))

	resolverOpts := []dependency.Option{
		dependency.WithLogger(logger),
		dependency.WithDebounce(cfg.debounce),
		dependency.WithLoaders(cfg.loaders),
	}
	if cfg.notify != nil {
		notify := cfg.notify
		resolverOpts = append(resolverOpts, dependency.WithNotify(func(field string, _ dependency.FieldState) {
			notify(field)
		}))
	}
	resolver, err := dependency.New(spec, resolverOpts...)
	if err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}

	resolved, _ := defaults.New(defaults.WithLogger(logger)).Resolve(spec.Root(), cfg.initial)
	initial, _ := resolved.(map[string]any)
	if initial == nil {
		initial = map[string]any{}
	}

	c := &Controller{
		spec:             spec,
		validator:        validation.Compile(spec.Root()),
		resolver:         resolver,
		handler:          cfg.handler,
		logger:           logger.Named("controller"),
		ctx:              cfg.ctx,
		session:          session,
		validateOnChange: cfg.validateOnChange,
		initial:          initial,
		values:           clone.Map(initial),
		touched:          make(map[string]bool),
	}
	c.machine = newLifecycle(func(_ context.Context, e *fsm.Event) {
		c.logger.Debug("form state changed", zap.String("from", e.Src), zap.String("to", e.Dst))
	})

	if err := resolver.Start(c.ctx, c.values); err != nil {
		resolver.Close()
		return nil, fmt.Errorf("controller: start option loads: %w", err)
	}
	return c, nil
}

// Session returns the session id.
func (c *Controller) Session() string {
	return c.session
}

// Spec returns the form being edited.
func (c *Controller) Spec() *model.FormSpec {
	return c.spec
}

// Status returns the lifecycle state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status(c.machine.Current())
}

// Value returns the current value of a top-level field.
func (c *Controller) Value(name string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.spec.Has(name) {
		return nil, false
	}
	return clone.Value(c.values[name]), true
}

// Options returns the option state of a field.
func (c *Controller) Options(name string) (dependency.FieldState, bool) {
	return c.resolver.State(name)
}

// SetValue stores value for the top-level field name, marks it touched and
// clears its stale error. When name controls other fields, their selections
// are cleared and their options reload in the background.
func (c *Controller) SetValue(name string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usableLocked(); err != nil {
		return err
	}
	if !c.spec.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	c.values[name] = value
	c.touched[name] = true
	c.clearErrorsLocked(name)
	c.fire(eventEdit)

	if c.spec.Controls(name) {
		for _, dependent := range c.resolver.Changed(c.ctx, name, value) {
			c.values[dependent] = nil
			c.clearErrorsLocked(dependent)
		}
	}

	if c.validateOnChange {
		for path, msg := range c.validator.ValidateField(c.values, name) {
			if c.errors == nil {
				c.errors = make(map[string]string)
			}
			c.errors[path] = msg
		}
	}
	return nil
}

// Validate runs the validator over the current values, replaces the error
// map and reports whether the form may be submitted.
func (c *Controller) Validate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.usableLocked() != nil {
		return false
	}
	c.fire(eventValidate)
	result := c.validator.Validate(c.values)
	c.errors = result.Errors
	c.formErrors = nil
	c.fire(eventValidated)
	return result.Valid()
}

// Submit validates the form and, when valid, hands the typed value tree to
// the submit handler and waits for it. Invalid forms return
// ErrValidationFailed without invoking the handler; a valid form without a
// handler returns ErrNoSubmitHandler. A handler error moves
// the session to failed, keeps the values and is returned wrapped; it is
// never retried.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if err := c.usableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.fire(eventValidate)
	result := c.validator.Validate(c.values)
	c.errors = result.Errors
	c.formErrors = nil
	if !result.Valid() {
		c.fire(eventValidated)
		c.logger.Debug("submit blocked by validation", zap.Int("errors", len(result.Errors)))
		c.mu.Unlock()
		return ErrValidationFailed
	}
	if c.handler == nil {
		c.fire(eventValidated)
		c.mu.Unlock()
		return ErrNoSubmitHandler
	}

	c.fire(eventSubmit)
	c.submitting = true
	c.submitSeq++
	seq := c.submitSeq
	payload := clone.Map(result.Value)
	c.mu.Unlock()

	err := c.callHandler(ctx, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.submitSeq || c.closed {
		// Reset or Close ran while the handler was working.
		return err
	}
	c.submitting = false
	if err != nil {
		mapping := MapSubmitError(c.spec.Root(), err)
		for path, messages := range mapping.Fields {
			if c.errors == nil {
				c.errors = make(map[string]string)
			}
			c.errors[path] = strings.Join(messages, "; ")
		}
		c.formErrors = mapping.Form
		c.fire(eventFail)
		c.logger.Warn("submit handler failed", zap.Error(err))
		return fmt.Errorf("controller: submit: %w", err)
	}
	c.fire(eventSucceed)
	c.logger.Info("form submitted")
	return nil
}

func (c *Controller) callHandler(ctx context.Context, payload map[string]any) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("submit handler panicked: %v", recovered)
		}
	}()
	return c.handler(ctx, payload)
}

// Reset restores the initial values, clears errors and touched flags,
// returns to pristine and restarts option loads. A submission still in
// flight keeps running but its outcome is ignored.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.values = clone.Map(c.initial)
	c.errors = nil
	c.formErrors = nil
	c.touched = make(map[string]bool)
	c.submitting = false
	c.submitSeq++
	c.fire(eventReset)

	c.resolver.Reset()
	return c.resolver.Start(c.ctx, c.values)
}

// Wait blocks until pending option loads have settled.
func (c *Controller) Wait() {
	c.resolver.Wait()
}

// Close cancels background option loads. The controller cannot be used
// afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.resolver.Close()
}

// Snapshot returns a deep copy of the session state.
func (c *Controller) Snapshot() FormState {
	c.mu.Lock()
	state := FormState{
		Session:    c.session,
		Status:     Status(c.machine.Current()),
		Values:     clone.Map(c.values),
		Submitting: c.submitting,
		FormErrors: append([]string(nil), c.formErrors...),
	}
	if len(c.errors) > 0 {
		state.Errors = make(map[string]string, len(c.errors))
		for path, msg := range c.errors {
			state.Errors[path] = msg
		}
	}
	if len(c.touched) > 0 {
		state.Touched = make(map[string]bool, len(c.touched))
		for name, touched := range c.touched {
			state.Touched[name] = touched
		}
	}
	c.mu.Unlock()

	state.Options = c.resolver.States()
	return state
}

func (c *Controller) usableLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.submitting {
		return ErrSubmitInProgress
	}
	return nil
}

func (c *Controller) clearErrorsLocked(name string) {
	prefix := name + "."
	for path := range c.errors {
		if path == name || strings.HasPrefix(path, prefix) {
			delete(c.errors, path)
		}
	}
}

func (c *Controller) fire(event string) {
	if err := transition(c.machine, event); err != nil {
		c.logger.Error("form state transition failed", zap.String("event", event), zap.Error(err))
	}
}
