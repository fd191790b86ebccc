package controller_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-formkit/pkg/controller"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/testsupport"
)

func profileSpec(t *testing.T) *model.FormSpec {
	t.Helper()
	spec, err := model.Build(model.FormConfig{
		ID: "profile",
		Fields: []model.FieldConfig{
			{Name: "name", Schema: schema.Config{Kind: schema.KindString, Required: true}},
			{Name: "age", Schema: schema.Config{
				Kind:        schema.KindNumber,
				Required:    true,
				Constraints: []schema.ConstraintConfig{schema.Min(0, ""), schema.Max(120, "")},
			}},
		},
	}, nil)
	if err != nil {
		t.Fatalf("spec: %v", err)
	}
	return spec
}

func newController(t *testing.T, spec *model.FormSpec, opts ...controller.Option) *controller.Controller {
	t.Helper()
	ctrl, err := controller.New(spec, opts...)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	t.Cleanup(ctrl.Close)
	return ctrl
}

type recordingHandler struct {
	mu     sync.Mutex
	calls  []map[string]any
	result error
}

func (h *recordingHandler) handle(_ context.Context, values map[string]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, values)
	return h.result
}

func TestSubmit_InvalidFormDoesNotCallHandler(t *testing.T) {
	handler := &recordingHandler{}
	ctrl := newController(t, profileSpec(t),
		controller.WithInitialData(map[string]any{"name": "", "age": 200}),
		controller.WithSubmitHandler(handler.handle),
	)

	err := ctrl.Submit(context.Background())
	if !errors.Is(err, controller.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	if len(handler.calls) != 0 {
		t.Fatalf("handler must not be invoked, got %d calls", len(handler.calls))
	}

	state := ctrl.Snapshot()
	want := map[string]string{"name": "required", "age": "max"}
	if diff := cmp.Diff(want, state.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if state.Status != controller.StatusEditing {
		t.Fatalf("expected editing, got %s", state.Status)
	}
}

func TestSubmit_SuccessPassesTypedValues(t *testing.T) {
	handler := &recordingHandler{}
	ctrl := newController(t, profileSpec(t), controller.WithSubmitHandler(handler.handle))

	if ctrl.Status() != controller.StatusPristine {
		t.Fatalf("expected pristine, got %s", ctrl.Status())
	}
	if err := ctrl.SetValue("name", "Ada"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	if err := ctrl.SetValue("age", "36"); err != nil {
		t.Fatalf("set age: %v", err)
	}
	if ctrl.Status() != controller.StatusEditing {
		t.Fatalf("expected editing, got %s", ctrl.Status())
	}

	if err := ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if diff := cmp.Diff([]map[string]any{{"name": "Ada", "age": 36.0}}, handler.calls); diff != "" {
		t.Fatalf("handler payload mismatch (-want +got):\n%s", diff)
	}

	state := ctrl.Snapshot()
	if state.Status != controller.StatusSucceeded || state.Submitting {
		t.Fatalf("unexpected state after submit: %+v", state)
	}
	if diff := cmp.Diff(map[string]bool{"name": true, "age": true}, state.Touched); diff != "" {
		t.Fatalf("touched mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_HandlerFailureKeepsValues(t *testing.T) {
	handler := &recordingHandler{result: &controller.SubmitError{
		Fields: map[string][]string{"/body/name": {"Name already taken"}},
		Form:   []string{"Try again later"},
	}}
	ctrl := newController(t, profileSpec(t),
		controller.WithInitialData(map[string]any{"name": "Ada", "age": 36}),
		controller.WithSubmitHandler(handler.handle),
	)

	err := ctrl.Submit(context.Background())
	var submitErr *controller.SubmitError
	if !errors.As(err, &submitErr) {
		t.Fatalf("expected wrapped *SubmitError, got %v", err)
	}

	state := ctrl.Snapshot()
	if state.Status != controller.StatusFailed {
		t.Fatalf("expected failed, got %s", state.Status)
	}
	if diff := cmp.Diff(map[string]any{"name": "Ada", "age": 36.0}, state.Values); diff != "" {
		t.Fatalf("values should be preserved (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"name": "Name already taken"}, state.Errors); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Try again later"}, state.FormErrors); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if len(handler.calls) != 1 {
		t.Fatalf("controller must not retry, got %d calls", len(handler.calls))
	}

	handler.result = nil
	if err := ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if ctrl.Status() != controller.StatusSucceeded {
		t.Fatalf("expected succeeded after resubmit, got %s", ctrl.Status())
	}
}

func TestSubmit_PlainHandlerErrorBecomesFormError(t *testing.T) {
	handler := &recordingHandler{result: errors.New("service unavailable")}
	ctrl := newController(t, profileSpec(t),
		controller.WithInitialData(map[string]any{"name": "Ada", "age": 36}),
		controller.WithSubmitHandler(handler.handle),
	)

	if err := ctrl.Submit(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if diff := cmp.Diff([]string{"service unavailable"}, ctrl.Snapshot().FormErrors); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmit_RejectsConcurrentMutation(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	ctrl := newController(t, profileSpec(t),
		controller.WithInitialData(map[string]any{"name": "Ada", "age": 36}),
		controller.WithSubmitHandler(func(ctx context.Context, _ map[string]any) error {
			close(entered)
			<-release
			return nil
		}),
	)

	done := make(chan error, 1)
	go func() { done <- ctrl.Submit(context.Background()) }()
	<-entered

	state := ctrl.Snapshot()
	if state.Status != controller.StatusSubmitting || !state.Submitting {
		t.Fatalf("expected submitting state, got %+v", state)
	}
	if err := ctrl.SetValue("name", "Grace"); !errors.Is(err, controller.ErrSubmitInProgress) {
		t.Fatalf("expected ErrSubmitInProgress, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func TestSubmit_WithoutHandler(t *testing.T) {
	ctrl := newController(t, profileSpec(t),
		controller.WithInitialData(map[string]any{"name": "Ada", "age": 36}),
	)
	if err := ctrl.Submit(context.Background()); !errors.Is(err, controller.ErrNoSubmitHandler) {
		t.Fatalf("expected ErrNoSubmitHandler, got %v", err)
	}
	if state := ctrl.Snapshot(); state.Status != controller.StatusEditing || len(state.Errors) != 0 {
		t.Fatalf("expected a validated editing form, got %+v", state)
	}
}

func TestSubmit_WithoutHandlerStillReportsErrors(t *testing.T) {
	ctrl := newController(t, profileSpec(t),
		controller.WithInitialData(map[string]any{"name": "", "age": 200}),
	)
	if err := ctrl.Submit(context.Background()); !errors.Is(err, controller.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	state := ctrl.Snapshot()
	if diff := cmp.Diff(map[string]string{"name": "required", "age": "max"}, state.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if state.Status != controller.StatusEditing {
		t.Fatalf("expected editing after validation, got %s", state.Status)
	}
}

func TestValidate_TimeWindow(t *testing.T) {
	spec, err := model.Build(model.FormConfig{
		ID: "shift",
		Fields: []model.FieldConfig{
			{Name: "start_time", Schema: schema.Config{Kind: schema.KindString, Required: true}},
			{Name: "end_time", Schema: schema.Config{
				Kind:        schema.KindString,
				Required:    true,
				Constraints: []schema.ConstraintConfig{schema.After("start_time", "end must be after start")},
			}},
		},
	}, nil)
	if err != nil {
		t.Fatalf("spec: %v", err)
	}
	ctrl := newController(t, spec, controller.WithInitialData(map[string]any{
		"start_time": "09:00:00",
		"end_time":   "08:30:00",
	}))

	if ctrl.Validate() {
		t.Fatalf("expected invalid window")
	}
	if diff := cmp.Diff(map[string]string{"end_time": "end must be after start"}, ctrl.Snapshot().Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	if err := ctrl.SetValue("end_time", "10:00:00"); err != nil {
		t.Fatalf("set end: %v", err)
	}
	if errs := ctrl.Snapshot().Errors; len(errs) != 0 {
		t.Fatalf("expected stale error to be cleared on change, got %v", errs)
	}
	if !ctrl.Validate() {
		t.Fatalf("expected valid window, got %v", ctrl.Snapshot().Errors)
	}
}

func TestSetValue_ValidateOnChange(t *testing.T) {
	ctrl := newController(t, profileSpec(t), controller.WithValidateOnChange(true))

	if err := ctrl.SetValue("age", -5); err != nil {
		t.Fatalf("set age: %v", err)
	}
	state := ctrl.Snapshot()
	if diff := cmp.Diff(map[string]string{"age": "min"}, state.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestSetValue_UnknownFieldAndClose(t *testing.T) {
	ctrl := newController(t, profileSpec(t))
	if err := ctrl.SetValue("email", "x"); !errors.Is(err, controller.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	ctrl.Close()
	if err := ctrl.SetValue("name", "x"); !errors.Is(err, controller.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := ctrl.Reset(); !errors.Is(err, controller.ErrClosed) {
		t.Fatalf("expected ErrClosed from reset, got %v", err)
	}
}

func TestReset(t *testing.T) {
	ctrl := newController(t, profileSpec(t),
		controller.WithInitialData(map[string]any{"name": "Ada", "age": 36}),
	)
	if err := ctrl.SetValue("name", ""); err != nil {
		t.Fatalf("set: %v", err)
	}
	ctrl.Validate()

	if err := ctrl.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	state := ctrl.Snapshot()
	if state.Status != controller.StatusPristine {
		t.Fatalf("expected pristine, got %s", state.Status)
	}
	if diff := cmp.Diff(map[string]any{"name": "Ada", "age": 36.0}, state.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if len(state.Errors) != 0 || len(state.Touched) != 0 {
		t.Fatalf("expected errors and touched to be cleared, got %+v", state)
	}
}

func TestNew_InitialDataFallsBackToZeroValues(t *testing.T) {
	logger, logs := testsupport.ObservedLogger(zapcore.WarnLevel)
	ctrl := newController(t, profileSpec(t),
		controller.WithLogger(logger),
		controller.WithInitialData(map[string]any{"name": "Ada", "age": "old"}),
	)

	if diff := cmp.Diff(map[string]any{"name": "", "age": 0.0}, ctrl.Snapshot().Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if logs.FilterMessage("default resolution fell back to zero values").Len() != 1 {
		t.Fatalf("expected a fallback warning, got %v", logs.All())
	}
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	spec := model.MustNew("tags", []model.FieldSpec{
		{Name: "tags", Schema: schema.MustBuild(schema.Config{
			Kind:  schema.KindArray,
			Items: &schema.Config{Kind: schema.KindString},
		})},
	}, model.LayoutDescriptor{})
	ctrl := newController(t, spec)
	if err := ctrl.SetValue("tags", []any{"a"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	state := ctrl.Snapshot()
	state.Values["tags"].([]any)[0] = "mutated"

	value, _ := ctrl.Value("tags")
	if value.([]any)[0] != "a" {
		t.Fatalf("snapshot leaked internal state")
	}
}
