// Package dependency loads the options of dynamic fields and keeps them in
// step with the fields they depend on.
//
// Every dynamic field owns a small state machine (idle, loading, loaded,
// error) and a generation counter. Each dispatched load captures the
// generation current at dispatch time and cancels the previous load's
// context; a finished load is applied only when its generation is still the
// field's current one, so the latest dispatch always wins regardless of the
// order in which loaders return.
package dependency

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/goliatone/go-formkit/pkg/logging"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/schema"
)

var (
	ErrClosed        = errors.New("dependency: resolver closed")
	ErrNotDynamic    = errors.New("dependency: field has no option loader")
	ErrUnboundLoader = errors.New("dependency: option loader not registered")
)

// Resolver owns the option state of one form session. It is safe for
// concurrent use; loads run on their own goroutines.
type Resolver struct {
	spec     *model.FormSpec
	logger   *zap.Logger
	debounce time.Duration
	loaders  map[string]model.OptionLoader
	notify   func(field string, state FieldState)

	mu      sync.Mutex
	wg      sync.WaitGroup
	closed  bool
	dynamic map[string]*fieldLoad
	static  map[string][]model.Option
}

type fieldLoad struct {
	name       string
	loader     model.OptionLoader
	machine    *fsm.FSM
	generation uint64
	cancel     context.CancelFunc
	timer      *time.Timer
	options    []model.Option
	dependency any
	dispatched bool
	err        error
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = logging.OrNop(logger)
	}
}

// WithDebounce delays loads triggered by Changed until the controlling value
// has been stable for d.
func WithDebounce(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.debounce = d
		}
	}
}

// WithLoaders binds loaders referenced by OptionSource.LoaderName.
func WithLoaders(loaders map[string]model.OptionLoader) Option {
	return func(r *Resolver) {
		for name, loader := range loaders {
			r.loaders[name] = loader
		}
	}
}

// WithNotify registers fn to be called after a load settles. fn runs on the
// loader goroutine, outside the resolver lock.
func WithNotify(fn func(field string, state FieldState)) Option {
	return func(r *Resolver) {
		r.notify = fn
	}
}

// New creates a Resolver for spec. Every dynamic field must have a loader,
// either on its OptionSource or registered through WithLoaders.
func New(spec *model.FormSpec, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		spec:    spec,
		logger:  logging.Nop(),
		loaders: make(map[string]model.OptionLoader),
		dynamic: make(map[string]*fieldLoad),
		static:  make(map[string][]model.Option),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = r.logger.Named("dependency")

	for _, field := range spec.Fields() {
		source := field.Options
		if !source.Dynamic() {
			if len(source.Static) > 0 {
				r.static[field.Name] = source.Static
			}
			continue
		}
		loader := source.Loader
		if bound, ok := r.loaders[source.LoaderName]; ok && source.LoaderName != "" && bound != nil {
			loader = bound
		}
		if loader == nil {
			return nil, fmt.Errorf("%w: field %q loader %q", ErrUnboundLoader, field.Name, source.LoaderName)
		}
		fl := &fieldLoad{name: field.Name, loader: loader}
		fl.machine = newMachine(StatusIdle, r.transitionLogger(field.Name))
		r.dynamic[field.Name] = fl
	}
	return r, nil
}

func (r *Resolver) transitionLogger(field string) fsm.Callback {
	return func(_ context.Context, e *fsm.Event) {
		r.logger.Debug("option state changed",
			zap.String("field", field),
			zap.String("from", e.Src),
			zap.String("to", e.Dst))
	}
}

// Start dispatches the initial loads: fields without DependsOn load
// immediately, dependents load when values already holds their controlling
// value and stay idle otherwise.
func (r *Resolver) Start(ctx context.Context, values map[string]any) error {
	for _, name := range r.spec.DynamicFields() {
		field, _ := r.spec.Field(name)
		if field.DependsOn == "" {
			if _, err := r.Dispatch(ctx, name, nil); err != nil {
				return err
			}
			continue
		}
		if value := values[field.DependsOn]; !schema.IsEmpty(value) {
			if _, err := r.Dispatch(ctx, name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Dispatch starts a load of field's options for dependency and returns the
// generation it carries. Any in-flight load of the field is cancelled and its
// result will be discarded.
func (r *Resolver) Dispatch(ctx context.Context, field string, dependency any) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrClosed
	}
	fl, ok := r.dynamic[field]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotDynamic, field)
	}
	r.stopTimerLocked(fl)
	return r.dispatchLocked(ctx, fl, dependency), nil
}

func (r *Resolver) dispatchLocked(ctx context.Context, fl *fieldLoad, dependency any) uint64 {
	if fl.cancel != nil {
		fl.cancel()
	}
	fl.generation++
	generation := fl.generation
	loadCtx, cancel := context.WithCancel(ctx)
	fl.cancel = cancel
	fl.dependency, fl.dispatched = dependency, true
	fl.options, fl.err = nil, nil
	if err := fire(fl.machine, eventLoad); err != nil {
		r.logger.Error("option state transition failed", zap.String("field", fl.name), zap.Error(err))
	}

	r.logger.Debug("dispatching option load",
		zap.String("field", fl.name),
		zap.Uint64("generation", generation),
		zap.Any("dependency", dependency))

	r.wg.Add(1)
	go r.run(loadCtx, fl, generation, dependency)
	return generation
}

func (r *Resolver) run(ctx context.Context, fl *fieldLoad, generation uint64, dependency any) {
	defer r.wg.Done()
	options, err := callLoader(ctx, fl.loader, dependency)

	r.mu.Lock()
	if r.closed || fl.generation != generation {
		r.mu.Unlock()
		r.logger.Debug("discarding stale option load",
			zap.String("field", fl.name),
			zap.Uint64("generation", generation))
		return
	}
	fl.cancel()
	fl.cancel = nil
	event := eventSucceed
	if err != nil {
		event = eventFail
		fl.err = err
		r.logger.Warn("option load failed", zap.String("field", fl.name), zap.Error(err))
	} else {
		fl.options = append([]model.Option(nil), options...)
	}
	if ferr := fire(fl.machine, event); ferr != nil {
		r.logger.Error("option state transition failed", zap.String("field", fl.name), zap.Error(ferr))
	}
	state := fl.state()
	notify := r.notify
	r.mu.Unlock()

	if notify != nil {
		notify(fl.name, state)
	}
}

func callLoader(ctx context.Context, loader model.OptionLoader, dependency any) (options []model.Option, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("dependency: option loader panicked: %v", recovered)
		}
	}()
	return loader(ctx, dependency)
}

// Changed reacts to a new settled value of controlling. Each direct
// dependent reloads for a non-empty value, or returns to idle with its
// options cleared for an empty one. Dependents further down the chain are
// returned to idle since their controlling selection is being cleared.
// A value equal to the latest dispatched one is ignored unless that load
// failed. The returned names
// are the fields whose current selection is no longer valid.
func (r *Resolver) Changed(ctx context.Context, controlling string, value any) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}

	var cleared []string
	empty := schema.IsEmpty(value)
	for _, name := range r.spec.Dependents(controlling) {
		fl, ok := r.dynamic[name]
		if !ok {
			continue
		}
		if empty {
			r.resetLocked(fl)
		} else {
			if fl.dispatched && fl.timer == nil && fl.err == nil && schema.EqualValues(fl.dependency, value) {
				continue
			}
			r.scheduleLocked(ctx, fl, value)
		}
		cleared = append(cleared, name)
		for _, downstream := range r.spec.TransitiveDependents(name) {
			if child, ok := r.dynamic[downstream]; ok {
				r.resetLocked(child)
			}
			cleared = append(cleared, downstream)
		}
	}
	return dedupe(cleared)
}

func (r *Resolver) scheduleLocked(ctx context.Context, fl *fieldLoad, value any) {
	r.stopTimerLocked(fl)
	if r.debounce <= 0 {
		r.dispatchLocked(ctx, fl, value)
		return
	}

	// Invalidate whatever is in flight right away; the load itself waits for
	// the value to settle.
	if fl.cancel != nil {
		fl.cancel()
		fl.cancel = nil
	}
	fl.generation++
	token := fl.generation
	fl.dependency, fl.dispatched = value, true
	fl.options, fl.err = nil, nil
	if err := fire(fl.machine, eventLoad); err != nil {
		r.logger.Error("option state transition failed", zap.String("field", fl.name), zap.Error(err))
	}

	r.wg.Add(1)
	fl.timer = time.AfterFunc(r.debounce, func() {
		defer r.wg.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed || fl.generation != token {
			return
		}
		fl.timer = nil
		r.dispatchLocked(ctx, fl, value)
	})
}

func (r *Resolver) stopTimerLocked(fl *fieldLoad) {
	if fl.timer == nil {
		return
	}
	if fl.timer.Stop() {
		r.wg.Done()
	}
	fl.timer = nil
}

func (r *Resolver) resetLocked(fl *fieldLoad) {
	r.stopTimerLocked(fl)
	if fl.cancel != nil {
		fl.cancel()
		fl.cancel = nil
	}
	fl.generation++
	fl.options, fl.err = nil, nil
	fl.dependency, fl.dispatched = nil, false
	if err := fire(fl.machine, eventReset); err != nil {
		r.logger.Error("option state transition failed", zap.String("field", fl.name), zap.Error(err))
	}
}

// Reset cancels every load and returns all dynamic fields to idle.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fl := range r.dynamic {
		r.resetLocked(fl)
	}
}

// State returns the option state of field. Fields with static options are
// always loaded.
func (r *Resolver) State(field string) (FieldState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fl, ok := r.dynamic[field]; ok {
		return fl.state(), true
	}
	if options, ok := r.static[field]; ok {
		return FieldState{Status: StatusLoaded, Options: append([]model.Option(nil), options...)}, true
	}
	return FieldState{}, false
}

// States returns the option state of every field that has options.
func (r *Resolver) States() map[string]FieldState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]FieldState, len(r.dynamic)+len(r.static))
	for name, options := range r.static {
		out[name] = FieldState{Status: StatusLoaded, Options: append([]model.Option(nil), options...)}
	}
	for name, fl := range r.dynamic {
		out[name] = fl.state()
	}
	return out
}

// Fields returns the names of the fields with options, sorted.
func (r *Resolver) Fields() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.dynamic)+len(r.static))
	for name := range r.dynamic {
		names = append(names, name)
	}
	for name := range r.static {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Wait blocks until every pending debounce and in-flight load has returned.
func (r *Resolver) Wait() {
	r.wg.Wait()
}

// Close cancels pending work and waits for loader goroutines to return.
// Later dispatches fail with ErrClosed.
func (r *Resolver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for _, fl := range r.dynamic {
		r.stopTimerLocked(fl)
		if fl.cancel != nil {
			fl.cancel()
			fl.cancel = nil
		}
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (fl *fieldLoad) state() FieldState {
	return FieldState{
		Status:     Status(fl.machine.Current()),
		Options:    append([]model.Option(nil), fl.options...),
		Generation: fl.generation,
		Dependency: fl.dependency,
		Err:        fl.err,
	}
}

func dedupe(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := names[:0]
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
