package controller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formkit/pkg/logging"
	"github.com/goliatone/go-formkit/pkg/model"
)

// SubmitHandler receives the validated value tree. Returning a *SubmitError
// attaches messages to individual fields.
type SubmitHandler func(ctx context.Context, values map[string]any) error

// Option customises a Controller.
type Option func(*options)

type options struct {
	initial          map[string]any
	handler          SubmitHandler
	logger           *zap.Logger
	loaders          map[string]model.OptionLoader
	debounce         time.Duration
	ctx              context.Context
	validateOnChange bool
	notify           func(field string)
}

func defaultOptions() options {
	return options{
		logger: logging.Nop(),
		ctx:    context.Background(),
	}
}

// WithInitialData seeds the session. The data does not need to be valid; it
// is completed by the default resolver.
func WithInitialData(data map[string]any) Option {
	return func(o *options) {
		o.initial = data
	}
}

// WithSubmitHandler sets the handler invoked by Submit.
func WithSubmitHandler(handler SubmitHandler) Option {
	return func(o *options) {
		o.handler = handler
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logging.OrNop(logger)
	}
}

// WithLoaders binds option loaders referenced by name in the form.
func WithLoaders(loaders map[string]model.OptionLoader) Option {
	return func(o *options) {
		o.loaders = loaders
	}
}

// WithDebounce waits for a controlling value to be stable for d before
// reloading its dependents.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithContext sets the parent context of background option loads. Loads are
// cancelled when it is done.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithValidateOnChange validates a field as soon as SetValue stores it.
func WithValidateOnChange(enabled bool) Option {
	return func(o *options) {
		o.validateOnChange = enabled
	}
}

// WithOptionsNotify registers fn to be called, from a background goroutine,
// whenever a field's options settle.
func WithOptionsNotify(fn func(field string)) Option {
	return func(o *options) {
		o.notify = fn
	}
}
