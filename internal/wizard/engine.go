package wizard

import (
	"context"

	"github.com/xelth-com/wooassist/internal/logger"
)

// engine carries what every wizard needs to persist its state
type engine struct {
	store Store
	log   *logger.Logger
}

// load returns the session's record when it is of kind; otherwise the
// StepResult to send back.
func (e engine) load(ctx context.Context, key string, kind Kind, label string) (*Record, *StepResult) {
	rec, err := e.store.Get(ctx, key)
	if err != nil {
		e.log.Error("failed to load wizard state", "session", key, "error", err)
		e.clear(ctx, key)
		res := done(label + " error: could not load the wizard state, please start again.")
		return nil, &res
	}
	if rec == nil || rec.Kind != kind {
		res := done(label + " error: no active session.")
		return nil, &res
	}
	return rec, nil
}

// save persists rec and turns a storage failure into a terminal reply
func (e engine) save(ctx context.Context, key string, rec *Record, next StepResult) StepResult {
	if err := e.store.Put(ctx, key, rec); err != nil {
		e.log.Error("failed to save wizard state", "session", key, "kind", rec.Kind, "error", err)
		e.clear(ctx, key)
		return done("Wizard error: could not save your answer, please start again.")
	}
	return next
}

// finish clears the session's wizard before a terminal reply
func (e engine) finish(ctx context.Context, key string, text string) StepResult {
	e.clear(ctx, key)
	return done(text)
}

func (e engine) clear(ctx context.Context, key string) {
	if err := e.store.Delete(ctx, key); err != nil {
		e.log.Error("failed to clear wizard state", "session", key, "error", err)
	}
}
