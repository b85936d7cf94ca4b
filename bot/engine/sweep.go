package engine

import (
	"applybot/bot/errs"
	"applybot/bot/metrics"
	"context"
	"errors"
	"time"
)

// Sweep closes every open application whose deadline has passed. Applications are resolved
// independently; a failure on one does not stop the others.
func (e *Engine) Sweep(ctx context.Context) []Outcome {
	start := time.Now()
	defer func() { metrics.SweepObserved(time.Since(start).Seconds()) }()

	now := e.clock.Now()

	apps, err := e.apps.ListApplications(ctx, "")
	if err != nil {
		e.log.WithError(err).Println("Deadline sweep could not list applications")
		return nil
	}

	var outcomes []Outcome
	for _, app := range apps {
		if app.Closed || now.Before(app.Deadline) {
			continue
		}

		outcome, err := e.Close(ctx, app.Id, TriggerDeadline)
		switch {
		case errors.Is(err, errs.ErrAlreadyClosed), errors.Is(err, errs.ErrNotFound):
			// Closed or removed by a command since the listing.
		case err != nil:
			e.log.WithError(err).WithField("application", app.Id).Println("Deadline sweep could not close application")
		default:
			outcomes = append(outcomes, outcome)
		}
	}

	return outcomes
}
