package tasks

import (
	"applybot/bot/engine"
	"context"

	"github.com/sirupsen/logrus"
)

// DeadlineSweep closes the applications whose deadline passed since the previous run.
func DeadlineSweep(e *engine.Engine, log logrus.FieldLogger) func() {
	return func() {
		outcomes := e.Sweep(context.Background())

		for _, outcome := range outcomes {
			app := outcome.Application
			log.WithFields(logrus.Fields{"guild": app.GuildId, "application": app.Id}).
				Printf("Deadline reached for %q: %d of %d accepted", app.Name, len(outcome.Winners), len(outcome.Ranked))
		}
	}
}
