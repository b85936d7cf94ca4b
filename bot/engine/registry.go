package engine

import (
	"applybot/bot/errs"
	"applybot/bot/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// CreateApplication stores a new open application. Name collisions are not checked.
func (e *Engine) CreateApplication(ctx context.Context, draft models.Application) (models.Application, error) {
	now := e.clock.Now()

	app := draft.Clone()
	app.CreatedAt = now
	app.Closed = false

	// Ids are "<guild>-<unix millis>"; bump the millisecond on the rare same-instant collision.
	for ms := now.UnixMilli(); ; ms++ {
		app.Id = fmt.Sprintf("%s-%d", app.GuildId, ms)
		err := e.apps.CreateApplication(ctx, app)
		if errors.Is(err, errs.ErrConflict) {
			continue
		}
		if err != nil {
			return models.Application{}, err
		}
		break
	}

	e.log.WithFields(logrus.Fields{"guild": app.GuildId, "application": app.Id}).
		Printf("Application %q created, deadline %s", app.Name, app.Deadline.Format(time.RFC3339))

	return app, nil
}

func (e *Engine) Application(ctx context.Context, id string) (models.Application, error) {
	return e.apps.GetApplication(ctx, id)
}

func (e *Engine) FindApplication(ctx context.Context, guildId, name string) (models.Application, error) {
	return e.apps.FindApplication(ctx, guildId, name)
}

func (e *Engine) Applications(ctx context.Context, guildId string) ([]models.Application, error) {
	return e.apps.ListApplications(ctx, guildId)
}

// EditApplication applies mutate to the current stored record.
func (e *Engine) EditApplication(ctx context.Context, id string, mutate func(*models.Application) error) (models.Application, error) {
	app, err := e.apps.UpdateApplication(ctx, id, mutate)
	if err != nil {
		return models.Application{}, err
	}

	e.log.WithField("application", id).Printf("Application %q edited", app.Name)

	return app, nil
}

// RemoveApplication deletes the application whatever its state. Its submissions stay behind.
func (e *Engine) RemoveApplication(ctx context.Context, id string) error {
	if err := e.apps.RemoveApplication(ctx, id); err != nil {
		return err
	}

	e.log.WithField("application", id).Println("Application removed")

	return nil
}

// Standings returns the application's submissions ranked by accept votes.
func (e *Engine) Standings(ctx context.Context, applicationId string) ([]models.Standing, error) {
	standings, err := e.votes.Standings(ctx, applicationId)
	if err != nil {
		return nil, err
	}
	return Rank(standings), nil
}
