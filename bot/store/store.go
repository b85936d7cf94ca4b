// Package store holds the repositories behind the application engine. Entities reference each
// other by id only; every lookup goes through the owning repository.
package store

import (
	"applybot/bot/models"
	"context"
)

type ConfigStore interface {
	// GetConfig returns errs.ErrNotConfigured for guilds that never ran conf.
	GetConfig(ctx context.Context, guildId string) (models.GuildConfig, error)
	MergeConfig(ctx context.Context, guildId string, patch models.ConfigPatch) (models.GuildConfig, error)
}

type Applications interface {
	// CreateApplication fails with errs.ErrConflict when the id is taken.
	CreateApplication(ctx context.Context, app models.Application) error
	GetApplication(ctx context.Context, id string) (models.Application, error)
	// FindApplication matches names case-insensitively; the oldest match wins.
	FindApplication(ctx context.Context, guildId, name string) (models.Application, error)
	// ListApplications lists in creation order. An empty guildId lists every guild.
	ListApplications(ctx context.Context, guildId string) ([]models.Application, error)
	UpdateApplication(ctx context.Context, id string, mutate func(*models.Application) error) (models.Application, error)
	RemoveApplication(ctx context.Context, id string) error
	// CloseApplication marks the application closed and snapshots its standings in one step.
	// Standings come back in submission order.
	CloseApplication(ctx context.Context, id string) (models.Application, []models.Standing, error)
}

type Submissions interface {
	// AddSubmission stores the submission with an empty tally. It fails with errs.ErrClosed or
	// errs.ErrLimitExceeded based on the owning application's state at insert time, and with
	// errs.ErrConflict when the id is taken.
	AddSubmission(ctx context.Context, sub models.Submission) error
	GetSubmission(ctx context.Context, id string) (models.Submission, error)
	ListSubmissions(ctx context.Context, applicationId string) ([]models.Submission, error)
	CountSubmissions(ctx context.Context, applicationId, applicantId string) (int, error)
	// DismissSubmission deletes the submission and its tally together.
	DismissSubmission(ctx context.Context, id string) error
}

type Votes interface {
	CastVote(ctx context.Context, submissionId, voterId string, choice models.VoteChoice) (models.VoteTally, error)
	GetTally(ctx context.Context, submissionId string) (models.VoteTally, error)
	Standings(ctx context.Context, applicationId string) ([]models.Standing, error)
}
