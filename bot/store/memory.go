package store

import (
	"applybot/bot/errs"
	"applybot/bot/models"
	"context"
	"sync"
)

// Memory keeps every entity in process memory behind a single lock so that operations touching
// several entities (submit with tally, dismiss, close with snapshot) stay atomic.
type Memory struct {
	mu sync.RWMutex

	configs  map[string]models.GuildConfig
	apps     map[string]*models.Application
	appOrder []string
	subs     map[string]*models.Submission
	subOrder []string
	tallies  map[string]*models.VoteTally
}

func NewMemory() *Memory {
	return &Memory{
		configs: make(map[string]models.GuildConfig),
		apps:    make(map[string]*models.Application),
		subs:    make(map[string]*models.Submission),
		tallies: make(map[string]*models.VoteTally),
	}
}

func (m *Memory) GetConfig(_ context.Context, guildId string) (models.GuildConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, ok := m.configs[guildId]
	if !ok {
		return models.GuildConfig{}, errs.ErrNotConfigured
	}
	return cfg.Clone(), nil
}

func (m *Memory) MergeConfig(_ context.Context, guildId string, patch models.ConfigPatch) (models.GuildConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, ok := m.configs[guildId]
	if !ok {
		cfg = models.GuildConfig{GuildId: guildId}
	}
	cfg.Merge(patch)
	m.configs[guildId] = cfg

	return cfg.Clone(), nil
}

func (m *Memory) CreateApplication(_ context.Context, app models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.apps[app.Id]; ok {
		return errs.ErrConflict
	}
	m.appOrder = append(m.appOrder, app.Id)
	stored := app.Clone()
	m.apps[app.Id] = &stored

	return nil
}

func (m *Memory) GetApplication(_ context.Context, id string) (models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	app, ok := m.apps[id]
	if !ok {
		return models.Application{}, errs.ErrNotFound
	}
	return app.Clone(), nil
}

func (m *Memory) FindApplication(_ context.Context, guildId, name string) (models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.appOrder {
		app := m.apps[id]
		if app.GuildId == guildId && app.MatchesName(name) {
			return app.Clone(), nil
		}
	}
	return models.Application{}, errs.ErrNotFound
}

func (m *Memory) ListApplications(_ context.Context, guildId string) ([]models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Application
	for _, id := range m.appOrder {
		app := m.apps[id]
		if guildId == "" || app.GuildId == guildId {
			out = append(out, app.Clone())
		}
	}
	return out, nil
}

func (m *Memory) UpdateApplication(_ context.Context, id string, mutate func(*models.Application) error) (models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return models.Application{}, errs.ErrNotFound
	}

	draft := app.Clone()
	if err := mutate(&draft); err != nil {
		return models.Application{}, err
	}
	draft.Id, draft.GuildId = app.Id, app.GuildId
	m.apps[id] = &draft

	return draft.Clone(), nil
}

func (m *Memory) RemoveApplication(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.apps[id]; !ok {
		return errs.ErrNotFound
	}
	delete(m.apps, id)
	m.appOrder = without(m.appOrder, id)

	return nil
}

func (m *Memory) CloseApplication(_ context.Context, id string) (models.Application, []models.Standing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return models.Application{}, nil, errs.ErrNotFound
	}
	if app.Closed {
		return app.Clone(), nil, errs.ErrAlreadyClosed
	}
	app.Closed = true

	return app.Clone(), m.standingsLocked(id), nil
}

func (m *Memory) AddSubmission(_ context.Context, sub models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[sub.ApplicationId]
	if !ok {
		return errs.ErrNotFound
	}
	if app.Closed {
		return errs.ErrClosed
	}
	if app.Limited() && m.countLocked(sub.ApplicationId, sub.ApplicantId) >= *app.SubmissionLimit {
		return errs.ErrLimitExceeded
	}

	if _, ok := m.subs[sub.Id]; ok {
		return errs.ErrConflict
	}
	m.subOrder = append(m.subOrder, sub.Id)
	stored := sub.Clone()
	m.subs[sub.Id] = &stored
	m.tallies[sub.Id] = &models.VoteTally{SubmissionId: sub.Id}

	return nil
}

func (m *Memory) GetSubmission(_ context.Context, id string) (models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.subs[id]
	if !ok {
		return models.Submission{}, errs.ErrNotFound
	}
	return sub.Clone(), nil
}

func (m *Memory) ListSubmissions(_ context.Context, applicationId string) ([]models.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Submission
	for _, id := range m.subOrder {
		if sub := m.subs[id]; sub.ApplicationId == applicationId {
			out = append(out, sub.Clone())
		}
	}
	return out, nil
}

func (m *Memory) CountSubmissions(_ context.Context, applicationId, applicantId string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.countLocked(applicationId, applicantId), nil
}

func (m *Memory) DismissSubmission(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs[id]; !ok {
		return errs.ErrNotFound
	}
	delete(m.subs, id)
	delete(m.tallies, id)
	m.subOrder = without(m.subOrder, id)

	return nil
}

func (m *Memory) CastVote(_ context.Context, submissionId, voterId string, choice models.VoteChoice) (models.VoteTally, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subs[submissionId]
	if !ok {
		return models.VoteTally{}, errs.ErrNotFound
	}
	tally, ok := m.tallies[submissionId]
	if !ok {
		return models.VoteTally{}, errs.ErrNotFound
	}
	if app, ok := m.apps[sub.ApplicationId]; ok && app.Closed {
		return models.VoteTally{}, errs.ErrClosed
	}

	tally.Cast(voterId, choice)

	return tally.Clone(), nil
}

func (m *Memory) GetTally(_ context.Context, submissionId string) (models.VoteTally, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tally, ok := m.tallies[submissionId]
	if !ok {
		return models.VoteTally{}, errs.ErrNotFound
	}
	return tally.Clone(), nil
}

func (m *Memory) Standings(_ context.Context, applicationId string) ([]models.Standing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.standingsLocked(applicationId), nil
}

func (m *Memory) standingsLocked(applicationId string) []models.Standing {
	var out []models.Standing
	for _, id := range m.subOrder {
		sub := m.subs[id]
		if sub.ApplicationId != applicationId {
			continue
		}

		standing := models.Standing{SubmissionId: id, ApplicantId: sub.ApplicantId}
		if tally, ok := m.tallies[id]; ok {
			standing.Accept, standing.Deny = len(tally.Accept), len(tally.Deny)
		}
		out = append(out, standing)
	}
	return out
}

func (m *Memory) countLocked(applicationId, applicantId string) int {
	n := 0
	for _, sub := range m.subs {
		if sub.ApplicationId == applicationId && sub.ApplicantId == applicantId {
			n++
		}
	}
	return n
}

func without(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
