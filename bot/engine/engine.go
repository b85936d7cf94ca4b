// Package engine owns the application lifecycle: creating and editing applications, accepting
// submissions, collecting votes and resolving winners when an application closes.
package engine

import (
	"applybot/bot/errs"
	"applybot/bot/models"
	"applybot/bot/store"
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Notifier delivers resolution side effects. Implementations report per-recipient failures as
// errors; the engine never rolls a resolution back because of them.
type Notifier interface {
	AnnounceResults(ctx context.Context, outcome Outcome) error
	NotifyApplicant(ctx context.Context, app models.Application, applicantId string, accepted bool) error
}

type Deps struct {
	Configs     store.ConfigStore
	Apps        store.Applications
	Submissions store.Submissions
	Votes       store.Votes
	Notifier    Notifier
	Clock       Clock
	Log         logrus.FieldLogger
}

type Engine struct {
	configs  store.ConfigStore
	apps     store.Applications
	subs     store.Submissions
	votes    store.Votes
	notifier Notifier
	clock    Clock
	log      logrus.FieldLogger
}

func New(deps Deps) *Engine {
	e := &Engine{
		configs:  deps.Configs,
		apps:     deps.Apps,
		subs:     deps.Submissions,
		votes:    deps.Votes,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		log:      deps.Log,
	}
	if e.clock == nil {
		e.clock = SystemClock{}
	}
	if e.log == nil {
		e.log = logrus.StandardLogger()
	}
	return e
}

func (e *Engine) Now() time.Time { return e.clock.Now() }

// SetNotifier wires the notifier once the gateway exists.
func (e *Engine) SetNotifier(n Notifier) { e.notifier = n }

func (e *Engine) Config(ctx context.Context, guildId string) (models.GuildConfig, error) {
	return e.configs.GetConfig(ctx, guildId)
}

func (e *Engine) Configure(ctx context.Context, guildId string, patch models.ConfigPatch) (models.GuildConfig, error) {
	if patch.Empty() {
		return models.GuildConfig{}, errs.Invalid("conf", "Provide at least one param")
	}

	cfg, err := e.configs.MergeConfig(ctx, guildId, patch)
	if err != nil {
		return models.GuildConfig{}, err
	}

	e.log.WithField("guild", guildId).Println("Guild configuration updated")

	return cfg, nil
}

// RequireAdmin fails with errs.ErrNotConfigured or errs.ErrPermissionDenied.
func (e *Engine) RequireAdmin(ctx context.Context, guildId string, member models.Member) (models.GuildConfig, error) {
	cfg, err := e.configs.GetConfig(ctx, guildId)
	if err != nil {
		return models.GuildConfig{}, err
	}
	if !cfg.IsAdmin(member) {
		return models.GuildConfig{}, errs.ErrPermissionDenied
	}
	return cfg, nil
}
