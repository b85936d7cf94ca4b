package engine

import (
	"applybot/bot/errs"
	"applybot/bot/metrics"
	"applybot/bot/models"
	"context"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

type Trigger string

const (
	TriggerManual   Trigger = "manual"
	TriggerDeadline Trigger = "deadline"
)

type Outcome struct {
	Application models.Application
	Trigger     Trigger
	Ranked      []models.Standing
	Winners     []models.Standing
	Losers      []models.Standing
	// Undelivered aggregates notification failures. The close itself has already happened.
	Undelivered error
}

// Rank orders standings by accept votes, highest first. Ties keep their submission order.
func Rank(standings []models.Standing) []models.Standing {
	ranked := append([]models.Standing(nil), standings...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Accept > ranked[j].Accept
	})
	return ranked
}

// Partition splits ranked standings into winners and losers. With a cap the top N win
// regardless of deny votes; without one a submission wins only with more accepts than denies.
func Partition(app models.Application, ranked []models.Standing) (winners, losers []models.Standing) {
	if app.Capped() {
		n := *app.AcceptedCount
		if n > len(ranked) {
			n = len(ranked)
		}
		return append([]models.Standing(nil), ranked[:n]...), append([]models.Standing(nil), ranked[n:]...)
	}

	for _, s := range ranked {
		if s.Accept > s.Deny {
			winners = append(winners, s)
		} else {
			losers = append(losers, s)
		}
	}
	return winners, losers
}

// Close resolves the application exactly once. A second call returns errs.ErrAlreadyClosed and
// changes nothing.
func (e *Engine) Close(ctx context.Context, applicationId string, trigger Trigger) (Outcome, error) {
	app, standings, err := e.apps.CloseApplication(ctx, applicationId)
	if err != nil {
		return Outcome{Application: app}, err
	}

	ranked := Rank(standings)
	winners, losers := Partition(app, ranked)

	outcome := Outcome{
		Application: app,
		Trigger:     trigger,
		Ranked:      ranked,
		Winners:     winners,
		Losers:      losers,
	}

	metrics.Resolved(string(trigger))

	logger := e.log.WithFields(logrus.Fields{"guild": app.GuildId, "application": app.Id, "trigger": trigger})
	logger.Printf("Application %q closed: %d submissions, %d accepted", app.Name, len(ranked), len(winners))

	outcome.Undelivered = e.notify(ctx, outcome)
	if outcome.Undelivered != nil {
		logger.WithError(outcome.Undelivered).Println("Some result notifications were not delivered")
	}

	return outcome, nil
}

func (e *Engine) notify(ctx context.Context, outcome Outcome) error {
	if e.notifier == nil {
		return nil
	}

	var result *multierror.Error

	if err := e.notifier.AnnounceResults(ctx, outcome); err != nil {
		metrics.DeliveryFailed()
		result = multierror.Append(result, err)
	}

	accepted := make(map[string]bool)
	for _, w := range outcome.Winners {
		if accepted[w.ApplicantId] {
			continue
		}
		accepted[w.ApplicantId] = true
		if err := e.notifier.NotifyApplicant(ctx, outcome.Application, w.ApplicantId, true); err != nil {
			metrics.DeliveryFailed()
			result = multierror.Append(result, errs.Delivery(w.ApplicantId, err))
		}
	}

	rejected := make(map[string]bool)
	for _, l := range outcome.Losers {
		if accepted[l.ApplicantId] || rejected[l.ApplicantId] {
			continue
		}
		rejected[l.ApplicantId] = true
		if err := e.notifier.NotifyApplicant(ctx, outcome.Application, l.ApplicantId, false); err != nil {
			metrics.DeliveryFailed()
			result = multierror.Append(result, errs.Delivery(l.ApplicantId, err))
		}
	}

	return result.ErrorOrNil()
}
