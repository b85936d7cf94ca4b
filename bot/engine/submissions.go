package engine

import (
	"applybot/bot/errs"
	"applybot/bot/metrics"
	"applybot/bot/models"
	"applybot/bot/spam"
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// CheckEligible is the pre-flight check before an applicant starts answering. The same rules are
// enforced again when the submission is stored.
func (e *Engine) CheckEligible(ctx context.Context, applicationId, applicantId string) (models.Application, error) {
	app, err := e.apps.GetApplication(ctx, applicationId)
	if err != nil {
		return models.Application{}, err
	}
	if app.Closed {
		return app, errs.ErrClosed
	}

	if app.Limited() {
		count, err := e.subs.CountSubmissions(ctx, applicationId, applicantId)
		if err != nil {
			return app, err
		}
		if count >= *app.SubmissionLimit {
			return app, errs.ErrLimitExceeded
		}
	}

	return app, nil
}

// Submit screens the answers and stores the submission with an empty tally. Spam is rejected
// with a *spam.Error and nothing is stored.
func (e *Engine) Submit(ctx context.Context, applicationId, applicantId string, answers []models.Answer) (models.Submission, error) {
	logger := e.log.WithFields(logrus.Fields{"application": applicationId, "applicant": applicantId})

	if err := spam.Check(answers); err != nil {
		metrics.SubmissionOutcome("spam")
		logger.WithError(err).Println("Submission auto-rejected")
		return models.Submission{}, err
	}

	now := e.clock.Now()
	sub := models.Submission{
		ApplicationId: applicationId,
		ApplicantId:   applicantId,
		Answers:       answers,
		CreatedAt:     now,
	}
	err := errs.ErrConflict
	for ms := now.UnixMilli(); errors.Is(err, errs.ErrConflict); ms++ {
		sub.Id = fmt.Sprintf("%s-%s-%d", applicationId, applicantId, ms)
		err = e.subs.AddSubmission(ctx, sub)
	}

	if err != nil {
		switch {
		case errors.Is(err, errs.ErrClosed):
			metrics.SubmissionOutcome("closed")
		case errors.Is(err, errs.ErrLimitExceeded):
			metrics.SubmissionOutcome("limit")
		default:
			metrics.SubmissionOutcome("error")
		}
		logger.WithError(err).Println("Submission not stored")
		return models.Submission{}, err
	}

	metrics.SubmissionOutcome("accepted")
	logger.WithField("submission", sub.Id).Println("Submission stored")

	return sub, nil
}

func (e *Engine) Submission(ctx context.Context, id string) (models.Submission, error) {
	return e.subs.GetSubmission(ctx, id)
}

// Dismiss deletes a submission and its votes. Only admin users may dismiss.
func (e *Engine) Dismiss(ctx context.Context, guildId string, member models.Member, submissionId string) error {
	cfg, err := e.configs.GetConfig(ctx, guildId)
	if err != nil {
		return err
	}
	if !cfg.CanDismiss(member) {
		return errs.ErrPermissionDenied
	}

	if err := e.subs.DismissSubmission(ctx, submissionId); err != nil {
		return err
	}

	e.log.WithFields(logrus.Fields{"submission": submissionId, "by": member.UserId}).Println("Submission dismissed")

	return nil
}
