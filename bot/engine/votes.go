package engine

import (
	"applybot/bot/errs"
	"applybot/bot/metrics"
	"applybot/bot/models"
	"context"

	"github.com/sirupsen/logrus"
)

// CastVote records member's vote, replacing any earlier vote of theirs on the same submission.
func (e *Engine) CastVote(ctx context.Context, guildId string, member models.Member, submissionId string, choice models.VoteChoice) (models.VoteTally, error) {
	if choice != models.VoteAccept && choice != models.VoteDeny {
		return models.VoteTally{}, errs.Invalid("vote", "unknown vote choice")
	}

	cfg, err := e.configs.GetConfig(ctx, guildId)
	if err != nil {
		return models.VoteTally{}, err
	}
	if !cfg.CanVote(member) {
		return models.VoteTally{}, errs.ErrPermissionDenied
	}

	tally, err := e.votes.CastVote(ctx, submissionId, member.UserId, choice)
	if err != nil {
		return models.VoteTally{}, err
	}

	metrics.VoteCast(string(choice))
	e.log.WithFields(logrus.Fields{"submission": submissionId, "voter": member.UserId, "choice": choice}).
		Debugf("Vote recorded: %d accept / %d deny", len(tally.Accept), len(tally.Deny))

	return tally, nil
}
