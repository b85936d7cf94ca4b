// Package flows builds the bot's conversations (application setup, editing, applying and the
// prefix configuration prompt) and the posts they leave behind.
package flows

import (
	"applybot/bot/conversation"
	"applybot/bot/engine"
	"applybot/bot/errs"
	"applybot/bot/gateway"
	"applybot/bot/models"
	"applybot/bot/responses"
	"applybot/utils"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// Button custom ids are "<prefix><id>".
const (
	ApplyPrefix      = "apply-"
	VoteAcceptPrefix = "vote-accept-"
	VoteDenyPrefix   = "vote-deny-"
	DismissPrefix    = "dismiss-"
)

type Flows struct {
	engine    *engine.Engine
	gateway   gateway.Gateway
	manager   *conversation.Manager
	questions []models.Question
	log       logrus.FieldLogger
}

func New(e *engine.Engine, gw gateway.Gateway, manager *conversation.Manager, defaultQuestions []models.Question, log logrus.FieldLogger) *Flows {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Flows{
		engine:    e,
		gateway:   gw,
		manager:   manager,
		questions: defaultQuestions,
		log:       log,
	}
}

func (f *Flows) defaultQuestions() []models.Question {
	return append([]models.Question(nil), f.questions...)
}

// openDM greets the user in their direct channel and returns its id.
func (f *Flows) openDM(userId string, greeting responses.Notice) (string, error) {
	if f.manager.Active(userId) {
		return "", conversation.ErrFlowInProgress
	}

	sent, err := f.gateway.DM(userId, gateway.Message{Notice: &greeting})
	if err != nil {
		return "", err
	}
	return sent.ChannelId, nil
}

func (f *Flows) notify(channelId string, notice responses.Notice) {
	if err := f.gateway.SendNotice(channelId, notice); err != nil {
		f.log.WithError(err).Printf("Could not send %q to %v", notice.Title, channelId)
	}
}

type handler = func(ctx context.Context, r conversation.Reply) (*conversation.Step, error)

func step(title, body string, timeout time.Duration, handle handler) *conversation.Step {
	return &conversation.Step{
		Prompt:  responses.Notice{Title: title, Body: body},
		Timeout: timeout,
		Handle:  handle,
	}
}

func Positions(app models.Application) string {
	if app.Capped() {
		return strconv.Itoa(*app.AcceptedCount)
	}
	return "Unlimited"
}

func SubmissionLimit(app models.Application) string {
	if app.Limited() {
		return strconv.Itoa(*app.SubmissionLimit)
	}
	return "Unlimited"
}

// Announcement is the public post applicants click through.
func Announcement(app models.Application, now time.Time) responses.Notice {
	return responses.Notice{
		Title: "📋 " + app.Name,
		Body:  app.Description,
		Fields: []*discordgo.MessageEmbedField{
			responses.InlineField("⏰ Deadline", fmt.Sprintf("%s\n%s left", utils.Timestamp(app.Deadline, "F"), utils.TimeLeft(app.Deadline.Sub(now)))),
			responses.InlineField("👥 Positions", Positions(app)),
			responses.InlineField("📝 Questions", strconv.Itoa(len(app.Questions))),
		},
		ImageURL: app.ImageURL,
	}
}

func ConfigSummary(title, body string, cfg models.GuildConfig) responses.Notice {
	modChannel := "Not set"
	if cfg.ModChannelId != "" {
		modChannel = utils.ChannelMention(cfg.ModChannelId)
	}

	notice := responses.Done(title, body)
	notice.Fields = []*discordgo.MessageEmbedField{
		responses.Field("👥 Admin Roles", utils.Mentions(cfg.AdminRoles, utils.RoleMention)),
		responses.Field("👤 Admin Users (Full Perms)", utils.Mentions(cfg.AdminUsers, utils.UserMention)),
		responses.Field("🗳️ Voter Roles", utils.Mentions(cfg.VoterRoles, utils.RoleMention)),
		responses.Field("📢 Mod Channel", modChannel),
	}
	return notice
}

func VoteFooter(tally models.VoteTally) string {
	return fmt.Sprintf("Votes: ✅ %d | ❌ %d", len(tally.Accept), len(tally.Deny))
}

// EligibilityNotice explains why an applicant cannot start or finish an application. ok is false
// for errors that are not about eligibility.
func EligibilityNotice(app models.Application, err error) (notice responses.Notice, ok bool) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return responses.Failed("Error", "Application not found"), true
	case errors.Is(err, errs.ErrClosed):
		return responses.Failed("Closed", "No longer accepting submissions"), true
	case errors.Is(err, errs.ErrLimitExceeded):
		return responses.Failed("Limit Reached", fmt.Sprintf("Max %s submissions", SubmissionLimit(app))), true
	}
	return responses.Notice{}, false
}
