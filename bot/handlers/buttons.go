package handlers

import (
	"applybot/bot/errs"
	"applybot/bot/flows"
	"applybot/bot/models"
	"applybot/bot/responses"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// Press is a click on one of the bot's buttons.
type Press struct {
	GuildId   string
	ChannelId string
	MessageId string
	CustomId  string
	Caller    models.Member
	// Embed is the first embed of the message carrying the button, if any.
	Embed *discordgo.MessageEmbed
	Reply func(Response)
}

func (p Press) whisper(notice responses.Notice) {
	p.Reply(Response{Notice: notice, Ephemeral: true})
}

func (p Press) invocation() Invocation {
	return Invocation{
		GuildId:   p.GuildId,
		ChannelId: p.ChannelId,
		Caller:    p.Caller,
		Command:   p.CustomId,
		Prefix:    "/",
		Reply:     p.Reply,
	}
}

func buttonPress(s *discordgo.Session, i *discordgo.InteractionCreate) Press {
	p := Press{
		GuildId:   i.GuildID,
		ChannelId: i.ChannelID,
		CustomId:  i.MessageComponentData().CustomID,
		Caller:    member(i.Member),
		Reply:     interactionReply(s, i),
	}

	if i.Message != nil {
		p.MessageId = i.Message.ID
		if len(i.Message.Embeds) > 0 {
			p.Embed = i.Message.Embeds[0]
		}
	}

	return p
}

// Press routes a button click by its custom id prefix.
func (h *Handlers) Press(ctx context.Context, p Press) {
	switch id := p.CustomId; {
	case strings.HasPrefix(id, flows.ApplyPrefix):
		h.applyButtonHandler(ctx, p, strings.TrimPrefix(id, flows.ApplyPrefix))
	case strings.HasPrefix(id, flows.VoteAcceptPrefix):
		h.voteButtonHandler(ctx, p, strings.TrimPrefix(id, flows.VoteAcceptPrefix), models.VoteAccept)
	case strings.HasPrefix(id, flows.VoteDenyPrefix):
		h.voteButtonHandler(ctx, p, strings.TrimPrefix(id, flows.VoteDenyPrefix), models.VoteDeny)
	case strings.HasPrefix(id, flows.DismissPrefix):
		h.dismissButtonHandler(ctx, p, strings.TrimPrefix(id, flows.DismissPrefix))
	default:
		h.log.WithField("custom_id", id).Debugf("Ignoring unknown button")
	}
}

func (h *Handlers) applyButtonHandler(ctx context.Context, p Press, applicationId string) {
	app, err := h.engine.CheckEligible(ctx, applicationId, p.Caller.UserId)
	if notice, ok := flows.EligibilityNotice(app, err); ok {
		p.whisper(notice)
		return
	}
	if err != nil {
		h.fail(p.invocation(), err)
		return
	}

	if err := h.flows.StartApply(app, p.Caller.UserId); err != nil {
		h.fail(p.invocation(), err)
		return
	}

	p.whisper(responses.Done("Starting", "Check DMs!"))
}

func (h *Handlers) voteButtonHandler(ctx context.Context, p Press, submissionId string, choice models.VoteChoice) {
	tally, err := h.engine.CastVote(ctx, p.GuildId, p.Caller, submissionId, choice)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		p.whisper(responses.Failed("Error", "Vote data not found"))
		return
	case errors.Is(err, errs.ErrPermissionDenied):
		p.whisper(responses.Failed("No Permission", "Can't vote"))
		return
	case errors.Is(err, errs.ErrClosed):
		p.whisper(responses.Failed("Closed", "Voting has ended"))
		return
	case err != nil:
		h.fail(p.invocation(), err)
		return
	}

	yours := "✅ **Accept**"
	if choice == models.VoteDeny {
		yours = "❌ **Deny**"
	}
	p.whisper(responses.Done("Voted", fmt.Sprintf("Your vote: %s\n\n**Votes:**\n✅ %d\n❌ %d", yours, len(tally.Accept), len(tally.Deny))))

	if p.Embed == nil {
		return
	}

	updated := *p.Embed
	updated.Footer = &discordgo.MessageEmbedFooter{Text: flows.VoteFooter(tally)}
	if err := h.gateway.EditEmbed(p.ChannelId, p.MessageId, &updated); err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{"submission": submissionId, "message": p.MessageId}).Println("Could not update vote count")
	}
}

func (h *Handlers) dismissButtonHandler(ctx context.Context, p Press, submissionId string) {
	err := h.engine.Dismiss(ctx, p.GuildId, p.Caller, submissionId)
	switch {
	case errors.Is(err, errs.ErrPermissionDenied):
		p.whisper(responses.Failed("No Permission", "Only admin users can dismiss"))
		return
	case errors.Is(err, errs.ErrNotFound):
		p.whisper(responses.Failed("Error", "Couldn't dismiss"))
		return
	case err != nil:
		h.fail(p.invocation(), err)
		return
	}

	if p.MessageId != "" {
		if err := h.gateway.Delete(p.ChannelId, p.MessageId); err != nil {
			h.log.WithError(err).WithField("submission", submissionId).Println("Could not delete review post")
		}
	}

	p.whisper(responses.Done("Dismissed", "Submission removed"))
}
