package flows

import (
	"applybot/bot/conversation"
	"applybot/bot/errs"
	"applybot/bot/gateway"
	"applybot/bot/models"
	"applybot/bot/responses"
	"applybot/bot/spam"
	"applybot/utils"
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

type applyDraft struct {
	app       models.Application
	applicant string
	dm        string
	answers   []models.Answer
}

// StartApply asks the application's questions one by one in the applicant's DMs. The caller is
// expected to have run engine.CheckEligible; the rules are enforced again on submit.
func (f *Flows) StartApply(app models.Application, applicantId string) error {
	if len(app.Questions) == 0 {
		return errs.Invalid("questions", "Application has no questions")
	}

	dm, err := f.openDM(applicantId, responses.Notice{
		Title: "📝 Application",
		Body:  fmt.Sprintf("Applying for: **%s**\n\nAnswer the questions below.", app.Name),
	})
	if err != nil {
		return err
	}

	draft := &applyDraft{app: app, applicant: applicantId, dm: dm}

	return f.manager.Start(&conversation.Flow{
		Name:      "apply",
		UserId:    applicantId,
		ChannelId: dm,
		First:     f.question(draft, 0),
	})
}

func (f *Flows) question(d *applyDraft, i int) *conversation.Step {
	q := d.app.Questions[i]

	hint := "✍️ Type answer"
	if q.Kind == models.AnswerImage {
		hint = "📷 Upload image"
	}

	title := fmt.Sprintf("Question %d/%d", i+1, len(d.app.Questions))
	return step(title, fmt.Sprintf("%s\n\n%s", q.Prompt, hint), conversation.AnswerTimeout,
		func(ctx context.Context, r conversation.Reply) (*conversation.Step, error) {
			answer := models.Answer{Question: q.Prompt, Kind: q.Kind, Answer: r.Content}
			if q.Kind == models.AnswerImage {
				if len(r.Attachments) == 0 {
					return nil, errs.Invalid("answer", "Image required")
				}
				answer.Answer = r.Attachments[0]
			}
			d.answers = append(d.answers, answer)

			if i+1 < len(d.app.Questions) {
				return f.question(d, i+1), nil
			}
			return nil, f.submit(ctx, d)
		})
}

func (f *Flows) submit(ctx context.Context, d *applyDraft) error {
	sub, err := f.engine.Submit(ctx, d.app.Id, d.applicant, d.answers)

	var spamErr *spam.Error
	switch {
	case errors.As(err, &spamErr):
		f.notify(d.dm, responses.Failed("Rejected", fmt.Sprintf("Auto-rejected.\n\n**Reason:** %s\n\nSubmit a real application.", spamErr.Reason)))
		return nil
	case err != nil:
		if notice, ok := EligibilityNotice(d.app, err); ok {
			f.notify(d.dm, notice)
			return nil
		}
		return err
	}

	f.notify(d.dm, responses.Done("Submitted", fmt.Sprintf("Thanks for applying to **%s**!\n\nYour app was sent to mods. We'll contact you soon.", d.app.Name)))

	f.postReview(ctx, d.app, sub)

	return nil
}

// postReview puts the submission in front of the moderators. Without a moderator channel the
// submission is kept but nobody is shown it.
func (f *Flows) postReview(ctx context.Context, app models.Application, sub models.Submission) {
	logger := f.log.WithFields(logrus.Fields{"application": app.Id, "submission": sub.Id})

	cfg, err := f.engine.Config(ctx, app.GuildId)
	switch {
	case err != nil:
		logger.WithError(err).Println("Could not load guild config for review post")
		return
	case cfg.ModChannelId == "":
		logger.Println("No moderator channel configured, review post skipped")
		return
	}

	tag := sub.ApplicantId
	if user, err := f.gateway.ResolveUser(sub.ApplicantId); err == nil {
		tag = user.String()
	}

	review := Review(app, sub, tag)
	_, err = f.gateway.Send(cfg.ModChannelId, gateway.Message{
		Notice: &review,
		Buttons: []gateway.Button{
			{CustomId: VoteAcceptPrefix + sub.Id, Label: "✅ Accept", Style: discordgo.SuccessButton},
			{CustomId: VoteDenyPrefix + sub.Id, Label: "❌ Deny", Style: discordgo.DangerButton},
			{CustomId: DismissPrefix + sub.Id, Label: "🗑️ Dismiss", Style: discordgo.SecondaryButton},
		},
	})
	if err != nil {
		logger.WithError(err).Println("Could not post submission for review")
	}
}

// Review renders a submission for the moderator channel.
func Review(app models.Application, sub models.Submission, applicantTag string) responses.Notice {
	notice := responses.Notice{
		Title: "📋 New: " + app.Name,
		Body: fmt.Sprintf("**Applicant:** %s (%s)\n**ID:** %s\n**Time:** %s",
			applicantTag, utils.UserMention(sub.ApplicantId), sub.ApplicantId, utils.Timestamp(sub.CreatedAt, "R")),
		Footer: VoteFooter(models.VoteTally{}),
	}

	for _, a := range sub.Answers {
		if a.Kind == models.AnswerImage {
			notice.Fields = append(notice.Fields, responses.Field(utils.Truncate("📷 "+a.Question, 256), fmt.Sprintf("[Image](%s)", a.Answer)))
			if notice.ImageURL == "" {
				notice.ImageURL = a.Answer
			}
			continue
		}

		value := utils.Truncate(a.Answer, 1024)
		if value == "" {
			value = "No answer"
		}
		notice.Fields = append(notice.Fields, responses.Field(utils.Truncate("❓ "+a.Question, 256), value))
	}

	return notice
}
