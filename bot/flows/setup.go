package flows

import (
	"applybot/bot/conversation"
	"applybot/bot/errs"
	"applybot/bot/gateway"
	"applybot/bot/models"
	"applybot/bot/responses"
	"applybot/utils"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

type setupDraft struct {
	app      models.Application
	duration time.Duration
	dm       string
	origin   string
}

// StartSetup walks an admin through creating an application in their DMs. originChannelId, when
// set, also receives a short success note (prefix invocations reply where they were typed).
func (f *Flows) StartSetup(guildId, userId, originChannelId string) error {
	dm, err := f.openDM(userId, responses.Notice{
		Title: "📝 Application Setup",
		Body:  "Let's create a new application form!\n\nCheck your DMs.",
	})
	if err != nil {
		return err
	}

	draft := &setupDraft{
		app:    models.Application{GuildId: guildId, CreatorId: userId},
		dm:     dm,
		origin: originChannelId,
	}

	return f.manager.Start(&conversation.Flow{
		Name:          "setup",
		UserId:        userId,
		ChannelId:     dm,
		First:         f.setupName(draft),
		TimeoutNotice: &setupTimeout,
	})
}

var setupTimeout = responses.Failed("Failed", "Setup cancelled or timed out")

func required(field, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errs.Invalid(field, "Cannot be empty")
	}
	return text, nil
}

func (f *Flows) setupName(d *setupDraft) *conversation.Step {
	return step("Step 1/7", "📌 Enter a name for this application:\n\n*Example: Staff Application*", conversation.FieldTimeout,
		func(_ context.Context, r conversation.Reply) (*conversation.Step, error) {
			name, err := required("name", r.Content)
			if err != nil {
				return nil, err
			}
			d.app.Name = name
			return f.setupDescription(d), nil
		})
}

func (f *Flows) setupDescription(d *setupDraft) *conversation.Step {
	return step("Step 2/7", "📄 Enter the description:\n\n*This will be shown to applicants*", conversation.FieldTimeout,
		func(_ context.Context, r conversation.Reply) (*conversation.Step, error) {
			description, err := required("description", r.Content)
			if err != nil {
				return nil, err
			}
			d.app.Description = description
			return f.setupChannel(d), nil
		})
}

func (f *Flows) setupChannel(d *setupDraft) *conversation.Step {
	return step("Step 3/7", "📢 Enter the **Channel ID** where application will be posted:\n\n*Right-click channel → Copy Channel ID*", conversation.FieldTimeout,
		func(_ context.Context, r conversation.Reply) (*conversation.Step, error) {
			channelId := strings.TrimSpace(r.Content)
			if ids := utils.Snowflakes(channelId); len(ids) == 1 {
				channelId = ids[0]
			}

			ch, err := f.gateway.ResolveChannel(d.app.GuildId, channelId)
			if err != nil {
				f.log.WithError(err).Debugf("Channel %q rejected during setup", channelId)
				return nil, errs.Invalid("channel", "Invalid channel ID")
			}
			d.app.ChannelId = ch.ID
			return f.setupDuration(d), nil
		})
}

func (f *Flows) setupDuration(d *setupDraft) *conversation.Step {
	return step("Step 4/7", "⏰ Duration:\n\n**Examples:**\n• `3 days`\n• `1 week`\n• `24 hours`", conversation.FieldTimeout,
		func(_ context.Context, r conversation.Reply) (*conversation.Step, error) {
			duration, err := conversation.ParseDuration(r.Content)
			if err != nil {
				return nil, err
			}
			d.duration = duration
			return f.setupPositions(d), nil
		})
}

func (f *Flows) setupPositions(d *setupDraft) *conversation.Step {
	return step("Step 5/7", "👥 How many will be **accepted**?\n\n*Type \"skip\" for no limit*", conversation.FieldTimeout,
		func(_ context.Context, r conversation.Reply) (*conversation.Step, error) {
			count, err := conversation.ParseOptionalInt("positions", r.Content)
			if err != nil {
				return nil, err
			}
			d.app.AcceptedCount = count
			return f.setupImage(d), nil
		})
}

func (f *Flows) setupImage(d *setupDraft) *conversation.Step {
	return step("Step 6/7", "🖼️ Image URL (optional):\n\n*Type \"skip\" to continue without image*", conversation.FieldTimeout,
		func(_ context.Context, r conversation.Reply) (*conversation.Step, error) {
			imageURL, err := conversation.ParseImageURL(r.Content)
			if err != nil {
				return nil, err
			}
			d.app.ImageURL = imageURL
			return f.setupLimit(d), nil
		})
}

func (f *Flows) setupLimit(d *setupDraft) *conversation.Step {
	return step("Step 7/7", "🔢 Max submissions per user:\n\n*Type \"skip\" for no limit*", conversation.FieldTimeout,
		func(_ context.Context, r conversation.Reply) (*conversation.Step, error) {
			limit, err := conversation.ParseOptionalInt("submission limit", r.Content)
			if err != nil {
				return nil, err
			}
			d.app.SubmissionLimit = limit
			return f.setupQuestionChoice(d), nil
		})
}

func (f *Flows) setupQuestionChoice(d *setupDraft) *conversation.Step {
	body := fmt.Sprintf("❓ Choose:\n\n• Type **\"default\"** - Use %d standard questions\n• Type **\"custom\"** - Make your own", len(f.questions))

	return step("Questions", body, conversation.FieldTimeout,
		func(ctx context.Context, r conversation.Reply) (*conversation.Step, error) {
			if strings.EqualFold(strings.TrimSpace(r.Content), "default") {
				d.app.Questions = f.defaultQuestions()
				return nil, f.commitSetup(ctx, d)
			}
			return f.setupCustomQuestions(d), nil
		})
}

const questionFormat = "Format:\n\n```\n1. Question | type\n2. Question | type\n```\n**Types:**\n• `text`\n• `image`\n\n**Example:**\n```\n1. Why join? | text\n2. Upload screenshot | image\n```"

func (f *Flows) setupCustomQuestions(d *setupDraft) *conversation.Step {
	return step("Custom Questions", questionFormat, conversation.QuestionTimeout,
		func(ctx context.Context, r conversation.Reply) (*conversation.Step, error) {
			questions, err := conversation.ParseQuestions(r.Content)
			if err != nil {
				return nil, err
			}
			d.app.Questions = questions
			return nil, f.commitSetup(ctx, d)
		})
}

// commitSetup creates the application and posts its announcement. If the announcement cannot be
// posted the application is removed again.
func (f *Flows) commitSetup(ctx context.Context, d *setupDraft) error {
	d.app.Deadline = f.engine.Now().Add(d.duration)

	app, err := f.engine.CreateApplication(ctx, d.app)
	if err != nil {
		return err
	}

	announcement := Announcement(app, f.engine.Now())
	sent, err := f.gateway.Send(app.ChannelId, gateway.Message{
		Notice: &announcement,
		Buttons: []gateway.Button{
			{CustomId: ApplyPrefix + app.Id, Label: "📝 Apply Now", Style: discordgo.PrimaryButton},
		},
	})
	if err != nil {
		if removeErr := f.engine.RemoveApplication(ctx, app.Id); removeErr != nil {
			f.log.WithError(removeErr).Printf("Could not roll back application %v", app.Id)
		}
		return fmt.Errorf("posting application %s: %w", app.Id, err)
	}

	f.notify(d.dm, responses.Done("Done", fmt.Sprintf(
		"**%s** posted in %s\n\nID: `%s`\n[Jump to post](%s)",
		app.Name, utils.ChannelMention(app.ChannelId), app.Id, utils.MessageURL(app.GuildId, sent.ChannelId, sent.MessageId),
	)))

	if d.origin != "" {
		f.notify(d.origin, responses.Done("Success", fmt.Sprintf("Application **%s** created", app.Name)))
	}

	return nil
}
