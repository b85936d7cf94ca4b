package flows

import (
	"applybot/bot/conversation"
	"applybot/bot/errs"
	"applybot/bot/models"
	"applybot/bot/responses"
	"applybot/utils"
	"context"
	"errors"
	"fmt"
	"strings"
)

const editMenu = "Current: **%s**\n\nWhat to edit?\n\n`1` - Name\n`2` - Description\n`3` - Deadline\n`4` - Positions\n`5` - Image\n`6` - Questions\n`7` - Submission limit\n`cancel` - Cancel"

// StartEdit opens the edit menu for one application in the admin's DMs. Only one field is changed
// per conversation.
func (f *Flows) StartEdit(app models.Application, userId string) error {
	dm, err := f.openDM(userId, responses.Notice{
		Title: "✏️ Edit",
		Body:  fmt.Sprintf("Editing: **%s**\n\nCheck DMs", app.Name),
	})
	if err != nil {
		return err
	}

	return f.manager.Start(&conversation.Flow{
		Name:          "edit",
		UserId:        userId,
		ChannelId:     dm,
		First:         f.editMenu(app, dm),
		TimeoutNotice: &editTimeout,
	})
}

var editTimeout = responses.Failed("Error", "Edit timed out")

func (f *Flows) editMenu(app models.Application, dm string) *conversation.Step {
	return step("✏️ Edit Menu", fmt.Sprintf(editMenu, app.Name), conversation.MenuTimeout,
		func(ctx context.Context, r conversation.Reply) (*conversation.Step, error) {
			choice := strings.ToLower(strings.TrimSpace(r.Content))
			if choice == "cancel" {
				return nil, conversation.ErrCancelled
			}

			current, err := f.current(ctx, app.Id)
			if err != nil {
				return nil, err
			}

			switch choice {
			case "1":
				return f.editField(current, dm, "Edit Name", fmt.Sprintf("Current: **%s**\n\nNew name:", current.Name),
					func(a *models.Application, input string) error {
						name, err := required("name", input)
						a.Name = name
						return err
					}), nil
			case "2":
				return f.editField(current, dm, "Edit Description", fmt.Sprintf("Current: **%s**\n\nNew:", current.Description),
					func(a *models.Application, input string) error {
						description, err := required("description", input)
						a.Description = description
						return err
					}), nil
			case "3":
				return f.editField(current, dm, "Edit Deadline", fmt.Sprintf("Current: %s\n\nNew duration:", utils.Timestamp(current.Deadline, "F")),
					func(a *models.Application, input string) error {
						duration, err := conversation.ParseDuration(input)
						if err != nil {
							return err
						}
						a.Deadline = f.engine.Now().Add(duration)
						return nil
					}), nil
			case "4":
				return f.editField(current, dm, "Edit Positions", fmt.Sprintf("Current: **%s**\n\nNew (or \"skip\"):", Positions(current)),
					func(a *models.Application, input string) error {
						count, err := conversation.ParseOptionalInt("positions", input)
						if err != nil {
							return err
						}
						a.AcceptedCount = count
						return nil
					}), nil
			case "5":
				image := current.ImageURL
				if image == "" {
					image = "None"
				}
				return f.editField(current, dm, "Edit Image", fmt.Sprintf("Current: %s\n\nNew URL (or \"skip\"):", image),
					func(a *models.Application, input string) error {
						imageURL, err := conversation.ParseImageURL(input)
						if err != nil {
							return err
						}
						a.ImageURL = imageURL
						return nil
					}), nil
			case "6":
				s := f.editField(current, dm, "Edit Questions", "Type \"default\" or custom:\n```\n1. Question | type\n```",
					func(a *models.Application, input string) error {
						if strings.EqualFold(strings.TrimSpace(input), "default") {
							a.Questions = f.defaultQuestions()
							return nil
						}
						questions, err := conversation.ParseQuestions(input)
						if err != nil {
							return err
						}
						a.Questions = questions
						return nil
					})
				s.Timeout = conversation.QuestionTimeout
				return s, nil
			case "7":
				return f.editField(current, dm, "Edit Submission Limit", fmt.Sprintf("Current: **%s**\n\nNew (or \"skip\"):", SubmissionLimit(current)),
					func(a *models.Application, input string) error {
						limit, err := conversation.ParseOptionalInt("submission limit", input)
						if err != nil {
							return err
						}
						a.SubmissionLimit = limit
						return nil
					}), nil
			default:
				return nil, errs.Invalid("choice", "Invalid choice")
			}
		})
}

func (f *Flows) current(ctx context.Context, id string) (models.Application, error) {
	app, err := f.engine.Application(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return models.Application{}, errs.Invalid("application", "Application no longer exists")
	}
	return app, err
}

// editField parses the reply into the stored application. The record is re-read at commit time,
// so a removal during the conversation ends it with an error instead of resurrecting the entry.
func (f *Flows) editField(app models.Application, dm, title, body string, apply func(a *models.Application, input string) error) *conversation.Step {
	return step(title, body, conversation.FieldTimeout,
		func(ctx context.Context, r conversation.Reply) (*conversation.Step, error) {
			updated, err := f.engine.EditApplication(ctx, app.Id, func(a *models.Application) error {
				return apply(a, r.Content)
			})
			if errors.Is(err, errs.ErrNotFound) {
				return nil, errs.Invalid("application", "Application no longer exists")
			}
			if err != nil {
				return nil, err
			}

			f.notify(dm, responses.Done("Updated", fmt.Sprintf("**%s** updated", updated.Name)))
			return nil, nil
		})
}
