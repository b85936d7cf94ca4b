package handlers

import (
	"applybot/bot/engine"
	"applybot/bot/errs"
	"applybot/bot/gateway"
	"applybot/bot/models"
	"applybot/bot/responses"
	"applybot/packages/scoreboard"
	"applybot/utils"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Notifier posts resolution results through the gateway.
type Notifier struct {
	gateway gateway.Gateway
	log     logrus.FieldLogger
}

func NewNotifier(gw gateway.Gateway, log logrus.FieldLogger) *Notifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Notifier{gateway: gw, log: log}
}

func (n *Notifier) AnnounceResults(_ context.Context, outcome engine.Outcome) error {
	app := outcome.Application

	tags := make([]string, 0, len(outcome.Winners))
	for _, w := range outcome.Winners {
		tags = append(tags, utils.UserMention(w.ApplicantId))
	}
	accepted := strings.Join(tags, ", ")
	if accepted == "" {
		accepted = "None"
	}

	notice := responses.Notice{
		Title: "🎉 Application Closed",
		Body:  utils.Truncate(fmt.Sprintf("**%s** closed!\n\n**Accepted:**\n%s\n\nMods will contact you soon.", app.Name, accepted), 4096),
	}
	notice.Fields = append(notice.Fields, responses.InlineField("📊 Stats", fmt.Sprintf("Total: %d\nAccepted: %d", len(outcome.Ranked), len(outcome.Winners))))

	msg := gateway.Message{Notice: &notice}
	if len(outcome.Ranked) > 0 {
		top := outcome.Ranked
		if len(top) > topApplicants {
			top = top[:topApplicants]
		}
		if file, err := renderScoreboard(n.gateway, app.Name, top); err != nil {
			n.log.WithError(err).WithField("application", app.Id).Println("Could not render scoreboard")
		} else {
			notice.ImageURL = "attachment://" + file.Name
			msg.Files = append(msg.Files, file)
		}
	}

	if _, err := n.gateway.Send(app.ChannelId, msg); err != nil {
		return errs.Delivery(app.ChannelId, err)
	}
	return nil
}

func (n *Notifier) NotifyApplicant(_ context.Context, app models.Application, applicantId string, accepted bool) error {
	notice := responses.Notice{
		Title: "📋 Update",
		Body:  fmt.Sprintf("Thanks for applying to **%s**.\n\nUnfortunately not selected this time. Feel free to apply again!", app.Name),
		Tone:  responses.Warning,
	}
	if accepted {
		notice = responses.Notice{
			Title: "🎉 Congratulations!",
			Body:  fmt.Sprintf("You've been **accepted** for:\n**%s**\n\nMods will contact you soon.", app.Name),
		}
	}

	_, err := n.gateway.DM(applicantId, gateway.Message{Notice: &notice})
	return err
}

// renderScoreboard draws the standings as a PNG attachment, labelled with usernames where they
// can be resolved.
func renderScoreboard(gw gateway.Gateway, title string, ranked []models.Standing) (gateway.File, error) {
	rows := make([]scoreboard.Row, len(ranked))
	for i, s := range ranked {
		label := s.ApplicantId
		if user, err := gw.ResolveUser(s.ApplicantId); err == nil {
			label = user.Username
		}
		rows[i] = scoreboard.Row{Label: label, Accept: s.Accept, Deny: s.Deny}
	}

	var buf bytes.Buffer
	if err := scoreboard.Draw(&buf, title, rows); err != nil {
		return gateway.File{}, err
	}

	return gateway.File{Name: "scoreboard.png", ContentType: "image/png", Data: buf.Bytes()}, nil
}
