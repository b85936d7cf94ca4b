package handlers

import (
	"applybot/bot/conversation"
	"applybot/bot/engine"
	"applybot/bot/errs"
	"applybot/bot/flows"
	"applybot/bot/gateway"
	"applybot/bot/models"
	"applybot/bot/responses"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

type Response struct {
	Notice    responses.Notice
	Ephemeral bool
	Files     []gateway.File
}

// Invocation is a command as typed, whether it arrived as a slash command or a prefix message.
type Invocation struct {
	GuildId   string
	ChannelId string
	Caller    models.Member
	Command   string
	// Args holds named options. Prefix commands put their free text under "name".
	Args map[string]string
	// Prefix is "/" for slash commands and the configured prefix otherwise.
	Prefix string
	Reply  func(Response)
}

func (inv Invocation) Slash() bool { return inv.Prefix == "/" }

func (inv Invocation) respond(notice responses.Notice) {
	inv.Reply(Response{Notice: notice})
}

func (inv Invocation) whisper(notice responses.Notice) {
	inv.Reply(Response{Notice: notice, Ephemeral: true})
}

type CommandHandler = func(ctx context.Context, inv Invocation)

type Handlers struct {
	engine   *engine.Engine
	flows    *flows.Flows
	gateway  gateway.Gateway
	log      logrus.FieldLogger
	commands map[string]CommandHandler
	// after schedules the removal of transient prefix acknowledgements.
	after func(d time.Duration, f func())
}

func New(e *engine.Engine, f *flows.Flows, gw gateway.Gateway, log logrus.FieldLogger) *Handlers {
	if log == nil {
		log = logrus.StandardLogger()
	}

	h := &Handlers{
		engine:  e,
		flows:   f,
		gateway: gw,
		log:     log,
		after:   func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}

	h.commands = map[string]CommandHandler{
		"ping":     h.pingCommandHandler,
		"help":     h.helpCommandHandler,
		"conf":     h.confCommandHandler,
		"setupnew": h.admin(h.setupCommandHandler),
		"edit":     h.admin(h.named(h.editCommandHandler)),
		"remove":   h.admin(h.named(h.removeCommandHandler)),
		"end":      h.admin(h.named(h.endCommandHandler)),
		"status":   h.admin(h.statusCommandHandler),
	}

	return h
}

// Dispatch runs the command handler for inv. Unknown commands are ignored.
func (h *Handlers) Dispatch(ctx context.Context, inv Invocation) {
	if commandHandler, ok := h.commands[inv.Command]; ok {
		commandHandler(ctx, inv)
	}
}

func (h *Handlers) admin(next CommandHandler) CommandHandler {
	return func(ctx context.Context, inv Invocation) {
		if _, err := h.engine.RequireAdmin(ctx, inv.GuildId, inv.Caller); err != nil {
			h.fail(inv, err)
			return
		}
		next(ctx, inv)
	}
}

// named resolves the "name" argument to an application of the invoking guild.
func (h *Handlers) named(next func(ctx context.Context, inv Invocation, app models.Application)) CommandHandler {
	return func(ctx context.Context, inv Invocation) {
		name := strings.TrimSpace(inv.Args["name"])
		if name == "" {
			inv.respond(responses.Warn("Missing Name", fmt.Sprintf("Usage: `%s%s <name>`", inv.Prefix, inv.Command)))
			return
		}

		app, err := h.engine.FindApplication(ctx, inv.GuildId, name)
		switch {
		case errors.Is(err, errs.ErrNotFound):
			inv.whisper(responses.NotFound(name))
		case err != nil:
			h.fail(inv, err)
		default:
			next(ctx, inv, app)
		}
	}
}

// fail maps an error to the single reply the caller sees.
func (h *Handlers) fail(inv Invocation, err error) {
	var v *errs.ValidationError

	switch {
	case errors.Is(err, errs.ErrNotConfigured):
		inv.whisper(responses.Warn("Setup Required", fmt.Sprintf("Use `%sconf` first", inv.Prefix)))
	case errors.Is(err, errs.ErrPermissionDenied):
		inv.whisper(responses.NoPermission)
	case errors.Is(err, conversation.ErrFlowInProgress):
		inv.whisper(responses.FlowInProgress)
	case errors.Is(err, errs.ErrDeliveryFailure):
		h.log.WithError(err).Printf("Could not DM %v", inv.Caller.UserId)
		inv.whisper(responses.CannotDM)
	case errors.As(err, &v):
		inv.whisper(responses.Failed("Error", v.Reason))
	default:
		h.log.WithError(err).WithField("command", inv.Command).Println("Command failed")
		inv.whisper(responses.SomethingWrong)
	}
}

// transient posts a short plain message that disappears after d.
func (h *Handlers) transient(channelId, content string, d time.Duration) {
	sent, err := h.gateway.Send(channelId, gateway.Message{Content: content})
	if err != nil {
		h.log.WithError(err).Printf("Could not send acknowledgement to %v", channelId)
		return
	}

	h.after(d, func() {
		if err := h.gateway.Delete(sent.ChannelId, sent.MessageId); err != nil {
			h.log.WithError(err).Debugf("Could not delete acknowledgement %v", sent.MessageId)
		}
	})
}

func InteractionCreateHandler(h *Handlers) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Member == nil {
			s.InteractionRespond(i.Interaction, responses.GenericErrorResponse)
			return
		}

		ctx := context.Background()

		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			h.Dispatch(ctx, slashInvocation(s, i))
		case discordgo.InteractionMessageComponent:
			h.Press(ctx, buttonPress(s, i))
		}
	}
}

func member(m *discordgo.Member) models.Member {
	return models.Member{
		UserId:        m.User.ID,
		RoleIds:       m.Roles,
		Administrator: m.Permissions&discordgo.PermissionAdministrator != 0,
	}
}

func interactionReply(s *discordgo.Session, i *discordgo.InteractionCreate) func(Response) {
	return func(r Response) {
		data := &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{r.Notice.Embed()},
		}
		if r.Ephemeral {
			data.Flags = discordgo.MessageFlagsEphemeral
		}
		for _, f := range r.Files {
			data.Files = append(data.Files, &discordgo.File{
				Name:        f.Name,
				ContentType: f.ContentType,
				Reader:      bytes.NewReader(f.Data),
			})
		}

		err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		})
		if err != nil {
			logrus.WithError(err).Printf("Could not respond to interaction %v", i.ID)
		}
	}
}

func slashInvocation(s *discordgo.Session, i *discordgo.InteractionCreate) Invocation {
	data := i.ApplicationCommandData()

	args := make(map[string]string, len(data.Options))
	for _, opt := range data.Options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionChannel:
			args[opt.Name] = opt.ChannelValue(nil).ID
		case discordgo.ApplicationCommandOptionString:
			args[opt.Name] = opt.StringValue()
		}
	}

	return Invocation{
		GuildId:   i.GuildID,
		ChannelId: i.ChannelID,
		Caller:    member(i.Member),
		Command:   data.Name,
		Args:      args,
		Prefix:    "/",
		Reply:     interactionReply(s, i),
	}
}

// PrefixInvocation builds an invocation from a "<prefix><command> <args…>" message. Replies are
// posted in the same channel.
func (h *Handlers) PrefixInvocation(guildId, channelId string, caller models.Member, prefix, content string) (Invocation, bool) {
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if !strings.HasPrefix(content, prefix) || len(fields) == 0 {
		return Invocation{}, false
	}

	return Invocation{
		GuildId:   guildId,
		ChannelId: channelId,
		Caller:    caller,
		Command:   strings.ToLower(fields[0]),
		Args:      map[string]string{"name": strings.Join(fields[1:], " ")},
		Prefix:    prefix,
		Reply: func(r Response) {
			_, err := h.gateway.Send(channelId, gateway.Message{Notice: &r.Notice, Files: r.Files})
			if err != nil {
				h.log.WithError(err).Printf("Could not reply in %v", channelId)
			}
		},
	}, true
}
