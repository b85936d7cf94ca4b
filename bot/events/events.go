package events

import (
	"applybot/bot/config"
	"applybot/bot/conversation"
	"applybot/bot/gateway"
	"applybot/bot/handlers"
	"applybot/bot/models"
	"applybot/bot/responses"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// Message is a plain chat message as the router sees it.
type Message struct {
	GuildId     string
	ChannelId   string
	Author      models.Member
	Content     string
	Attachments []string
}

// Router sends chat messages to a running conversation or, in guilds that unlocked them, to the
// prefix commands.
type Router struct {
	handlers *handlers.Handlers
	manager  *conversation.Manager
	gateway  gateway.Gateway
	settings config.Settings
	log      logrus.FieldLogger

	mu      sync.RWMutex
	enabled map[string]bool
}

func NewRouter(h *handlers.Handlers, manager *conversation.Manager, gw gateway.Gateway, settings config.Settings, log logrus.FieldLogger) *Router {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Router{
		handlers: h,
		manager:  manager,
		gateway:  gw,
		settings: settings,
		log:      log,
		enabled:  make(map[string]bool),
	}
}

// PrefixEnabled reports whether the activation code was posted in the guild since startup.
func (r *Router) PrefixEnabled(guildId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[guildId]
}

func (r *Router) Route(ctx context.Context, m Message) {
	if r.manager.Deliver(ctx, m.Author.UserId, m.ChannelId, conversation.Reply{Content: m.Content, Attachments: m.Attachments}) {
		return
	}

	if m.GuildId == "" {
		return
	}

	if m.Content == r.settings.ActivationCode {
		r.mu.Lock()
		r.enabled[m.GuildId] = true
		r.mu.Unlock()

		r.log.WithField("guild", m.GuildId).Println("Prefix commands enabled")
		err := r.gateway.SendNotice(m.ChannelId, responses.Notice{
			Title: "🔧 Dev Mode",
			Body:  fmt.Sprintf("Prefix commands enabled. Use `%shelp`", r.settings.Prefix),
		})
		if err != nil {
			r.log.WithError(err).Printf("Could not confirm activation in %v", m.ChannelId)
		}
		return
	}

	if !r.PrefixEnabled(m.GuildId) {
		return
	}

	inv, ok := r.handlers.PrefixInvocation(m.GuildId, m.ChannelId, m.Author, r.settings.Prefix, m.Content)
	if !ok {
		return
	}
	r.handlers.Dispatch(ctx, inv)
}

func MessageCreateHandler(r *Router) func(s *discordgo.Session, e *discordgo.MessageCreate) {
	return func(s *discordgo.Session, e *discordgo.MessageCreate) {
		if e.Author == nil || e.Author.Bot {
			return
		}

		m := Message{
			GuildId:   e.GuildID,
			ChannelId: e.ChannelID,
			Author:    models.Member{UserId: e.Author.ID},
			Content:   e.Content,
		}
		for _, a := range e.Attachments {
			m.Attachments = append(m.Attachments, a.URL)
		}
		if e.Member != nil {
			m.Author.RoleIds = e.Member.Roles
		}

		// Channel permissions are only needed for the prefix conf command.
		if e.GuildID != "" && strings.HasPrefix(e.Content, r.settings.Prefix) {
			perms, err := s.UserChannelPermissions(e.Author.ID, e.ChannelID)
			if err != nil {
				r.log.WithError(err).Debugf("Could not compute permissions for %v", e.Author.ID)
			}
			m.Author.Administrator = perms&discordgo.PermissionAdministrator != 0
		}

		r.Route(context.Background(), m)
	}
}
