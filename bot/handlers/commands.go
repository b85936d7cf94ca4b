package handlers

import (
	"applybot/bot/engine"
	"applybot/bot/errs"
	"applybot/bot/flows"
	"applybot/bot/models"
	"applybot/bot/responses"
	"applybot/utils"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

func (h *Handlers) pingCommandHandler(_ context.Context, inv Invocation) {
	inv.respond(responses.Notice{
		Title: "🏓 Pong!",
		Body:  fmt.Sprintf("**Latency:** %dms\n**Status:** Online", h.gateway.Latency().Milliseconds()),
	})
}

func (h *Handlers) helpCommandHandler(_ context.Context, inv Invocation) {
	p := inv.Prefix

	inv.whisper(responses.Notice{
		Title: "📚 Commands",
		Body:  "Available commands:",
		Fields: []*discordgo.MessageEmbedField{
			responses.Field("⚙️ Config", fmt.Sprintf("`%sconf` - Setup\n`%sping` - Latency", p, p)),
			responses.Field("📝 Management", fmt.Sprintf("`%ssetupnew` - New app\n`%sedit <name>` - Edit\n`%sremove <name>` - Remove\n`%send <name>` - Close", p, p, p, p)),
			responses.Field("📊 Info", fmt.Sprintf("`%sstatus [name]` - Status\n`%shelp` - This menu", p, p)),
			responses.Field("💡 Permissions", "**Admin Users:** Full control\n**Admin Roles:** Manage apps\n**Voter Roles:** Vote only"),
		},
	})
}

// confCommandHandler merges the given ids into the guild configuration. The prefix form has no
// inline arguments and asks for a configuration block instead.
func (h *Handlers) confCommandHandler(ctx context.Context, inv Invocation) {
	if !inv.Caller.Administrator {
		inv.whisper(responses.NoPermission)
		return
	}

	if !inv.Slash() {
		if err := h.flows.StartConf(inv.GuildId, inv.Caller.UserId, inv.ChannelId); err != nil {
			h.fail(inv, err)
		}
		return
	}

	patch := models.ConfigPatch{
		AdminRoles:   utils.Snowflakes(inv.Args["adminroles"]),
		AdminUsers:   utils.Snowflakes(inv.Args["adminusers"]),
		VoterRoles:   utils.Snowflakes(inv.Args["voterroles"]),
		ModChannelId: inv.Args["modchannel"],
	}
	if patch.Empty() {
		inv.whisper(responses.MissingConfParam)
		return
	}

	cfg, err := h.engine.Configure(ctx, inv.GuildId, patch)
	if err != nil {
		h.fail(inv, err)
		return
	}

	inv.respond(flows.ConfigSummary("Config Saved", "Settings updated", cfg))
}

func (h *Handlers) setupCommandHandler(_ context.Context, inv Invocation) {
	origin := ""
	if !inv.Slash() {
		origin = inv.ChannelId
	}

	if err := h.flows.StartSetup(inv.GuildId, inv.Caller.UserId, origin); err != nil {
		if !inv.Slash() && errors.Is(err, errs.ErrDeliveryFailure) {
			h.transient(inv.ChannelId, fmt.Sprintf("%s %s", utils.UserMention(inv.Caller.UserId), responses.CannotDM.Body), 10*time.Second)
			return
		}
		h.fail(inv, err)
		return
	}

	if inv.Slash() {
		inv.whisper(responses.Done("Setup Started", "Check your DMs!"))
		return
	}
	h.transient(inv.ChannelId, utils.UserMention(inv.Caller.UserId)+" Check your DMs!", 5*time.Second)
}

func (h *Handlers) editCommandHandler(_ context.Context, inv Invocation, app models.Application) {
	if err := h.flows.StartEdit(app, inv.Caller.UserId); err != nil {
		if errors.Is(err, errs.ErrDeliveryFailure) {
			inv.whisper(responses.Failed("Error", "Can't DM you. Enable DMs first."))
			return
		}
		h.fail(inv, err)
		return
	}

	if inv.Slash() {
		inv.whisper(responses.Done("Started", "Check DMs!"))
	}
}

func (h *Handlers) removeCommandHandler(ctx context.Context, inv Invocation, app models.Application) {
	if err := h.engine.RemoveApplication(ctx, app.Id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			inv.whisper(responses.NotFound(app.Name))
			return
		}
		h.fail(inv, err)
		return
	}

	inv.respond(responses.Done("Removed", fmt.Sprintf("**%s** removed", app.Name)))
}

func (h *Handlers) endCommandHandler(ctx context.Context, inv Invocation, app models.Application) {
	if app.Closed {
		inv.whisper(responses.AlreadyClosed(app.Name))
		return
	}

	_, err := h.engine.Close(ctx, app.Id, engine.TriggerManual)
	switch {
	case errors.Is(err, errs.ErrAlreadyClosed):
		inv.whisper(responses.AlreadyClosed(app.Name))
	case errors.Is(err, errs.ErrNotFound):
		inv.whisper(responses.NotFound(app.Name))
	case err != nil:
		h.fail(inv, err)
	default:
		inv.respond(responses.Done("Ended", fmt.Sprintf("**%s** closed", app.Name)))
	}
}

func (h *Handlers) statusCommandHandler(ctx context.Context, inv Invocation) {
	name := strings.TrimSpace(inv.Args["name"])
	if name == "" {
		h.overview(ctx, inv)
		return
	}

	app, err := h.engine.FindApplication(ctx, inv.GuildId, name)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		inv.whisper(responses.NotFound(name))
		return
	case err != nil:
		h.fail(inv, err)
		return
	}

	ranked, err := h.engine.Standings(ctx, app.Id)
	if err != nil {
		h.fail(inv, err)
		return
	}

	notice := responses.Notice{
		Title: "📊 " + app.Name,
		Body: fmt.Sprintf("**Status:** %s\n**Deadline:** %s\n**Positions:** %s\n**Submissions:** %d",
			state(app), utils.Timestamp(app.Deadline, "R"), flows.Positions(app), len(ranked)),
	}

	if len(ranked) == 0 {
		notice.Fields = append(notice.Fields, responses.Field("📭 No Submissions", "None yet"))
		inv.respond(notice)
		return
	}

	top := ranked
	if len(top) > topApplicants {
		top = top[:topApplicants]
	}

	lines := make([]string, len(top))
	for i, s := range top {
		lines[i] = fmt.Sprintf("`%d.` %s - ✅ %d | ❌ %d", i+1, utils.UserMention(s.ApplicantId), s.Accept, s.Deny)
	}
	notice.Fields = append(notice.Fields, responses.Field("🏆 Top Applicants", strings.Join(lines, "\n")))

	response := Response{Notice: notice}
	if file, err := renderScoreboard(h.gateway, app.Name, top); err != nil {
		h.log.WithError(err).WithField("application", app.Id).Println("Could not render scoreboard")
	} else {
		response.Notice.ImageURL = "attachment://" + file.Name
		response.Files = append(response.Files, file)
	}

	inv.Reply(response)
}

func (h *Handlers) overview(ctx context.Context, inv Invocation) {
	apps, err := h.engine.Applications(ctx, inv.GuildId)
	if err != nil {
		h.fail(inv, err)
		return
	}

	if len(apps) == 0 {
		inv.whisper(responses.Notice{Title: "📋 No Applications", Body: "No apps in this server"})
		return
	}

	entries := make([]string, 0, len(apps))
	for _, app := range apps {
		standings, err := h.engine.Standings(ctx, app.Id)
		if err != nil {
			h.fail(inv, err)
			return
		}

		marker := "🟢"
		if app.Closed {
			marker = "🔴"
		}
		entries = append(entries, fmt.Sprintf("**%s**\n%s | 📝 %d | ⏰ %s", app.Name, marker, len(standings), utils.Timestamp(app.Deadline, "R")))
	}

	inv.respond(responses.Notice{
		Title: "📋 All Applications",
		Body:  utils.Truncate(strings.Join(entries, "\n\n"), 4096),
	})
}

const topApplicants = 10

func state(app models.Application) string {
	if app.Closed {
		return "🔴 Closed"
	}
	return "🟢 Active"
}
