package handlers

import (
	"applybot/bot/conversation"
	"applybot/bot/engine"
	"applybot/bot/errs"
	"applybot/bot/flows"
	"applybot/bot/gateway/gatewaytest"
	"applybot/bot/models"
	"applybot/bot/responses"
	"applybot/bot/store"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	guildId    = "100000000000000000"
	announceId = "200000000000000001"
	modsId     = "200000000000000002"
)

var (
	owner = models.Member{UserId: "owner", Administrator: true}
	admin = models.Member{UserId: "admin"}
	mod   = models.Member{UserId: "mod", RoleIds: []string{"mods"}}
	voter = models.Member{UserId: "voter", RoleIds: []string{"voters"}}
	pleb  = models.Member{UserId: "pleb"}
)

type recorder struct {
	mu  sync.Mutex
	all []Response
}

func (r *recorder) reply(resp Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, resp)
}

func (r *recorder) last() Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Response{}
	}
	return r.all[len(r.all)-1]
}

// idle timers never fire.
type idle struct{}

func (idle) Stop() bool { return true }

type harness struct {
	t        *testing.T
	handlers *Handlers
	engine   *engine.Engine
	gw       *gatewaytest.Fake
	manager  *conversation.Manager
	pending  []func()
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	gw := gatewaytest.New()
	gw.Channels[announceId] = guildId
	gw.Users["winner"] = "winner"

	mem := store.NewMemory()
	e := engine.New(engine.Deps{
		Configs:     mem,
		Apps:        mem,
		Submissions: mem,
		Votes:       mem,
		Notifier:    NewNotifier(gw, nil),
	})

	manager := conversation.NewManager(gw, func(time.Duration, func()) conversation.Timer { return idle{} }, nil)
	f := flows.New(e, gw, manager, []models.Question{{Prompt: "Why?", Kind: models.AnswerText}}, nil)

	h := &harness{t: t, engine: e, gw: gw, manager: manager}
	h.handlers = New(e, f, gw, nil)
	h.handlers.after = func(_ time.Duration, f func()) { h.pending = append(h.pending, f) }

	return h
}

func (h *harness) configure() {
	h.t.Helper()
	_, err := h.engine.Configure(context.Background(), guildId, models.ConfigPatch{
		AdminUsers:   []string{"admin"},
		AdminRoles:   []string{"mods"},
		VoterRoles:   []string{"voters"},
		ModChannelId: modsId,
	})
	require.NoError(h.t, err)
}

func (h *harness) run(caller models.Member, command string, args map[string]string) Response {
	h.t.Helper()
	rec := &recorder{}
	h.handlers.Dispatch(context.Background(), Invocation{
		GuildId:   guildId,
		ChannelId: "general",
		Caller:    caller,
		Command:   command,
		Args:      args,
		Prefix:    "/",
		Reply:     rec.reply,
	})
	return rec.last()
}

func (h *harness) press(caller models.Member, customId string, embed *discordgo.MessageEmbed) Response {
	h.t.Helper()
	rec := &recorder{}
	h.handlers.Press(context.Background(), Press{
		GuildId:   guildId,
		ChannelId: modsId,
		MessageId: "review",
		CustomId:  customId,
		Caller:    caller,
		Embed:     embed,
		Reply:     rec.reply,
	})
	return rec.last()
}

func (h *harness) createApp(name string, cap *int) models.Application {
	h.t.Helper()
	app, err := h.engine.CreateApplication(context.Background(), models.Application{
		GuildId:       guildId,
		Name:          name,
		ChannelId:     announceId,
		Deadline:      time.Now().Add(time.Hour),
		AcceptedCount: cap,
		Questions:     []models.Question{{Prompt: "Why?", Kind: models.AnswerText}},
	})
	require.NoError(h.t, err)
	return app
}

func (h *harness) submit(app models.Application, applicantId string) models.Submission {
	h.t.Helper()
	sub, err := h.engine.Submit(context.Background(), app.Id, applicantId, []models.Answer{
		{Question: "Why?", Answer: "I have wanted to help this community grow for a long time", Kind: models.AnswerText},
	})
	require.NoError(h.t, err)
	return sub
}

func TestPing(t *testing.T) {
	h := newHarness(t)

	resp := h.run(pleb, "ping", nil)
	assert.Equal(t, "🏓 Pong!", resp.Notice.Title)
	assert.Contains(t, resp.Notice.Body, "42ms")
}

func TestHelpUsesInvocationPrefix(t *testing.T) {
	h := newHarness(t)

	resp := h.run(pleb, "help", nil)
	assert.True(t, resp.Ephemeral)
	assert.Contains(t, resp.Notice.Fields[1].Value, "`/edit <name>`")
}

func TestConfRequiresAdministrator(t *testing.T) {
	h := newHarness(t)

	resp := h.run(admin, "conf", map[string]string{"adminusers": "<@111111111111111111>"})
	assert.Equal(t, responses.NoPermission.Title, resp.Notice.Title)

	_, err := h.engine.Config(context.Background(), guildId)
	assert.ErrorIs(t, err, errs.ErrNotConfigured)
}

func TestConfMergesIds(t *testing.T) {
	h := newHarness(t)

	resp := h.run(owner, "conf", map[string]string{})
	assert.Equal(t, responses.MissingConfParam.Title, resp.Notice.Title)

	resp = h.run(owner, "conf", map[string]string{"adminusers": "<@111111111111111111>", "modchannel": modsId})
	assert.Equal(t, "✅ Config Saved", resp.Notice.Title)

	resp = h.run(owner, "conf", map[string]string{"adminusers": "<@222222222222222222> <@111111111111111111>"})
	require.Len(t, resp.Notice.Fields, 4)
	assert.Equal(t, "<@111111111111111111>, <@222222222222222222>", resp.Notice.Fields[1].Value)
	assert.Equal(t, "<#"+modsId+">", resp.Notice.Fields[3].Value)
}

func TestManagementNeedsConfigAndAdmin(t *testing.T) {
	h := newHarness(t)

	resp := h.run(admin, "setupnew", nil)
	assert.Equal(t, "⚠️ Setup Required", resp.Notice.Title)
	assert.Equal(t, "Use `/conf` first", resp.Notice.Body)

	h.configure()
	for _, command := range []string{"setupnew", "status", "edit", "remove", "end"} {
		resp := h.run(voter, command, map[string]string{"name": "Staff"})
		assert.Equal(t, responses.NoPermission.Title, resp.Notice.Title, command)
	}
}

func TestSetupStartsConversation(t *testing.T) {
	h := newHarness(t)
	h.configure()

	resp := h.run(mod, "setupnew", nil)
	assert.Equal(t, "✅ Setup Started", resp.Notice.Title)
	assert.True(t, h.manager.Active("mod"))
	assert.Equal(t, "Step 1/7", h.gw.Last(gatewaytest.DMChannel("mod")).Title())

	resp = h.run(mod, "setupnew", nil)
	assert.Equal(t, responses.FlowInProgress.Title, resp.Notice.Title)
}

func TestSetupWithClosedDMs(t *testing.T) {
	h := newHarness(t)
	h.configure()
	h.gw.Blocked["admin"] = true

	resp := h.run(admin, "setupnew", nil)
	assert.Equal(t, responses.CannotDM.Body, resp.Notice.Body)
	assert.False(t, h.manager.Active("admin"))
}

func TestPrefixSetupAcknowledgementIsRemoved(t *testing.T) {
	h := newHarness(t)
	h.configure()

	inv, ok := h.handlers.PrefixInvocation(guildId, "general", admin, "!", "!setupnew")
	require.True(t, ok)
	h.handlers.Dispatch(context.Background(), inv)

	ack := h.gw.Last("general")
	assert.Equal(t, "<@admin> Check your DMs!", ack.Content)
	require.Len(t, h.pending, 1)

	h.pending[0]()
	assert.Equal(t, []string{ack.MessageId}, h.gw.Deleted)
}

func TestPrefixInvocation(t *testing.T) {
	h := newHarness(t)

	inv, ok := h.handlers.PrefixInvocation(guildId, "general", admin, "!", "!Edit   Staff   Team ")
	require.True(t, ok)
	assert.Equal(t, "edit", inv.Command)
	assert.Equal(t, "Staff Team", inv.Args["name"])
	assert.False(t, inv.Slash())

	_, ok = h.handlers.PrefixInvocation(guildId, "general", admin, "!", "hello")
	assert.False(t, ok)
	_, ok = h.handlers.PrefixInvocation(guildId, "general", admin, "!", "!")
	assert.False(t, ok)
}

func TestNamedCommands(t *testing.T) {
	h := newHarness(t)
	h.configure()

	resp := h.run(admin, "remove", map[string]string{})
	assert.Equal(t, "⚠️ Missing Name", resp.Notice.Title)

	resp = h.run(admin, "remove", map[string]string{"name": "Ghost"})
	assert.Equal(t, "❌ Not Found", resp.Notice.Title)

	h.createApp("Staff", nil)
	resp = h.run(admin, "remove", map[string]string{"name": "staff"})
	assert.Equal(t, "✅ Removed", resp.Notice.Title)

	apps, err := h.engine.Applications(context.Background(), guildId)
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestEndResolvesOnce(t *testing.T) {
	h := newHarness(t)
	h.configure()

	cap := 1
	app := h.createApp("Staff", &cap)
	winner := h.submit(app, "winner")
	h.submit(app, "loser")
	_, err := h.engine.CastVote(context.Background(), guildId, voter, winner.Id, models.VoteAccept)
	require.NoError(t, err)

	resp := h.run(admin, "end", map[string]string{"name": "Staff"})
	assert.Equal(t, "✅ Ended", resp.Notice.Title)

	results := h.gw.Last(announceId)
	assert.Equal(t, "🎉 Application Closed", results.Title())
	assert.Contains(t, results.Notice.Body, "<@winner>")
	require.Len(t, results.Files, 1)
	assert.Equal(t, "attachment://scoreboard.png", results.Notice.ImageURL)

	assert.Equal(t, "🎉 Congratulations!", h.gw.Last(gatewaytest.DMChannel("winner")).Title())
	assert.Equal(t, "📋 Update", h.gw.Last(gatewaytest.DMChannel("loser")).Title())

	resp = h.run(admin, "end", map[string]string{"name": "Staff"})
	assert.Equal(t, "⚠️ Already Closed", resp.Notice.Title)
	assert.Len(t, h.gw.In(announceId), 1)
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	h.configure()

	resp := h.run(admin, "status", nil)
	assert.Equal(t, "📋 No Applications", resp.Notice.Title)

	app := h.createApp("Staff", nil)
	resp = h.run(admin, "status", map[string]string{"name": "Staff"})
	assert.Equal(t, "📊 Staff", resp.Notice.Title)
	assert.Equal(t, "📭 No Submissions", resp.Notice.Fields[0].Name)
	assert.Empty(t, resp.Files)

	h.submit(app, "winner")
	resp = h.run(admin, "status", map[string]string{"name": "Staff"})
	assert.Contains(t, resp.Notice.Body, "**Submissions:** 1")
	assert.Equal(t, "🏆 Top Applicants", resp.Notice.Fields[0].Name)
	assert.Contains(t, resp.Notice.Fields[0].Value, "`1.` <@winner> - ✅ 0 | ❌ 0")
	require.Len(t, resp.Files, 1)

	resp = h.run(admin, "status", nil)
	assert.Equal(t, "📋 All Applications", resp.Notice.Title)
	assert.Contains(t, resp.Notice.Body, "**Staff**\n🟢 | 📝 1")
}

func TestVoteButton(t *testing.T) {
	h := newHarness(t)
	h.configure()
	app := h.createApp("Staff", nil)
	sub := h.submit(app, "winner")

	embed := &discordgo.MessageEmbed{Title: "📋 New: Staff"}

	resp := h.press(pleb, flows.VoteAcceptPrefix+sub.Id, embed)
	assert.Equal(t, "❌ No Permission", resp.Notice.Title)

	resp = h.press(voter, flows.VoteAcceptPrefix+sub.Id, embed)
	assert.Equal(t, "✅ Voted", resp.Notice.Title)
	assert.True(t, resp.Ephemeral)

	resp = h.press(voter, flows.VoteDenyPrefix+sub.Id, embed)
	assert.Contains(t, resp.Notice.Body, "❌ **Deny**")
	assert.Equal(t, "Votes: ✅ 0 | ❌ 1", h.gw.Edits["review"].Footer.Text)
	assert.Equal(t, "📋 New: Staff", h.gw.Edits["review"].Title)
	assert.Nil(t, embed.Footer)

	resp = h.press(voter, flows.VoteAcceptPrefix+"missing", embed)
	assert.Equal(t, "Vote data not found", resp.Notice.Body)

	_, err := h.engine.Close(context.Background(), app.Id, engine.TriggerManual)
	require.NoError(t, err)
	resp = h.press(voter, flows.VoteAcceptPrefix+sub.Id, embed)
	assert.Equal(t, "❌ Closed", resp.Notice.Title)
}

func TestDismissButton(t *testing.T) {
	h := newHarness(t)
	h.configure()
	sub := h.submit(h.createApp("Staff", nil), "winner")

	resp := h.press(mod, flows.DismissPrefix+sub.Id, nil)
	assert.Equal(t, "Only admin users can dismiss", resp.Notice.Body)
	assert.Empty(t, h.gw.Deleted)

	resp = h.press(admin, flows.DismissPrefix+sub.Id, nil)
	assert.Equal(t, "✅ Dismissed", resp.Notice.Title)
	assert.Equal(t, []string{"review"}, h.gw.Deleted)

	resp = h.press(admin, flows.DismissPrefix+sub.Id, nil)
	assert.Equal(t, "Couldn't dismiss", resp.Notice.Body)
}

func TestApplyButton(t *testing.T) {
	h := newHarness(t)
	h.configure()

	limit := 1
	app := h.createApp("Staff", nil)
	_, err := h.engine.EditApplication(context.Background(), app.Id, func(a *models.Application) error {
		a.SubmissionLimit = &limit
		return nil
	})
	require.NoError(t, err)

	resp := h.press(pleb, flows.ApplyPrefix+app.Id, nil)
	assert.Equal(t, "✅ Starting", resp.Notice.Title)
	assert.True(t, h.manager.Active("pleb"))
	assert.Equal(t, "Question 1/1", h.gw.Last(gatewaytest.DMChannel("pleb")).Title())

	h.submit(app, "winner")
	resp = h.press(models.Member{UserId: "winner"}, flows.ApplyPrefix+app.Id, nil)
	assert.Equal(t, "Max 1 submissions", resp.Notice.Body)

	_, err = h.engine.Close(context.Background(), app.Id, engine.TriggerManual)
	require.NoError(t, err)
	resp = h.press(models.Member{UserId: "late"}, flows.ApplyPrefix+app.Id, nil)
	assert.Equal(t, "❌ Closed", resp.Notice.Title)

	resp = h.press(pleb, flows.ApplyPrefix+"missing", nil)
	assert.Equal(t, "Application not found", resp.Notice.Body)
}

func TestNotifierReportsUnreachableApplicant(t *testing.T) {
	gw := gatewaytest.New()
	gw.Blocked["hidden"] = true
	n := NewNotifier(gw, nil)

	err := n.NotifyApplicant(context.Background(), models.Application{Name: "Staff"}, "hidden", true)
	assert.ErrorIs(t, err, errs.ErrDeliveryFailure)

	gw.Broken[announceId] = true
	err = n.AnnounceResults(context.Background(), engine.Outcome{Application: models.Application{ChannelId: announceId}})
	assert.ErrorIs(t, err, errs.ErrDeliveryFailure)
}
