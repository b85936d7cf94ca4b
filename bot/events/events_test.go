package events

import (
	"applybot/bot/config"
	"applybot/bot/conversation"
	"applybot/bot/engine"
	"applybot/bot/flows"
	"applybot/bot/gateway/gatewaytest"
	"applybot/bot/handlers"
	"applybot/bot/models"
	"applybot/bot/store"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guildId = "100000000000000000"

type idle struct{}

func (idle) Stop() bool { return true }

func newRouter(t *testing.T) (*Router, *gatewaytest.Fake, *conversation.Manager) {
	t.Helper()

	gw := gatewaytest.New()
	mem := store.NewMemory()
	e := engine.New(engine.Deps{Configs: mem, Apps: mem, Submissions: mem, Votes: mem})
	manager := conversation.NewManager(gw, func(time.Duration, func()) conversation.Timer { return idle{} }, nil)

	settings := config.DefaultSettings()
	f := flows.New(e, gw, manager, settings.DefaultQuestions, nil)
	h := handlers.New(e, f, gw, nil)

	_, err := e.Configure(context.Background(), guildId, models.ConfigPatch{AdminUsers: []string{"admin"}})
	require.NoError(t, err)

	return NewRouter(h, manager, gw, settings, nil), gw, manager
}

func TestPrefixCommandsNeedActivation(t *testing.T) {
	r, gw, _ := newRouter(t)
	ctx := context.Background()
	msg := Message{GuildId: guildId, ChannelId: "general", Author: models.Member{UserId: "pleb"}, Content: "!ping"}

	r.Route(ctx, msg)
	assert.Empty(t, gw.In("general"))
	assert.False(t, r.PrefixEnabled(guildId))

	r.Route(ctx, Message{GuildId: guildId, ChannelId: "general", Author: models.Member{UserId: "pleb"}, Content: "112233112233"})
	assert.True(t, r.PrefixEnabled(guildId))
	assert.Equal(t, "🔧 Dev Mode", gw.Last("general").Title())
	assert.Equal(t, "Prefix commands enabled. Use `!help`", gw.Last("general").Notice.Body)

	r.Route(ctx, msg)
	assert.Equal(t, "🏓 Pong!", gw.Last("general").Title())

	assert.False(t, r.PrefixEnabled("other"))
}

func TestConversationRepliesTakePriority(t *testing.T) {
	r, gw, manager := newRouter(t)
	ctx := context.Background()

	r.Route(ctx, Message{GuildId: guildId, ChannelId: "general", Author: models.Member{UserId: "admin"}, Content: "112233112233"})
	r.Route(ctx, Message{GuildId: guildId, ChannelId: "general", Author: models.Member{UserId: "admin"}, Content: "!setupnew"})
	require.True(t, manager.Active("admin"))

	dm := gatewaytest.DMChannel("admin")
	r.Route(ctx, Message{ChannelId: dm, Author: models.Member{UserId: "admin"}, Content: "!ping"})
	assert.Equal(t, "Step 2/7", gw.Last(dm).Title())

	before := len(gw.In("general"))
	r.Route(ctx, Message{ChannelId: dm, Author: models.Member{UserId: "someone"}, Content: "hello"})
	assert.Len(t, gw.In("general"), before)
}
