package gateway

import (
	"applybot/bot/responses"
	"io"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplexMessage(t *testing.T) {
	notice := responses.Done("Submitted", "Thanks")

	send := complexMessage(Message{
		Content: "<@1>",
		Notice:  &notice,
		Buttons: []Button{
			{CustomId: "vote-accept-x", Label: "✅ Accept", Style: discordgo.SuccessButton},
			{CustomId: "vote-deny-x", Label: "❌ Deny", Style: discordgo.DangerButton},
		},
		Files: []File{{Name: "scoreboard.png", ContentType: "image/png", Data: []byte("png")}},
	})

	assert.Equal(t, "<@1>", send.Content)
	require.Len(t, send.Embeds, 1)
	assert.Equal(t, "✅ Submitted", send.Embeds[0].Title)

	require.Len(t, send.Components, 1)
	row, ok := send.Components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 2)
	assert.Equal(t, "vote-deny-x", row.Components[1].(discordgo.Button).CustomID)

	require.Len(t, send.Files, 1)
	data, err := io.ReadAll(send.Files[0].Reader)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestComponentsEmpty(t *testing.T) {
	assert.Nil(t, Components(nil))
	assert.Empty(t, complexMessage(Message{Content: "hi"}).Embeds)
}
