package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnowflakes(t *testing.T) {
	ids := Snowflakes("<@&123456789012345678>, 234567890123456789 and 42")
	assert.Equal(t, []string{"123456789012345678", "234567890123456789"}, ids)
	assert.Empty(t, Snowflakes("nobody"))
}

func TestMentions(t *testing.T) {
	assert.Equal(t, "None", Mentions(nil, RoleMention))
	assert.Equal(t, "<@&1>, <@&2>", Mentions([]string{"1", "2"}, RoleMention))
	assert.Equal(t, "<#9>", ChannelMention("9"))
}

func TestTimeLeft(t *testing.T) {
	assert.Equal(t, "3 days", TimeLeft(3*24*time.Hour+5*time.Hour))
	assert.Equal(t, "1 day", TimeLeft(25*time.Hour))
	assert.Equal(t, "5 hours", TimeLeft(5*time.Hour+10*time.Minute))
	assert.Equal(t, "1 hour", TimeLeft(time.Hour))
	assert.Equal(t, "Less than 1 hour", TimeLeft(59*time.Minute))
}

func TestTimestamp(t *testing.T) {
	assert.Equal(t, "<t:60:R>", Timestamp(time.Unix(60, 0), "R"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "hi", Truncate("hi", 4))
}
