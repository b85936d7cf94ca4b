package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var snowflakePattern = regexp.MustCompile(`\d{17,19}`)

func MessageURL(guildId, channelId, messageId string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildId, channelId, messageId)
}

// Snowflakes extracts every Discord id from free text such as "<@&123…>, 456…".
func Snowflakes(text string) []string {
	return snowflakePattern.FindAllString(text, -1)
}

func UserMention(id string) string    { return fmt.Sprintf("<@%s>", id) }
func RoleMention(id string) string    { return fmt.Sprintf("<@&%s>", id) }
func ChannelMention(id string) string { return fmt.Sprintf("<#%s>", id) }

// Mentions joins ids with the given formatter, or returns "None".
func Mentions(ids []string, format func(string) string) string {
	if len(ids) == 0 {
		return "None"
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = format(id)
	}
	return strings.Join(out, ", ")
}

// Timestamp renders a Discord timestamp tag; style is one of the Discord markers such as "F" or "R".
func Timestamp(t time.Time, style string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), style)
}

// TimeLeft renders the coarse remaining time shown on application posts.
func TimeLeft(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	hours := int((d % (24 * time.Hour)) / time.Hour)

	switch {
	case days > 0:
		return plural(days, "day")
	case hours > 0:
		return plural(hours, "hour")
	default:
		return "Less than 1 hour"
	}
}

func plural(n int, unit string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss", n, unit)
	}
	return fmt.Sprintf("%d %s", n, unit)
}

// Truncate cuts s to at most n runes, the embed field value limit being the usual caller.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
