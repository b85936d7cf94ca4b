package responses

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	footerText   = "Application System"
	colorFailure = 0xff0000
	colorWarning = 0xffaa00
)

// Color of informational embeds. Overridden from settings at startup.
var Color = 0x65a2c4

type Tone int

const (
	Info Tone = iota
	Warning
	Failure
)

type Notice struct {
	Title    string
	Body     string
	Tone     Tone
	Fields   []*discordgo.MessageEmbedField
	ImageURL string
	Footer   string
}

func (n Notice) Embed() *discordgo.MessageEmbed {
	color := Color
	switch n.Tone {
	case Warning:
		color = colorWarning
	case Failure:
		color = colorFailure
	}

	footer := n.Footer
	if footer == "" {
		footer = footerText
	}

	embed := &discordgo.MessageEmbed{
		Title:       n.Title,
		Description: n.Body,
		Color:       color,
		Fields:      n.Fields,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
	}
	if n.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: n.ImageURL}
	}
	return embed
}

func Field(name, value string) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{Name: name, Value: value}
}

func InlineField(name, value string) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: true}
}

// ParseColor reads "#rrggbb".
func ParseColor(hex string) (int, error) {
	value, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid embed color %q: %w", hex, err)
	}
	return int(value), nil
}

var GenericErrorResponse = &discordgo.InteractionResponse{
	Type: discordgo.InteractionResponseChannelMessageWithSource,
	Data: &discordgo.InteractionResponseData{
		Content: "An unknown error occurred, please try again.",
		Flags:   discordgo.MessageFlagsEphemeral,
	},
}

func Failed(title, body string) Notice {
	return Notice{Title: "❌ " + title, Body: body, Tone: Failure}
}

func Warn(title, body string) Notice {
	return Notice{Title: "⚠️ " + title, Body: body, Tone: Warning}
}

func Done(title, body string) Notice {
	return Notice{Title: "✅ " + title, Body: body}
}

var (
	NotConfigured    = Warn("Setup Required", "Use `/conf` first")
	NoPermission     = Failed("No Permission", "Admins only")
	CannotDM         = Failed("Error", "Can't send you DMs. Enable DMs from server members first.")
	FlowInProgress   = Warn("Busy", "Finish or wait out your current conversation first.")
	SomethingWrong   = Failed("Error", "Something went wrong")
	MissingConfParam = Warn("Missing Params", "Provide at least one param")
)

func NotFound(name string) Notice {
	return Failed("Not Found", fmt.Sprintf("%q not found", name))
}

func AlreadyClosed(name string) Notice {
	return Warn("Already Closed", fmt.Sprintf("**%s** already closed", name))
}
