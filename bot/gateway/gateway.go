// Package gateway is the bot's outbound messaging surface. Everything the bot posts, edits or
// deletes goes through Gateway so flows and notifications can be exercised without Discord.
package gateway

import (
	"applybot/bot/errs"
	"applybot/bot/responses"
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

type Button struct {
	CustomId string
	Label    string
	Style    discordgo.ButtonStyle
}

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Message struct {
	Content string
	Notice  *responses.Notice
	Buttons []Button
	Files   []File
}

type Sent struct {
	ChannelId string
	MessageId string
}

type Gateway interface {
	SendNotice(channelId string, notice responses.Notice) error
	Send(channelId string, msg Message) (Sent, error)
	// DM opens the user's direct channel if needed and sends msg there.
	DM(userId string, msg Message) (Sent, error)
	OpenDM(userId string) (string, error)
	EditEmbed(channelId, messageId string, embed *discordgo.MessageEmbed) error
	Delete(channelId, messageId string) error
	// ResolveChannel returns errs.ErrNotFound unless channelId is a channel of guildId.
	ResolveChannel(guildId, channelId string) (*discordgo.Channel, error)
	ResolveUser(userId string) (*discordgo.User, error)
	Latency() time.Duration
}

type Discord struct {
	s *discordgo.Session
}

func NewDiscord(s *discordgo.Session) *Discord {
	return &Discord{s: s}
}

func (d *Discord) SendNotice(channelId string, notice responses.Notice) error {
	_, err := d.Send(channelId, Message{Notice: &notice})
	return err
}

func (d *Discord) Send(channelId string, msg Message) (Sent, error) {
	m, err := d.s.ChannelMessageSendComplex(channelId, complexMessage(msg))
	if err != nil {
		return Sent{}, fmt.Errorf("sending message to %s: %w", channelId, err)
	}
	return Sent{ChannelId: m.ChannelID, MessageId: m.ID}, nil
}

func (d *Discord) DM(userId string, msg Message) (Sent, error) {
	channelId, err := d.OpenDM(userId)
	if err != nil {
		return Sent{}, err
	}

	sent, err := d.Send(channelId, msg)
	if err != nil {
		return Sent{}, errs.Delivery(userId, err)
	}
	return sent, nil
}

func (d *Discord) OpenDM(userId string) (string, error) {
	ch, err := d.s.UserChannelCreate(userId)
	if err != nil {
		return "", errs.Delivery(userId, err)
	}
	return ch.ID, nil
}

func (d *Discord) EditEmbed(channelId, messageId string, embed *discordgo.MessageEmbed) error {
	_, err := d.s.ChannelMessageEditEmbed(channelId, messageId, embed)
	return err
}

func (d *Discord) Delete(channelId, messageId string) error {
	return d.s.ChannelMessageDelete(channelId, messageId)
}

func (d *Discord) ResolveChannel(guildId, channelId string) (*discordgo.Channel, error) {
	ch, err := d.s.State.Channel(channelId)
	if err != nil {
		ch, err = d.s.Channel(channelId)
	}

	var restErr *discordgo.RESTError
	switch {
	case errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode < 500:
		return nil, errs.ErrNotFound
	case err != nil:
		return nil, err
	case ch.GuildID != guildId:
		return nil, errs.ErrNotFound
	}

	return ch, nil
}

func (d *Discord) ResolveUser(userId string) (*discordgo.User, error) {
	return d.s.User(userId)
}

func (d *Discord) Latency() time.Duration {
	return d.s.HeartbeatLatency()
}

func complexMessage(msg Message) *discordgo.MessageSend {
	send := &discordgo.MessageSend{
		Content:    msg.Content,
		Components: Components(msg.Buttons),
	}

	if msg.Notice != nil {
		send.Embeds = []*discordgo.MessageEmbed{msg.Notice.Embed()}
	}

	for _, f := range msg.Files {
		send.Files = append(send.Files, &discordgo.File{
			Name:        f.Name,
			ContentType: f.ContentType,
			Reader:      bytes.NewReader(f.Data),
		})
	}

	return send
}

// Components lays buttons out on a single action row.
func Components(buttons []Button) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return nil
	}

	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		row.Components = append(row.Components, discordgo.Button{
			CustomID: b.CustomId,
			Label:    b.Label,
			Style:    b.Style,
		})
	}

	return []discordgo.MessageComponent{row}
}
