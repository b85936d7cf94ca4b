// Package gatewaytest provides an in-memory gateway.Gateway for tests.
package gatewaytest

import (
	"applybot/bot/errs"
	"applybot/bot/gateway"
	"applybot/bot/responses"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

type Posted struct {
	gateway.Sent
	gateway.Message
}

func (p Posted) Title() string {
	if p.Notice == nil {
		return ""
	}
	return p.Notice.Title
}

type Fake struct {
	mu     sync.Mutex
	nextId int

	Posted  []Posted
	Edits   map[string]*discordgo.MessageEmbed
	Deleted []string

	// Channels maps channel ids to their guild.
	Channels map[string]string
	Users    map[string]string
	// Blocked users cannot receive DMs.
	Blocked map[string]bool
	// Broken channels reject every send.
	Broken map[string]bool
}

func New() *Fake {
	return &Fake{
		Edits:    make(map[string]*discordgo.MessageEmbed),
		Channels: make(map[string]string),
		Users:    make(map[string]string),
		Blocked:  make(map[string]bool),
		Broken:   make(map[string]bool),
	}
}

func DMChannel(userId string) string { return "dm-" + userId }

func (f *Fake) SendNotice(channelId string, notice responses.Notice) error {
	_, err := f.Send(channelId, gateway.Message{Notice: &notice})
	return err
}

func (f *Fake) Send(channelId string, msg gateway.Message) (gateway.Sent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Broken[channelId] {
		return gateway.Sent{}, fmt.Errorf("sending message to %s: Missing Access", channelId)
	}

	f.nextId++
	sent := gateway.Sent{ChannelId: channelId, MessageId: fmt.Sprintf("m%d", f.nextId)}
	f.Posted = append(f.Posted, Posted{Sent: sent, Message: msg})
	return sent, nil
}

func (f *Fake) DM(userId string, msg gateway.Message) (gateway.Sent, error) {
	channelId, err := f.OpenDM(userId)
	if err != nil {
		return gateway.Sent{}, err
	}
	return f.Send(channelId, msg)
}

func (f *Fake) OpenDM(userId string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Blocked[userId] {
		return "", errs.Delivery(userId, errors.New("Cannot send messages to this user"))
	}
	return DMChannel(userId), nil
}

func (f *Fake) EditEmbed(_, messageId string, embed *discordgo.MessageEmbed) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Edits[messageId] = embed
	return nil
}

func (f *Fake) Delete(_, messageId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Deleted = append(f.Deleted, messageId)
	return nil
}

func (f *Fake) ResolveChannel(guildId, channelId string) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Channels[channelId] != guildId {
		return nil, errs.ErrNotFound
	}
	return &discordgo.Channel{ID: channelId, GuildID: guildId}, nil
}

func (f *Fake) ResolveUser(userId string) (*discordgo.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name, ok := f.Users[userId]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &discordgo.User{ID: userId, Username: name, Discriminator: "0001"}, nil
}

func (f *Fake) Latency() time.Duration { return 42 * time.Millisecond }

// In returns what was posted to channelId, oldest first.
func (f *Fake) In(channelId string) []Posted {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Posted
	for _, p := range f.Posted {
		if p.ChannelId == channelId {
			out = append(out, p)
		}
	}
	return out
}

func (f *Fake) Titles(channelId string) []string {
	var titles []string
	for _, p := range f.In(channelId) {
		titles = append(titles, p.Title())
	}
	return titles
}

// Last returns the newest post in channelId, or a zero Posted.
func (f *Fake) Last(channelId string) Posted {
	posts := f.In(channelId)
	if len(posts) == 0 {
		return Posted{}
	}
	return posts[len(posts)-1]
}
