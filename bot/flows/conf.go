package flows

import (
	"applybot/bot/conversation"
	"applybot/bot/models"
	"applybot/bot/responses"
	"applybot/utils"
	"context"
	"regexp"
)

var (
	adminRolesLine = regexp.MustCompile(`(?i)adminroles?:\s*([^|\n]+)`)
	adminUsersLine = regexp.MustCompile(`(?i)adminusers?:\s*([^|\n]+)`)
	voterRolesLine = regexp.MustCompile(`(?i)voterroles?:\s*([^|\n]+)`)
	channelLine    = regexp.MustCompile(`(?i)channels?:\s*<#(\d+)>`)
)

const confFormat = "Send config in this format:\n\n```\nadminroles: @Role1, @Role2\nadminusers: @User1, @User2\nvoterroles: @VoterRole\nchannel: #modchannel\n```\n\n**Note:** Admin users get full perms"

// ParseConfBlock reads the multi-line configuration message of the prefix conf command.
func ParseConfBlock(text string) models.ConfigPatch {
	var patch models.ConfigPatch

	if m := adminRolesLine.FindStringSubmatch(text); m != nil {
		patch.AdminRoles = utils.Snowflakes(m[1])
	}
	if m := adminUsersLine.FindStringSubmatch(text); m != nil {
		patch.AdminUsers = utils.Snowflakes(m[1])
	}
	if m := voterRolesLine.FindStringSubmatch(text); m != nil {
		patch.VoterRoles = utils.Snowflakes(m[1])
	}
	if m := channelLine.FindStringSubmatch(text); m != nil {
		patch.ModChannelId = m[1]
	}

	return patch
}

var confTimeout = responses.Notice{Title: "⏱️ Timeout", Body: "Cancelled", Tone: responses.Failure}

// StartConf prompts for a configuration block in the channel the command was typed in.
func (f *Flows) StartConf(guildId, userId, channelId string) error {
	first := step("⚙️ Config", confFormat, conversation.MenuTimeout,
		func(ctx context.Context, r conversation.Reply) (*conversation.Step, error) {
			cfg, err := f.engine.Configure(ctx, guildId, ParseConfBlock(r.Content))
			if err != nil {
				return nil, err
			}
			f.notify(channelId, ConfigSummary("Saved", "Config updated", cfg))
			return nil, nil
		})

	return f.manager.Start(&conversation.Flow{
		Name:          "conf",
		UserId:        userId,
		ChannelId:     channelId,
		First:         first,
		TimeoutNotice: &confTimeout,
	})
}
