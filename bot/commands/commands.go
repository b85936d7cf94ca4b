package commands

import "github.com/bwmarrin/discordgo"

var noDM = false
var confPermission int64 = discordgo.PermissionAdministrator
var Commands = []*discordgo.ApplicationCommand{
	&confCommand,
	&setupCommand,
	namedCommand("edit", "Edit an application"),
	namedCommand("remove", "Remove an application"),
	namedCommand("end", "Close an application and announce the results"),
	&statusCommand,
	&helpCommand,
	&pingCommand,
}

var confCommand = discordgo.ApplicationCommand{
	Name:                     "conf",
	Description:              "Configure admins, voters and the moderator channel",
	DMPermission:             &noDM,
	DefaultMemberPermissions: &confPermission,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "adminroles",
			Description: "Roles that can manage applications (mention them)",
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "adminusers",
			Description: "Users with full permissions (mention them)",
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "voterroles",
			Description: "Roles that can vote on submissions (mention them)",
		},
		{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "modchannel",
			Description:  "Channel where submissions are reviewed",
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
		},
	},
}

var setupCommand = discordgo.ApplicationCommand{
	Name:         "setupnew",
	Description:  "Create a new application",
	DMPermission: &noDM,
}

var statusCommand = discordgo.ApplicationCommand{
	Name:         "status",
	Description:  "Show all applications or the standings of one",
	DMPermission: &noDM,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "name",
			Description: "Application name",
			Required:    false,
		},
	},
}

var helpCommand = discordgo.ApplicationCommand{
	Name:         "help",
	Description:  "List commands",
	DMPermission: &noDM,
}

var pingCommand = discordgo.ApplicationCommand{
	Name:        "ping",
	Description: "Check bot latency",
}

func namedCommand(name, description string) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:         name,
		Description:  description,
		DMPermission: &noDM,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "name",
				Description: "Application name",
				Required:    true,
			},
		},
	}
}
