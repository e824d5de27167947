package discord

import "github.com/bwmarrin/discordgo"

// Commands returns all slash commands for the music player module.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Play a YouTube video or playlist",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "url",
					Description: "YouTube video or playlist URL",
					Required:    true,
				},
			},
		},
		{
			Name:        "skip",
			Description: "Skip the current track",
		},
		{
			Name:        "pause",
			Description: "Pause playback",
		},
		{
			Name:        "resume",
			Description: "Resume playback",
		},
		{
			Name:        "loop",
			Description: "Toggle looping of the current track",
		},
		{
			Name:        "nowplaying",
			Description: "Show the current track",
		},
		{
			Name:        "queue",
			Description: "Show the queue",
		},
		{
			Name:        "leave",
			Description: "Leave the voice channel and clear the queue",
		},
	}
}
