package music

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"shizu/internal/bot"
	"shizu/internal/command"
	"shizu/internal/music/resolver"
	"shizu/internal/music/session"
)

type MusicCommand struct {
	Bot bot.Voice
}

func (c *MusicCommand) Name() string        { return "music" }
func (c *MusicCommand) Description() string { return "Play and control music in your voice channel" }
func (c *MusicCommand) Group() string       { return "music" }
func (c *MusicCommand) Category() string    { return "🎵 Music" }

func (c *MusicCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "play",
				Description: "Play a track by link or search phrase",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "input",
						Description: "Link or search query",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "skip",
				Description: "Skip the current track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "queue",
				Description: "Show the current queue",
			},
		},
	}
}

func (c *MusicCommand) Run(ctx interface{}) error {
	sctx, ok := ctx.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}

	s := sctx.Session
	e := sctx.Event

	if len(e.ApplicationCommandData().Options) == 0 {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: "Missing subcommand.",
		})
	}

	sub := e.ApplicationCommandData().Options[0]

	switch sub.Name {
	case "play":
		var input string
		for _, opt := range sub.Options {
			if opt.Name == "input" {
				input = opt.StringValue()
			}
		}
		return c.runPlay(sctx, input)

	case "skip":
		return c.runSkip(sctx)

	case "queue":
		return c.runQueue(sctx)

	default:
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Unknown subcommand: %s", sub.Name),
		})
	}
}

func (c *MusicCommand) runPlay(sctx *command.SlashInteractionContext, input string) error {
	s := sctx.Session
	e := sctx.Event

	if input == "" {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🎵 Error",
			Description: "I need a search phrase or a link.",
		})
	}

	if err := bot.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("failed to send deferred response: %w", err)
	}

	guildID := e.GuildID
	member := e.Member

	voiceState, err := c.Bot.FindUserVoiceState(guildID, member.User.ID)
	if err != nil {
		return bot.FollowupEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🎵 Voice Error",
			Description: "You need to be in a voice channel.",
		})
	}

	// Resolution happens before any session lock is taken, so a slow lookup
	// never stalls other commands on this guild.
	track, err := resolver.Resolve(context.Background(), sctx.Deps.Resolver, input)
	if err != nil {
		return bot.FollowupEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🎵 Error",
			Description: fmt.Sprintf("Failed to resolve track: %v", err),
		})
	}

	if _, err := c.Bot.Sessions().GetOrCreate(guildID, voiceState.ChannelID); err != nil {
		return bot.FollowupEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🎵 Voice Error",
			Description: fmt.Sprintf("%v", err),
		})
	}

	mention := member.User.Mention()
	pos, err := c.Bot.Sessions().Play(guildID, session.Track{
		Meta:        track.Meta,
		Source:      track.Source,
		RequestedBy: mention,
	}, e.ChannelID)
	if err != nil {
		return bot.FollowupEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🎵 Queue Error",
			Description: fmt.Sprintf("%v", err),
		})
	}

	if pos == 1 {
		return bot.FollowupEmbed(s, e, bot.NowPlayingEmbed(track.Meta, mention))
	}
	return bot.FollowupEmbed(s, e, bot.QueuedEmbed(track.Meta, pos))
}

func (c *MusicCommand) runSkip(sctx *command.SlashInteractionContext) error {
	s := sctx.Session
	e := sctx.Event

	outcome, err := c.Bot.Sessions().Skip(e.GuildID)
	if err != nil {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🎵 Playback Error",
			Description: fmt.Sprintf("%v", err),
		})
	}

	switch outcome {
	case session.SkipNoSession:
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: "I'm not in a voice channel right now.",
		})
	case session.SkipTornDown:
		return bot.RespondEmbed(s, e, &discordgo.MessageEmbed{
			Description: "⏹ Nothing left to play. Leaving the voice channel.",
		})
	default:
		return bot.RespondEmbed(s, e, &discordgo.MessageEmbed{
			Description: "⏭ Skipped.",
		})
	}
}

func (c *MusicCommand) runQueue(sctx *command.SlashInteractionContext) error {
	s := sctx.Session
	e := sctx.Event

	sess, ok := c.Bot.Sessions().Get(e.GuildID)
	if !ok || sess.QueueLen() == 0 {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: "The queue is empty.",
		})
	}

	return bot.RespondEmbed(s, e, &discordgo.MessageEmbed{
		Title:       "🎶 Queue",
		Description: bot.QueueContent(sess.QueuedTracks()),
		Color:       bot.EmbedColor,
	})
}
