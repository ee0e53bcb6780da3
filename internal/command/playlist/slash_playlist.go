package playlist

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/bwmarrin/discordgo"

	"shizu/internal/bot"
	"shizu/internal/command"
	"shizu/internal/music/resolver"
	"shizu/internal/music/session"
	"shizu/internal/storage"
	"shizu/internal/vote"
)

type PlaylistCommand struct {
	Bot bot.Voice
}

func (c *PlaylistCommand) Name() string        { return "playlist" }
func (c *PlaylistCommand) Description() string { return "Manage and play named playlists" }
func (c *PlaylistCommand) Group() string       { return "music" }
func (c *PlaylistCommand) Category() string    { return "🎵 Music" }

func (c *PlaylistCommand) SlashDefinition() *discordgo.ApplicationCommand {
	nameOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "name",
		Description: "Playlist name",
		Required:    true,
	}

	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "new",
				Description: "Create an empty playlist",
				Options:     []*discordgo.ApplicationCommandOption{nameOption},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Propose adding a track to a playlist",
				Options: []*discordgo.ApplicationCommandOption{
					nameOption,
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
				Name:        "list",
				Description: "List this server's playlists",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "play",
				Description: "Shuffle a playlist into the queue",
				Options:     []*discordgo.ApplicationCommandOption{nameOption},
			},
		},
	}
}

func (c *PlaylistCommand) Run(ctx interface{}) error {
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

	var name, input string
	for _, opt := range sub.Options {
		switch opt.Name {
		case "name":
			name = opt.StringValue()
		case "input":
			input = opt.StringValue()
		}
	}

	switch sub.Name {
	case "new":
		return c.runNew(sctx, name)
	case "add":
		return c.runAdd(sctx, name, input)
	case "list":
		return c.runList(sctx)
	case "play":
		return c.runPlay(sctx, name)
	default:
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Unknown subcommand: %s", sub.Name),
		})
	}
}

func (c *PlaylistCommand) runNew(sctx *command.SlashInteractionContext, name string) error {
	s := sctx.Session
	e := sctx.Event

	if name == "" {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: "I need a name to create a playlist.",
		})
	}

	_, err := sctx.Deps.Storage.CreatePlaylist(e.GuildID, name)
	if errors.Is(err, storage.ErrPlaylistExists) {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("A playlist named `%s` already exists.", name),
		})
	}
	if err != nil {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: "Something went wrong saving the playlist.",
		})
	}

	return bot.RespondEmbed(s, e, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("Playlist `%s` created. Add tracks with `/playlist add`.", name),
		Color:       bot.EmbedColor,
	})
}

func (c *PlaylistCommand) runAdd(sctx *command.SlashInteractionContext, name, input string) error {
	s := sctx.Session
	e := sctx.Event

	pl, err := sctx.Deps.Storage.FindPlaylist(e.GuildID, name)
	if errors.Is(err, storage.ErrPlaylistNotFound) {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("This server has no playlist named `%s`.", name),
		})
	}
	if err != nil {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: "Something went wrong loading the playlist.",
		})
	}

	if err := bot.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("failed to send deferred response: %w", err)
	}

	track, err := resolver.Resolve(context.Background(), sctx.Deps.Resolver, input)
	if err != nil {
		return bot.FollowupEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🎵 Error",
			Description: fmt.Sprintf("Failed to resolve track: %v", err),
		})
	}

	outcome, err := sctx.Deps.Confirm.Confirm(context.Background(), e.ChannelID, e.Member.User.ID, track.Meta)
	if err != nil {
		return bot.FollowupEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Confirmation failed: %v", err),
		})
	}

	if outcome != vote.Accepted {
		return bot.FollowupEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Proposal %s — nothing was added.", outcome),
		})
	}

	ref := storage.TrackRef{Query: track.Meta.SourceURL, Title: track.Meta.Title}
	if err := sctx.Deps.Storage.AppendPlaylistTrack(e.GuildID, pl.ID, ref); err != nil {
		return bot.FollowupEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: "Something went wrong saving the track.",
		})
	}

	title := track.Meta.Title
	if title == "" {
		title = track.Meta.SourceURL
	}
	return bot.FollowupEmbed(s, e, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("Added **%s** to `%s`.", title, name),
		Color:       bot.EmbedColor,
	})
}

func (c *PlaylistCommand) runList(sctx *command.SlashInteractionContext) error {
	s := sctx.Session
	e := sctx.Event

	playlists, err := sctx.Deps.Storage.ListPlaylists(e.GuildID)
	if err != nil {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: "Something went wrong loading playlists.",
		})
	}
	if len(playlists) == 0 {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: "This server has no playlists yet. Create one with `/playlist new`.",
		})
	}

	var desc string
	for _, pl := range playlists {
		desc += fmt.Sprintf("`%s` — %d track(s)\n", pl.Name, len(pl.Tracks))
	}

	return bot.RespondEmbed(s, e, &discordgo.MessageEmbed{
		Title:       "🎶 Playlists",
		Description: desc,
		Color:       bot.EmbedColor,
	})
}

func (c *PlaylistCommand) runPlay(sctx *command.SlashInteractionContext, name string) error {
	s := sctx.Session
	e := sctx.Event

	pl, err := sctx.Deps.Storage.FindPlaylist(e.GuildID, name)
	if errors.Is(err, storage.ErrPlaylistNotFound) {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("This server has no playlist named `%s`.", name),
		})
	}
	if err != nil {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: "Something went wrong loading the playlist.",
		})
	}
	if len(pl.Tracks) == 0 {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Playlist `%s` is empty.", name),
		})
	}

	voiceState, err := c.Bot.FindUserVoiceState(e.GuildID, e.Member.User.ID)
	if err != nil {
		return bot.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: "You need to be in a voice channel.",
		})
	}

	if err := bot.RespondDeferred(s, e); err != nil {
		return fmt.Errorf("failed to send deferred response: %w", err)
	}

	if _, err := c.Bot.Sessions().GetOrCreate(e.GuildID, voiceState.ChannelID); err != nil {
		return bot.FollowupEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("%v", err),
		})
	}

	refs := pl.Tracks
	rand.Shuffle(len(refs), func(i, j int) {
		refs[i], refs[j] = refs[j], refs[i]
	})

	// Best-effort import: a track that fails to resolve is reported and
	// skipped, the rest still get queued.
	mention := e.Member.User.Mention()
	queued, failed := 0, 0
	for _, ref := range refs {
		track, err := resolver.Resolve(context.Background(), sctx.Deps.Resolver, ref.Query)
		if err != nil {
			failed++
			continue
		}
		if _, err := c.Bot.Sessions().Play(e.GuildID, session.Track{
			Meta:        track.Meta,
			Source:      track.Source,
			RequestedBy: mention,
		}, e.ChannelID); err != nil {
			failed++
			continue
		}
		queued++
	}

	desc := fmt.Sprintf("🎶 Queued %d track(s) from `%s`.", queued, name)
	if failed > 0 {
		desc += fmt.Sprintf(" %d track(s) could not be resolved.", failed)
	}
	return bot.FollowupEmbed(s, e, &discordgo.MessageEmbed{
		Description: desc,
		Color:       bot.EmbedColor,
	})
}
