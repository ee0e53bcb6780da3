package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"shizu/internal/music/resolver"
	"shizu/internal/music/session"
)

// NowPlayingEmbed renders the currently sounding track.
func NowPlayingEmbed(meta resolver.Metadata, mention string) *discordgo.MessageEmbed {
	title := meta.Title
	if title == "" {
		title = meta.SourceURL
	}
	return &discordgo.MessageEmbed{
		Title:       "▶️ " + title,
		Description: fmt.Sprintf("Requested by %s", mention),
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: meta.Thumbnail},
		Color:       EmbedColor,
	}
}

// QueuedEmbed renders a track that was added behind the current one.
func QueuedEmbed(meta resolver.Metadata, position int) *discordgo.MessageEmbed {
	title := meta.Title
	if title == "" {
		title = meta.SourceURL
	}
	return &discordgo.MessageEmbed{
		Description: fmt.Sprintf("🎶 **%s** — queued at position %d", title, position),
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: meta.Thumbnail},
		Color:       EmbedColor,
	}
}

// QueueContent renders the live queue as a numbered code block.
func QueueContent(tracks []session.Track) string {
	var b strings.Builder
	b.WriteString("```go\n")
	b.WriteString("# | Title\n")
	for i, t := range tracks {
		title := t.Meta.Title
		if title == "" {
			title = t.Meta.SourceURL
		}
		fmt.Fprintf(&b, "%d | %s\n", i, title)
	}
	b.WriteString("```")
	return b.String()
}

// ProposalEmbed renders a playlist-add confirmation prompt.
func ProposalEmbed(meta resolver.Metadata) *discordgo.MessageEmbed {
	title := meta.Title
	if title == "" {
		title = meta.SourceURL
	}
	return &discordgo.MessageEmbed{
		Title:       "Add to playlist?",
		Description: fmt.Sprintf("**%s**\n%s", title, meta.SourceURL),
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: meta.Thumbnail},
		Color:       EmbedColor,
	}
}
