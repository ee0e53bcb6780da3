package discord

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"shizu/internal/bot"
	"shizu/internal/music/resolver"
	"shizu/internal/vote"
)

// notifier announces queue advancement in the text channel a track was
// requested from.
type notifier struct {
	dg *discordgo.Session
}

func (n *notifier) NowPlaying(channelID string, meta resolver.Metadata, mention string) error {
	return bot.MessageEmbed(n.dg, channelID, bot.NowPlayingEmbed(meta, mention))
}

// messenger posts and removes playlist-add proposal messages. The vote
// reactions are pre-seeded so voters only have to click.
type messenger struct {
	dg *discordgo.Session
}

func (m *messenger) SendProposal(channelID string, meta resolver.Metadata) (string, error) {
	msg, err := m.dg.ChannelMessageSendEmbed(channelID, bot.ProposalEmbed(meta))
	if err != nil {
		return "", fmt.Errorf("failed to send proposal message: %w", err)
	}

	for _, emoji := range []string{vote.AcceptEmoji, vote.RejectEmoji} {
		if err := m.dg.MessageReactionAdd(channelID, msg.ID, emoji); err != nil {
			log.Printf("[WARN] Failed to seed %s reaction: %v", emoji, err)
		}
	}

	return msg.ID, nil
}

func (m *messenger) DeleteProposal(channelID, messageID string) error {
	return m.dg.ChannelMessageDelete(channelID, messageID)
}
