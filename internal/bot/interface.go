package bot

import "shizu/internal/music/session"

// VoiceState is a user's current voice channel membership.
type VoiceState struct {
	ChannelID string
	UserID    string
}

// Voice is what voice-aware commands need from the running bot.
type Voice interface {
	Sessions() *session.Registry
	FindUserVoiceState(guildID, userID string) (*VoiceState, error)
}
