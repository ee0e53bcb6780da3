// /internal/storage/storage_playlist.go
package storage

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

var (
	ErrPlaylistExists   = errors.New("a playlist with that name already exists")
	ErrPlaylistNotFound = errors.New("no playlist with that name in this guild")
)

// TrackRef is a lazily-resolved track reference stored inside a playlist. The
// query is resolved to a playable source only at playback time, never at save
// time.
type TrackRef struct {
	Query string `json:"query_or_url"`
	Title string `json:"title,omitempty"`
}

// Playlist is a named, guild-scoped track list. The (Name, GuildID) pair is
// unique among stored playlists.
type Playlist struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	GuildID string     `json:"guild_id"`
	Tracks  []TrackRef `json:"tracks"`
}

// CreatePlaylist creates an empty playlist, failing with ErrPlaylistExists if
// the guild already has one by that name.
func (s *Storage) CreatePlaylist(guildID, name string) (*Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getGuildRecord(guildID)
	if err != nil {
		return nil, err
	}

	for _, pl := range record.Playlists {
		if pl.Name == name {
			return nil, ErrPlaylistExists
		}
	}

	pl := Playlist{
		ID:      uuid.NewString(),
		Name:    name,
		GuildID: guildID,
		Tracks:  []TrackRef{},
	}
	record.Playlists = append(record.Playlists, pl)
	s.ds.Add(guildID, record)
	return &pl, nil
}

// FindPlaylist looks a playlist up by name within a guild.
func (s *Storage) FindPlaylist(guildID, name string) (*Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getGuildRecord(guildID)
	if err != nil {
		return nil, err
	}

	for _, pl := range record.Playlists {
		if pl.Name == name {
			pl.Tracks = slices.Clone(pl.Tracks)
			return &pl, nil
		}
	}
	return nil, ErrPlaylistNotFound
}

// ListPlaylists returns all of a guild's playlists.
func (s *Storage) ListPlaylists(guildID string) ([]Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(record.Playlists), nil
}

// AppendPlaylistTrack appends a track reference to the stored track list of
// the playlist with the given ID. The append is serialized with all other
// storage mutations, so concurrent confirmations cannot lose each other's
// tracks.
func (s *Storage) AppendPlaylistTrack(guildID, playlistID string, ref TrackRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getGuildRecord(guildID)
	if err != nil {
		return err
	}

	for i := range record.Playlists {
		if record.Playlists[i].ID == playlistID {
			record.Playlists[i].Tracks = append(record.Playlists[i].Tracks, ref)
			s.ds.Add(guildID, record)
			return nil
		}
	}
	return fmt.Errorf("playlist %s: %w", playlistID, ErrPlaylistNotFound)
}
