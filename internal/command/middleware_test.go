package command

import (
	"path/filepath"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shizu/internal/storage"
)

type stubCommand struct {
	name string
	ran  int
}

func (c *stubCommand) Name() string        { return c.name }
func (c *stubCommand) Description() string { return "stub" }
func (c *stubCommand) Group() string       { return "test" }
func (c *stubCommand) Category() string    { return "test" }
func (c *stubCommand) Run(ctx interface{}) error {
	c.ran++
	return nil
}

func slashContext(deps *Deps) *SlashInteractionContext {
	return &SlashInteractionContext{
		Deps: deps,
		Event: &discordgo.InteractionCreate{
			Interaction: &discordgo.Interaction{
				Type:      discordgo.InteractionApplicationCommand,
				GuildID:   "guild-1",
				ChannelID: "chan-1",
				Member: &discordgo.Member{
					User: &discordgo.User{ID: "user-1", Username: "alice"},
				},
				Data: discordgo.ApplicationCommandInteractionData{
					Name: "music",
					Options: []*discordgo.ApplicationCommandInteractionDataOption{
						{
							Name: "play",
							Type: discordgo.ApplicationCommandOptionSubCommand,
							Options: []*discordgo.ApplicationCommandInteractionDataOption{
								{
									Name:  "input",
									Type:  discordgo.ApplicationCommandOptionString,
									Value: "some song",
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestWithCommandLoggerRecordsInvocation(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "datastore.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cmd := &stubCommand{name: "music"}
	wrapped := ApplyMiddlewares(cmd, WithCommandLogger())

	require.NoError(t, wrapped.Run(slashContext(&Deps{Storage: store})))
	assert.Equal(t, 1, cmd.ran)

	history, err := store.FetchCommandHistory("guild-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "music", history[0].Command)
	assert.Equal(t, "play input:some song", history[0].Param)
	assert.Equal(t, "alice", history[0].Username)
	assert.Equal(t, "chan-1", history[0].ChannelID)
}
