package command

import (
	"github.com/bwmarrin/discordgo"

	"shizu/internal/music/resolver"
	"shizu/internal/storage"
	"shizu/internal/vote"
)

// Command is the contract every bot command implements. Run receives one of
// the context types below depending on how the command was invoked.
type Command interface {
	Name() string
	Description() string
	Group() string
	Category() string
	Run(ctx interface{}) error
}

// SlashProvider is implemented by commands that register a slash definition.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// Deps carries every collaborator a command may need. It is built once at
// startup and injected into each context — commands never reach into ambient
// state for a database handle or resolver.
type Deps struct {
	Storage  *storage.Storage
	Resolver resolver.Resolver
	Confirm  *vote.Flow
}

// SlashInteractionContext is passed to Run for slash command invocations.
type SlashInteractionContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Deps    *Deps
}
