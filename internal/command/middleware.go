package command

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"shizu/internal/bot"
	"shizu/internal/storage"
)

type Middleware func(Command) Command

type wrappedCommand struct {
	Command
	wrap func(ctx interface{}) error
}

func (w *wrappedCommand) Run(ctx interface{}) error {
	if w.wrap != nil {
		return w.wrap(ctx)
	}
	return w.Command.Run(ctx)
}

func (w *wrappedCommand) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := w.Command.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

func ApplyMiddlewares(cmd Command, mws ...Middleware) Command {
	for _, mw := range mws {
		cmd = mw(cmd)
	}
	return cmd
}

// WithGuildOnly rejects invocations arriving outside a guild (DMs).
func WithGuildOnly() Middleware {
	return func(next Command) Command {
		return &wrappedCommand{Command: next, wrap: func(ctx interface{}) error {
			if sctx, ok := ctx.(*SlashInteractionContext); ok && sctx.Event.GuildID == "" {
				return bot.RespondEmbedEphemeral(sctx.Session, sctx.Event, &discordgo.MessageEmbed{
					Description: "This command only works inside a server.",
				})
			}
			return next.Run(ctx)
		}}
	}
}

// WithCommandLogger records each invocation into the guild's command history.
func WithCommandLogger() Middleware {
	return func(next Command) Command {
		return &wrappedCommand{Command: next, wrap: func(ctx interface{}) error {
			if sctx, ok := ctx.(*SlashInteractionContext); ok && sctx.Event.Member != nil {
				rec := storage.CommandHistoryRecord{
					ChannelID: sctx.Event.ChannelID,
					UserID:    sctx.Event.Member.User.ID,
					Username:  sctx.Event.Member.User.Username,
					Command:   next.Name(),
					Param:     commandParam(sctx.Event),
					Datetime:  time.Now(),
				}
				if err := sctx.Deps.Storage.AppendCommandToHistory(sctx.Event.GuildID, rec); err != nil {
					log.Printf("[WARN] Failed to record command history: %v", err)
				}
			}
			return next.Run(ctx)
		}}
	}
}

// commandParam flattens the invocation's subcommands and option values into
// one line for the history record.
func commandParam(e *discordgo.InteractionCreate) string {
	var b strings.Builder
	var walk func(opts []*discordgo.ApplicationCommandInteractionDataOption)
	walk = func(opts []*discordgo.ApplicationCommandInteractionDataOption) {
		for _, opt := range opts {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			switch opt.Type {
			case discordgo.ApplicationCommandOptionSubCommand, discordgo.ApplicationCommandOptionSubCommandGroup:
				b.WriteString(opt.Name)
				walk(opt.Options)
			default:
				fmt.Fprintf(&b, "%s:%v", opt.Name, opt.Value)
			}
		}
	}
	walk(e.ApplicationCommandData().Options)
	return b.String()
}
