package command

import (
	"sort"
	"sync"
)

var (
	mu       sync.RWMutex
	commands = make(map[string]Command)
)

// RegisterCommand adds a command to the global registry, wrapped in the given
// middlewares. Later registrations with the same name replace earlier ones.
func RegisterCommand(c Command, mws ...Middleware) {
	c = ApplyMiddlewares(c, mws...)
	mu.Lock()
	commands[c.Name()] = c
	mu.Unlock()
}

// GetCommand returns the command with the given name.
func GetCommand(name string) (Command, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := commands[name]
	return c, ok
}

// AllCommands returns all registered commands, sorted by name.
func AllCommands() []Command {
	mu.RLock()
	defer mu.RUnlock()

	list := make([]Command, 0, len(commands))
	for _, c := range commands {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}
