package domain

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type CommandResponder interface {
	// Respond processes a given message within a specified timeout and replies to the originating chat.
	Respond(ctx context.Context, timeout time.Duration, message *Message) error
	// GetCommand retrieves the command identifier, e.g. "/optimize".
	GetCommand() string
}

// CommandRegistry maps command names to their responders. Lookups are case-insensitive and it is safe for
// concurrent use.
type CommandRegistry struct {
	mutex    sync.RWMutex
	commands map[string]CommandResponder
}

func (c *CommandRegistry) Register(handler CommandResponder) {
	name := strings.ToLower(handler.GetCommand())

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.commands == nil {
		c.commands = make(map[string]CommandResponder)
	}

	if _, ok := c.commands[name]; ok {
		log.Warn().Str("handler", name).Msg("replacing command handler in registry")
	} else {
		log.Info().Str("handler", name).Msg("adding command handler to registry")
	}
	c.commands[name] = handler
}

func (c *CommandRegistry) Get(command string) (CommandResponder, error) {
	log.Debug().Str("command", command).Msg("fetching command handler from registry")

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.commands == nil {
		return nil, errors.New("can't fetch commands, registry not initialized")
	}

	handler, ok := c.commands[strings.ToLower(command)]
	if !ok {
		return nil, errors.New("command not found")
	}

	return handler, nil
}

// ListCommands returns the registered command identifiers in lexical order.
func (c *CommandRegistry) ListCommands() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	keys := make([]string, 0, len(c.commands))
	for k := range c.commands {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

func ParseCommandArgs(args string) string {
	command := strings.Split(args, " ")
	return strings.TrimSpace(strings.Join(command[1:], " "))
}

// ParseCommand returns the first word of a message, without a trailing "@botname" mention.
func ParseCommand(args string) string {
	command := strings.Split(args, " ")
	name, _, _ := strings.Cut(command[0], "@")
	return name
}
