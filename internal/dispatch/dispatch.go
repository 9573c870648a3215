// Package dispatch implements the command dispatcher: a name -> handler
// table with case-insensitive lookup. Handlers validate arity before
// touching engine state and never partially mutate on a WRONG_ARGS path.
package dispatch

import (
	"strings"

	"github.com/lovelydayss/goredis-kernel/internal/engine"
	"github.com/lovelydayss/goredis-kernel/internal/wire"
)

// Handler executes one command's arguments (excluding the command name
// itself) against e and builds a response.
type Handler func(e *engine.Engine, args [][]byte) *wire.Response

// Table is a case-insensitive name -> Handler mapping.
type Table struct {
	handlers map[string]Handler
}

// New returns a Table with every command wired in.
func New() *Table {
	t := &Table{handlers: make(map[string]Handler)}
	t.register("ping", handlePing)
	t.register("get", handleGet)
	t.register("set", handleSet)
	t.register("del", handleDel)
	t.register("keys", handleKeys)
	t.register("zadd", handleZAdd)
	t.register("zrem", handleZRem)
	t.register("zrange", handleZRange)
	return t
}

func (t *Table) register(name string, h Handler) {
	t.handlers[name] = h
}

// Dispatch executes cmdLine (command name plus arguments) against e. An
// empty cmdLine or an unregistered name both yield UNKNOWN_COMMAND.
func (t *Table) Dispatch(e *engine.Engine, cmdLine [][]byte) *wire.Response {
	if len(cmdLine) == 0 {
		return wire.NewErrResponse(wire.ErrUnknownCommand, "Empty command")
	}

	name := strings.ToLower(string(cmdLine[0]))
	h, ok := t.handlers[name]
	if !ok {
		return wire.NewErrResponse(wire.ErrUnknownCommand, "Unknown command '"+string(cmdLine[0])+"'")
	}

	return h(e, cmdLine[1:])
}

func wrongArgs(name string) *wire.Response {
	return wire.NewErrResponse(wire.ErrWrongArgs, "Wrong number of arguments for '"+name+"'")
}

func wrongType() *wire.Response {
	return wire.NewErrResponse(wire.ErrWrongArgs, engine.ErrWrongType.Error())
}
