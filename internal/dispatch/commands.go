package dispatch

import (
	"errors"
	"strconv"

	"github.com/lovelydayss/goredis-kernel/internal/engine"
	"github.com/lovelydayss/goredis-kernel/internal/sortedset"
	"github.com/lovelydayss/goredis-kernel/internal/wire"
)

func handlePing(_ *engine.Engine, args [][]byte) *wire.Response {
	if len(args) > 1 {
		return wrongArgs("ping")
	}

	r := &wire.Response{}
	if len(args) == 1 {
		r.Str(string(args[0]))
	} else {
		r.Str("PONG")
	}
	return r
}

func handleGet(e *engine.Engine, args [][]byte) *wire.Response {
	if len(args) != 1 {
		return wrongArgs("get")
	}

	value, ok, err := e.Get(string(args[0]))
	r := &wire.Response{}
	switch {
	case errors.Is(err, engine.ErrWrongType):
		return wrongType()
	case !ok:
		r.Nil()
	default:
		r.Str(string(value))
	}
	return r
}

func handleSet(e *engine.Engine, args [][]byte) *wire.Response {
	if len(args) != 2 {
		return wrongArgs("set")
	}

	e.Set(string(args[0]), args[1])
	r := &wire.Response{}
	r.Nil()
	return r
}

func handleDel(e *engine.Engine, args [][]byte) *wire.Response {
	if len(args) != 1 {
		return wrongArgs("del")
	}

	r := &wire.Response{}
	if e.Del(string(args[0])) {
		r.Int(1)
	} else {
		r.Int(0)
	}
	return r
}

func handleKeys(e *engine.Engine, args [][]byte) *wire.Response {
	if len(args) != 0 {
		return wrongArgs("keys")
	}

	keys := e.Keys()
	r := &wire.Response{}
	r.Arr(uint32(len(keys)))
	for _, k := range keys {
		r.Str(k)
	}
	return r
}

func handleZAdd(e *engine.Engine, args [][]byte) *wire.Response {
	if len(args) < 3 || len(args)%2 != 1 {
		return wrongArgs("zadd")
	}

	key := string(args[0])
	pairs := make([]engine.ScorePair, 0, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		score, err := strconv.ParseFloat(string(args[i]), 64)
		if err != nil {
			return wire.NewErrResponse(wire.ErrWrongArgs, "value is not a valid float")
		}
		pairs = append(pairs, engine.ScorePair{Score: score, Member: string(args[i+1])})
	}

	added, err := e.ZAdd(key, pairs)
	if errors.Is(err, engine.ErrWrongType) {
		return wrongType()
	}

	r := &wire.Response{}
	r.Int(added)
	return r
}

func handleZRem(e *engine.Engine, args [][]byte) *wire.Response {
	if len(args) < 2 {
		return wrongArgs("zrem")
	}

	key := string(args[0])
	members := make([]string, 0, len(args)-1)
	for _, m := range args[1:] {
		members = append(members, string(m))
	}

	removed, err := e.ZRem(key, members)
	if errors.Is(err, engine.ErrWrongType) {
		return wrongType()
	}

	r := &wire.Response{}
	r.Int(removed)
	return r
}

func handleZRange(e *engine.Engine, args [][]byte) *wire.Response {
	if len(args) != 3 {
		return wrongArgs("zrange")
	}

	start, err := strconv.Atoi(string(args[1]))
	if err != nil {
		return wire.NewErrResponse(wire.ErrWrongArgs, "start is not an integer")
	}
	stop, err := strconv.Atoi(string(args[2]))
	if err != nil {
		return wire.NewErrResponse(wire.ErrWrongArgs, "stop is not an integer")
	}

	members, zErr := e.ZRange(string(args[0]), start, stop)
	if errors.Is(zErr, engine.ErrWrongType) {
		return wrongType()
	}

	r := &wire.Response{}
	r.Arr(uint32(len(members) * 2))
	for _, m := range members {
		r.Str(m.Name)
		r.Str(sortedset.FormatScore(m.Score))
	}
	return r
}
