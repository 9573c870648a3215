package server

import (
	"go.uber.org/dig"

	"github.com/lovelydayss/goredis-kernel/config"
	"github.com/lovelydayss/goredis-kernel/internal/dispatch"
	"github.com/lovelydayss/goredis-kernel/internal/engine"
	"github.com/lovelydayss/goredis-kernel/internal/eventloop"
	"github.com/lovelydayss/goredis-kernel/log"
)

// container is the dependency graph for the engine, dispatcher, event
// loop, and server.
var container = dig.New()

func init() {
	/**
	   Logging
	**/
	_ = container.Provide(newLogger)

	/**
	   Engine
	**/
	_ = container.Provide(newEngine)
	_ = container.Provide(dispatch.New)

	/**
	   Transport
	**/
	_ = container.Provide(newLoop)

	/**
	   Server
	**/
	_ = container.Provide(NewServer)
}

func newLogger() log.Logger {
	return log.New(log.Options{
		Filename:   config.Config.Log.Filename,
		MaxSizeMB:  config.Config.Log.MaxSizeMB,
		MaxBackups: config.Config.Log.MaxBackups,
		MaxAgeDays: config.Config.Log.MaxAgeDays,
		Level:      log.ParseLevel(config.Config.Log.Level),
	})
}

func newEngine() *engine.Engine {
	return engine.NewWithTuning(config.Config.Rehash.MigrationBudget, config.Config.Rehash.LoadFactor)
}

func newLoop(d *dispatch.Table, e *engine.Engine, logger log.Logger) (*eventloop.Loop, error) {
	return eventloop.New(config.Config.Server.Address, config.Config.Server.MaxMsg, d, e, logger)
}

// ConstructServer builds the whole dependency graph and returns the
// top-level Server, ready for Serve.
func ConstructServer() (*Server, error) {
	var s *Server
	if err := container.Invoke(func(_s *Server) {
		s = _s
	}); err != nil {
		return nil, err
	}
	return s, nil
}
