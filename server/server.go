// Package server wires the engine, dispatcher, and event loop together and
// drives their lifecycle against OS signals.
package server

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/lovelydayss/goredis-kernel/internal/eventloop"
	"github.com/lovelydayss/goredis-kernel/lib/pool"
	"github.com/lovelydayss/goredis-kernel/log"
)

// Server owns the event loop and the signal watcher that stops it.
type Server struct {
	runOnce  sync.Once
	stopOnce sync.Once

	loop   *eventloop.Loop
	logger log.Logger
	stopc  chan struct{}
}

// NewServer returns a Server driving loop.
func NewServer(loop *eventloop.Loop, logger log.Logger) *Server {
	return &Server{
		loop:   loop,
		logger: logger,
		stopc:  make(chan struct{}),
	}
}

// Serve starts the signal watcher and runs the event loop on the calling
// goroutine until Stop is called or the loop hits a fatal error.
func (s *Server) Serve() (err error) {
	s.runOnce.Do(func() {
		exitSignals := []os.Signal{syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT}

		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, exitSignals...)

		pool.Submit(func() {
			select {
			case sig := <-sigc:
				s.logger.Warnf("server received signal %s, stopping...", sig)
				s.loop.Stop()
			case <-s.stopc:
				s.loop.Stop()
			}
		})

		s.logger.Infof("server starting event loop...")
		err = s.loop.Run()
		s.loop.Close()
		s.logger.Warnf("server stopped")
	})

	return err
}

// Stop asks a running Serve to return.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopc)
	})
}
