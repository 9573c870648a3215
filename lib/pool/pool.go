// Package pool runs background, out-of-engine goroutines; the server
// submits only its OS signal watcher.
package pool

import (
	"runtime/debug"
	"strings"

	"github.com/panjf2000/ants"

	"github.com/lovelydayss/goredis-kernel/log"
)

var (
	logger log.Logger = log.Nop()
	workers            = newPool()
)

func newPool() *ants.Pool {
	p, err := ants.NewPool(16, ants.WithPanicHandler(func(i interface{}) {
		stackInfo := strings.Replace(string(debug.Stack()), "\n", "", -1)
		logger.Errorf("recovered panic: %v, stack: %s", i, stackInfo)
	}))
	if err != nil {
		panic(err)
	}
	return p
}

// SetLogger points the pool's panic handler at the process logger. Call
// once during startup, before Submit.
func SetLogger(l log.Logger) {
	logger = l
}

// Submit runs task on the background pool.
func Submit(task func()) {
	_ = workers.Submit(task)
}
