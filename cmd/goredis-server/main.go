package main

import (
	_ "github.com/lovelydayss/goredis-kernel/config"
	"github.com/lovelydayss/goredis-kernel/lib/pool"
	"github.com/lovelydayss/goredis-kernel/log"
	"github.com/lovelydayss/goredis-kernel/server"
)

func main() {
	startupLog := log.New(log.DefaultOptions())

	srv, err := server.ConstructServer()
	if err != nil {
		startupLog.Fatalf("server construct failed: %s", err.Error())
	}

	pool.SetLogger(startupLog)

	if err := srv.Serve(); err != nil {
		startupLog.Fatalf("server run failed: %s", err.Error())
	}
}
