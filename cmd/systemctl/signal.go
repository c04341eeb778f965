package main

import (
	"os"
	"os/signal"
	"syscall"
)

// notifyShutdown wires TERM/INT delivery into ch, matching Design Note
// "Init mode signal handling": both signals are ignored by the runtime
// default disposition and instead routed through this channel into the
// init-mode idle loop.
func notifyShutdown(ch chan os.Signal) {
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
}
