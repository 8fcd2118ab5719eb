// Command teamform runs team-formation experiments and solves one-off
// assignments.
//
//	teamform run --config experiment.yaml
//	teamform assign --scores scores.yaml --teams 2 --capacity 2
//	teamform config
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
