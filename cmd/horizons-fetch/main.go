package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	root := newRootCmd()
	root.SetArgs(normalizeArgs(os.Args[1:]))
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// normalizeArgs accepts the single-dash -barycenter spelling.
func normalizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if a == "-barycenter" {
			a = "--barycenter"
		}
		out[i] = a
	}
	return out
}
