package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/rocketscienceinc/sabotage-connect4/internal/config"
	"github.com/rocketscienceinc/sabotage-connect4/internal/terminal"
)

// main - runs one hot-seat game in the console.
func main() {
	plain := flag.Bool("plain", false, "disable colors and screen clearing")
	logLevel := flag.String("log-level", "error", "log level written to stderr")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: config.ParseLevel(*logLevel)}))

	session := terminal.NewSession(os.Stdin, os.Stdout,
		terminal.WithColor(!*plain),
		terminal.WithLogger(logger),
	)

	if err := session.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "terminal session failed: %v\n", err)
		os.Exit(1)
	}
}
