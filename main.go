package main

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/habedi/folio/cmd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configureLogLevelFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopChan := setupInterruptListener()
	go handleInterrupt(stopChan, cancel, func(msg string) { log.Error().Msg(msg) }, os.Exit)

	cmd.Execute(ctx)
}

// configureLogLevelFromEnv enables debug logging when DEBUG_FOLIO is set to anything
// but "", "0" or "false". Otherwise logging is off.
func configureLogLevelFromEnv() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEBUG_FOLIO"))) {
	case "", "0", "false":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func setupInterruptListener() chan os.Signal {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)
	return stopChan
}

// handleInterrupt cancels the running command on the first interrupt so it can
// unwind and release the session store. A second interrupt exits at once.
func handleInterrupt(stopChan chan os.Signal, cancel context.CancelFunc, fatalLog func(string), exit func(int)) {
	<-stopChan
	log.Info().Msg("Interrupt signal received. Cancelling...")
	cancel()

	<-stopChan
	fatalLog("Interrupt signal received. Exiting...")
	exit(1)
}
