package main

//  _ _                 _           _
// | | |_ __ ___   ___| |__   __ _| |_
// | | | '_ ` _ \ / __| '_ \ / _` | __|
// | | | | | | | | (__| | | | (_| | |_
// |_|_|_| |_| |_|\___|_| |_|\__,_|\__|

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"llmchat/internal/logger"
)

func main() {
	// Create a cancellable context to manage shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigs
		logger.Infof("Shutdown signal received, exiting...")
		cancel()
	}()

	if err := newApp().Run(ctx, os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Errorf("%v", err)
		cancel()
		os.Exit(1)
	}
}
