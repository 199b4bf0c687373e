package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"sjsage522/catalogworker/cmd/catalogctl/commands"
	"sjsage522/catalogworker/logger"
)

func main() {
	godotenv.Load()
	logger.Init()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	commands.ExecuteContext(ctx)
}
