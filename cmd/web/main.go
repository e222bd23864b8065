package main

import (
	"context"
	"log/slog"
	"os"

	"pcpsucata/internal/app"
	"pcpsucata/internal/config"
	"pcpsucata/internal/infrastructure"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("Ignoring .env file", slog.String("error", err.Error()))
	}

	application, err := app.NewApplication(context.Background())
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := application.Run(); err != nil {
		application.Logger.Error("Application error", slog.String("error", err.Error()))
		infrastructure.CloseLogFile()
		os.Exit(1)
	}
}
