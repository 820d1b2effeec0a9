package main

import (
	"context"
	"os"

	"NewsRelay/internal/app"
)

var hints = []string{
	"check network connectivity to the news site",
	"check the LLM backends are running and their API keys are set",
	"check the publisher credentials (PUBLISHER_USERNAME, PUBLISHER_PASSWORD)",
}

func main() {
	os.Exit(app.Main("pipeline", hints, func(ctx context.Context, a *app.Application) error {
		return a.RunAll(ctx)
	}))
}
