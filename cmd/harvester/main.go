package main

import (
	"context"
	"os"

	"NewsRelay/internal/app"
)

var hints = []string{
	"check network connectivity to the news site",
	"check the site layout still matches the configured selectors",
	"check the annotation backend is running (ollama serve)",
}

func main() {
	os.Exit(app.Main("harvester", hints, func(ctx context.Context, a *app.Application) error {
		_, err := a.Harvest(ctx)
		return err
	}))
}
