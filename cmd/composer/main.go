package main

import (
	"context"
	"os"

	"NewsRelay/internal/app"
)

var hints = []string{
	"check the article store exists and holds articles (run the harvester first)",
	"check the drafting backend is running (ollama serve)",
	"check the hashtag backend API key (GEMINI_API_KEY)",
}

func main() {
	os.Exit(app.Main("composer", hints, func(ctx context.Context, a *app.Application) error {
		_, err := a.Compose(ctx)
		return err
	}))
}
