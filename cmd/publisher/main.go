package main

import (
	"context"
	"os"

	"NewsRelay/internal/app"
)

var hints = []string{
	"check the post queue exists and holds drafts (run the composer first)",
	"check the drafts were not all published already",
	"check the compose box selectors still match the site",
}

func main() {
	os.Exit(app.Main("publisher", hints, func(ctx context.Context, a *app.Application) error {
		_, err := a.Publish(ctx)
		return err
	}))
}
