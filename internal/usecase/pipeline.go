package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

// PipelineDeps wires the three stages and the optional notifier.
type PipelineDeps struct {
	Harvester *Harvester
	Composer  *Composer
	Publisher *Publisher
	Notifier  ports.Notifier
	Logger    *slog.Logger
}

// Pipeline chains harvest, compose and publish.
type Pipeline struct {
	harvester *Harvester
	composer  *Composer
	publisher *Publisher
	notifier  ports.Notifier
	logger    *slog.Logger
}

// PipelineReport collects the reports of the stages that ran.
type PipelineReport struct {
	Harvest *HarvestReport
	Compose *ComposeReport
	Publish *PublishReport
}

// NewPipeline constructs the orchestration component. Nil stages are skipped.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		harvester: deps.Harvester,
		composer:  deps.Composer,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		logger:    deps.Logger,
	}
}

// RunOnce executes the chain. A stage that produces nothing stops the chain
// with an error wrapping domain.ErrNothingProduced.
func (p *Pipeline) RunOnce(ctx context.Context) (PipelineReport, error) {
	var report PipelineReport
	err := p.run(ctx, &report)
	p.notify(ctx, report, err)
	return report, err
}

func (p *Pipeline) run(ctx context.Context, report *PipelineReport) error {
	if p.harvester != nil {
		r, err := p.harvester.Run(ctx)
		report.Harvest = &r
		if err != nil {
			return fmt.Errorf("harvest: %w", err)
		}
	}

	if p.composer != nil {
		r, err := p.composer.Run(ctx)
		report.Compose = &r
		if err != nil {
			return fmt.Errorf("compose: %w", err)
		}
	}

	if p.publisher != nil {
		r, err := p.publisher.Run(ctx)
		report.Publish = &r
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) notify(ctx context.Context, report PipelineReport, runErr error) {
	if p.notifier == nil || errors.Is(runErr, context.Canceled) {
		return
	}
	message := buildDigestMessage(report, runErr)
	if message == "" {
		return
	}
	if err := p.notifier.PublishDigest(ctx, message); err != nil && p.logger != nil {
		p.logger.Warn("digest delivery failed", "error", err)
	}
}

func buildDigestMessage(report PipelineReport, runErr error) string {
	var parts []string
	if report.Harvest != nil {
		parts = append(parts, report.Harvest.Digest())
	}
	if report.Compose != nil {
		parts = append(parts, report.Compose.Digest())
	}
	if report.Publish != nil {
		parts = append(parts, report.Publish.Digest())
	}
	if len(parts) == 0 {
		return ""
	}

	switch {
	case runErr == nil:
	case errors.Is(runErr, domain.ErrNothingProduced):
		parts = append(parts, "Stopped: "+escapeMarkdown(runErr.Error()))
	default:
		parts = append(parts, "Failed: "+escapeMarkdown(runErr.Error()))
	}
	return strings.Join(parts, "\n")
}
