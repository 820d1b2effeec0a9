package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRelay/internal/domain"
	"NewsRelay/internal/poster"
)

func TestPipelineStopsWhenStageProducesNothing(t *testing.T) {
	t.Parallel()

	drafter := staticModel("never used")
	notifier := &memNotifier{}
	pipeline := NewPipeline(PipelineDeps{
		Harvester: NewHarvester(HarvesterDeps{
			Pages:      &fakeDiscoverer{links: map[string][]string{}},
			Extractor:  &fakeExtractor{},
			Categories: []domain.CategorySeed{{Name: "news", Pages: []string{"seed"}}},
			NewRunID:   func() string { return "harvest-run-id" },
		}),
		Composer: NewComposer(ComposerDeps{Store: staticRecords(nil), Drafter: drafter}),
		Notifier: notifier,
	})

	report, err := pipeline.RunOnce(context.Background())
	assert.ErrorIs(t, err, domain.ErrNothingProduced)
	require.NotNil(t, report.Harvest)
	assert.Nil(t, report.Compose)
	assert.Empty(t, drafter.prompts)

	require.Len(t, notifier.digests, 1)
	assert.Contains(t, notifier.digests[0], "*Harvest* `harvest-`")
	assert.Contains(t, notifier.digests[0], "Stopped: harvest: no records produced")
}

func TestPipelineRunsAllStages(t *testing.T) {
	t.Parallel()

	articles := map[string]domain.Article{
		"https://www.bbc.com/news/a": {URL: "https://www.bbc.com/news/a", Title: "A", Content: "alpha", Category: "news"},
	}
	store := &memStoreWriter{}
	queue := &memQueue{}
	strategy := &scriptedStrategy{name: "standard-compose"}
	notifier := &memNotifier{}

	harvester := NewHarvester(HarvesterDeps{
		Pages:      &fakeDiscoverer{links: map[string][]string{"seed": {"https://www.bbc.com/news/a"}}},
		Extractor:  &fakeExtractor{articles: articles},
		Annotator:  NewAnnotator(AnnotatorDeps{Model: staticModel(annotationJSON)}),
		Store:      store,
		Categories: []domain.CategorySeed{{Name: "news", Pages: []string{"seed"}}},
	})
	composer := NewComposer(ComposerDeps{
		Store:   storeRecords{writer: store},
		Queue:   queue,
		Drafter: staticModel("Alpha happened"),
	})
	publisher := NewPublisher(PublisherDeps{
		Queue:      queuedDrafts{queue: queue},
		Launcher:   &fakeLauncher{session: &permissiveSession{}},
		Settings:   testPosterSettings(),
		Strategies: []poster.Strategy{strategy},
	})

	report, err := NewPipeline(PipelineDeps{
		Harvester: harvester,
		Composer:  composer,
		Publisher: publisher,
		Notifier:  notifier,
	}).RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Harvest.Articles)
	assert.Equal(t, 1, report.Compose.Drafted)
	assert.Equal(t, 1, report.Publish.Published)
	assert.Equal(t, []string{"Alpha happened"}, strategy.texts)

	require.Len(t, notifier.digests, 1)
	assert.Contains(t, notifier.digests[0], "- news: 1")
	assert.Contains(t, notifier.digests[0], "Drafts: 1 of 1 selected")
	assert.Contains(t, notifier.digests[0], "- standard-compose: 1")
	assert.NotContains(t, notifier.digests[0], "Stopped")
}

func TestHarvestDigestListsFailures(t *testing.T) {
	t.Parallel()

	digest := HarvestReport{
		RunID:       "12345678-aaaa",
		Articles:    2,
		PerCategory: []CategoryCount{{Name: "world_news", Articles: 2}},
		Failures: map[domain.Reason]int{
			domain.ReasonTooShort:      2,
			domain.ReasonFetch:         1,
			domain.ReasonRobotsBlocked: 1,
		},
	}.Digest()

	assert.Contains(t, digest, "`12345678`")
	assert.Contains(t, digest, `Failures: fetch=1, robots\_blocked=1, too\_short=2`)
	assert.Contains(t, digest, `- world\_news: 2`)
	assert.True(t, markdownBalanced(digest), digest)
}

func TestDigestMessageEscapesErrorText(t *testing.T) {
	t.Parallel()

	harvest := HarvestReport{RunID: "run", Failures: map[domain.Reason]int{domain.ReasonBackend: 3}}
	publish := PublishReport{RunID: "run", Strategies: map[string]int{"keyboard_shortcut": 1}}
	runErr := errors.New("publish: open https://www.bbc.com/news/uk_politics-1 [*draft*]")

	message := buildDigestMessage(PipelineReport{Harvest: &harvest, Publish: &publish}, runErr)

	assert.Contains(t, message, `Failed: publish: open https://www.bbc.com/news/uk\_politics-1 \[\*draft\*]`)
	assert.Contains(t, message, `- keyboard\_shortcut: 1`)
	assert.True(t, markdownBalanced(message), message)
}

// markdownBalanced reports whether every bold, italic and code entity of a
// legacy Telegram Markdown message is closed.
func markdownBalanced(text string) bool {
	var bold, italic, code bool
	for i := 0; i < len(text); i++ {
		c := text[i]
		if code {
			if c == '`' {
				code = false
			}
			continue
		}
		switch c {
		case '\\':
			i++
		case '`':
			code = true
		case '*':
			bold = !bold
		case '_':
			italic = !italic
		}
	}
	return !bold && !italic && !code
}

// storeRecords reads back what a harvester just wrote.
type storeRecords struct {
	writer *memStoreWriter
}

func (s storeRecords) LoadArticleRecords(context.Context) ([]domain.StoredCategory, error) {
	var out []domain.StoredCategory
	for _, store := range s.writer.saved {
		for _, cat := range store.Categories {
			stored := domain.StoredCategory{Name: cat.CategoryName}
			for _, a := range cat.Articles {
				raw, err := json.Marshal(a)
				if err != nil {
					return nil, err
				}
				stored.Records = append(stored.Records, raw)
			}
			out = append(out, stored)
		}
	}
	return out, nil
}

// queuedDrafts reads back what a composer just wrote.
type queuedDrafts struct {
	queue *memQueue
}

func (q queuedDrafts) LoadPostQueue(context.Context) ([]json.RawMessage, error) {
	var out []json.RawMessage
	for _, drafts := range q.queue.saved {
		for _, d := range drafts {
			raw, err := json.Marshal(d)
			if err != nil {
				return nil, err
			}
			out = append(out, raw)
		}
	}
	return out, nil
}
