package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sandeep231004/gmailassistant/core"
	"github.com/sandeep231004/gmailassistant/logging"
	"github.com/sandeep231004/gmailassistant/model"
)

// Summarizer folds a batch of conversation entries into an updated rolling
// summary.
type Summarizer interface {
	Summarize(ctx context.Context, previousSummary string, entries []core.ConversationEntry) (string, error)
}

const summaryInstructions = `You maintain the long-term memory of an email assistant's conversation with its user.
Merge the previous summary and the new transcript excerpt into a single updated summary.
Keep user preferences, open requests, commitments, and important email details.
Drop greetings and filler. Write plain prose, at most a few short paragraphs.`

// ModelSummarizer implements Summarizer with a single model completion.
type ModelSummarizer struct {
	model model.Model
}

// NewModelSummarizer constructs a model-backed summarizer.
func NewModelSummarizer(m model.Model) *ModelSummarizer {
	return &ModelSummarizer{model: m}
}

// Summarize implements Summarizer.
func (s *ModelSummarizer) Summarize(ctx context.Context, previousSummary string, entries []core.ConversationEntry) (string, error) {
	if len(entries) == 0 {
		return previousSummary, nil
	}

	var b strings.Builder
	if prev := strings.TrimSpace(previousSummary); prev != "" {
		b.WriteString("Previous summary:\n")
		b.WriteString(prev)
		b.WriteString("\n\n")
	}
	b.WriteString("New transcript excerpt:\n")
	for _, e := range entries {
		b.WriteString(renderEntry(e))
		b.WriteString("\n")
	}

	resp, err := s.model.Complete(ctx, model.Request{
		Instructions: summaryInstructions,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: b.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("summary completion: %w", err)
	}
	summary := strings.TrimSpace(resp.Message.Content)
	if summary == "" {
		return "", fmt.Errorf("summary completion returned empty text")
	}
	return summary, nil
}

// CompactorOptions configures a Compactor.
type CompactorOptions struct {
	// Threshold is the entry count past which compaction triggers.
	// Defaults to 100.
	Threshold int

	// Tail is the number of newest entries kept out of the summary.
	// Defaults to 50.
	Tail int

	// Logger receives swallowed compaction failures.
	Logger logging.Logger
}

// Compactor watches the conversation log and asynchronously folds older
// entries into the rolling summary once the log outgrows the threshold.
// Compaction failures are logged and swallowed; the next append retries.
type Compactor struct {
	store      core.ConversationStore
	summaries  core.SummaryStore
	summarizer Summarizer
	threshold  int
	tail       int
	logger     logging.Logger

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// NewCompactor constructs a compactor over the given stores.
func NewCompactor(store core.ConversationStore, summaries core.SummaryStore, summarizer Summarizer, optFns ...func(o *CompactorOptions)) *Compactor {
	opts := CompactorOptions{Threshold: 100, Tail: 50}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Threshold <= 0 {
		opts.Threshold = 100
	}
	if opts.Tail < 0 {
		opts.Tail = 50
	}
	return &Compactor{
		store:      store,
		summaries:  summaries,
		summarizer: summarizer,
		threshold:  opts.Threshold,
		tail:       opts.Tail,
		logger:     logging.OrNoOp(opts.Logger),
	}
}

// Notify schedules a compaction pass when the unsummarized log has outgrown
// the threshold. At most one pass runs at a time; Notify never blocks on the
// model call.
func (c *Compactor) Notify() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			c.running = false
			c.mu.Unlock()
			c.wg.Done()
		}()
		if err := c.Compact(context.Background()); err != nil {
			c.logger.Warn("conversation compaction failed", "error", err)
		}
	}()
}

// Wait blocks until any in-flight compaction pass finishes. Intended for
// tests and shutdown.
func (c *Compactor) Wait() {
	c.wg.Wait()
}

// Compact runs one synchronous compaction pass. It is a no-op while the
// unsummarized portion of the log is within the threshold.
func (c *Compactor) Compact(ctx context.Context) error {
	state, err := c.summaries.LoadSummary()
	if err != nil {
		return fmt.Errorf("load summary state: %w", err)
	}
	pending, err := c.store.EntriesAfter(state.LastIndex)
	if err != nil {
		return fmt.Errorf("load pending entries: %w", err)
	}
	if len(pending) <= c.threshold {
		return nil
	}

	// Everything but the newest tail gets folded into the summary. A tail
	// covering the whole pending window leaves nothing to fold.
	if c.tail >= len(pending) {
		return nil
	}
	batch := pending[:len(pending)-c.tail]

	summary, err := c.summarizer.Summarize(ctx, state.SummaryText, batch)
	if err != nil {
		return err
	}
	return c.summaries.SaveSummary(core.SummaryState{
		SummaryText: summary,
		LastIndex:   batch[len(batch)-1].ID,
		UpdatedAt:   time.Now().UTC(),
	})
}
