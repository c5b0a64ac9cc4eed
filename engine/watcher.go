package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sandeep231004/gmailassistant/conversation"
	"github.com/sandeep231004/gmailassistant/core"
	"github.com/sandeep231004/gmailassistant/logging"
	"github.com/sandeep231004/gmailassistant/mail"
)

// DefaultWatchInterval is how often the watcher polls the mailbox.
const DefaultWatchInterval = 2 * time.Minute

// inboxQuery is the free-text search the watcher polls with.
const inboxQuery = "in:inbox"

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	// Interval between polls. Defaults to DefaultWatchInterval when zero or
	// negative.
	Interval time.Duration

	Logger logging.Logger
}

// Watcher polls the mailbox and records a poke reply in the conversation when
// unseen messages arrive. The first poll of an empty seen set only records a
// baseline; nothing that existed before the watcher started is announced.
type Watcher struct {
	searcher mail.Searcher
	resolver core.AccountResolver
	seen     core.SeenStore
	log      *conversation.Log
	interval time.Duration
	logger   logging.Logger
}

// NewWatcher constructs a Watcher over the given mailbox collaborators.
func NewWatcher(
	searcher mail.Searcher,
	resolver core.AccountResolver,
	seen core.SeenStore,
	log *conversation.Log,
	optFns ...func(o *WatcherOptions),
) *Watcher {
	opts := WatcherOptions{Interval: DefaultWatchInterval}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultWatchInterval
	}
	return &Watcher{
		searcher: searcher,
		resolver: resolver,
		seen:     seen,
		log:      log,
		interval: opts.Interval,
		logger:   logging.OrNoOp(opts.Logger),
	}
}

// Run polls until ctx is cancelled. Poll failures are logged and the loop
// continues.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Poll(ctx); err != nil {
				w.logger.Warn("mailbox poll failed", "error", err)
			}
		}
	}
}

// Poll runs one watch cycle: fetch the inbox, mark what is new, and poke the
// user about it. With no connected account the cycle is a no-op.
func (w *Watcher) Poll(ctx context.Context) error {
	accountID := w.resolver.ActiveAccountID()
	if accountID == "" {
		return nil
	}

	items, err := w.searcher.Search(ctx, accountID, inboxQuery)
	if err != nil {
		return fmt.Errorf("search inbox: %w", err)
	}

	hasBaseline, err := w.seen.HasEntries()
	if err != nil {
		return fmt.Errorf("check seen store: %w", err)
	}
	if !hasBaseline {
		// First cycle: everything currently in the inbox predates the
		// watcher.
		return w.seen.MarkSeen(itemIDs(items)...)
	}

	var fresh []mail.EmailItem
	for _, item := range items {
		if item.MessageID == "" {
			continue
		}
		seen, err := w.seen.IsSeen(item.MessageID)
		if err != nil {
			return fmt.Errorf("check seen id: %w", err)
		}
		if !seen {
			fresh = append(fresh, item)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	if err := w.seen.MarkSeen(itemIDs(fresh)...); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}

	message := pokeMessage(fresh)
	if err := w.log.RecordPokeReply(message); err != nil {
		return fmt.Errorf("record poke: %w", err)
	}
	w.logger.Info("poked user about new mail", "count", len(fresh))
	return nil
}

func itemIDs(items []mail.EmailItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.MessageID != "" {
			ids = append(ids, item.MessageID)
		}
	}
	return ids
}

// pokeMessage builds the user-facing announcement, headlining the newest
// fresh item by timestamp. The Searcher guarantees no result ordering.
func pokeMessage(fresh []mail.EmailItem) string {
	top := fresh[0]
	topTS := mail.ParseTimestamp(top.Timestamp)
	for _, item := range fresh[1:] {
		if ts := mail.ParseTimestamp(item.Timestamp); ts.After(topTS) {
			top, topTS = item, ts
		}
	}
	sender := top.Sender
	if sender == "" {
		sender = "Unknown sender"
	}
	subject := top.Subject
	if subject == "" {
		subject = "No subject"
	}
	if len(fresh) == 1 {
		return fmt.Sprintf("New email from %s: %s", sender, subject)
	}
	return fmt.Sprintf("You have %d new emails. Latest from %s: %s", len(fresh), sender, subject)
}
