// Package gmailassistant provides a high-level façade over the interaction
// engine, the execution-agent runtime, and the backing stores. Most
// applications interact with this package by:
//  1. Creating an Assistant via New() with a model (optionally overriding the
//     default in-memory stores with durable ones)
//  2. Feeding user messages through SendMessage
//  3. Rendering ChatHistory to whatever surface they expose
//
// All defaults are safe for local development and testing; production
// deployments supply the SQLite stores and a real mail service.
package gmailassistant

import (
	"context"

	"github.com/sandeep231004/gmailassistant/agent"
	"github.com/sandeep231004/gmailassistant/conversation"
	"github.com/sandeep231004/gmailassistant/core"
	"github.com/sandeep231004/gmailassistant/dispatch"
	"github.com/sandeep231004/gmailassistant/engine"
	"github.com/sandeep231004/gmailassistant/logging"
	"github.com/sandeep231004/gmailassistant/mail"
	"github.com/sandeep231004/gmailassistant/model"
	"github.com/sandeep231004/gmailassistant/runtime"
	"github.com/sandeep231004/gmailassistant/store/memory"
)

// Options configures the Assistant instance.
type Options struct {
	// SummaryModel handles working-memory compaction. Defaults to the main
	// model.
	SummaryModel model.Model

	// Stores (default to in-memory implementations if not provided).
	Conversation core.ConversationStore
	Summaries    core.SummaryStore
	Journal      core.JournalStore
	Roster       core.Roster
	Drafts       core.DraftStore
	Seen         core.SeenStore
	Profiles     core.ProfileStore

	// Mail collaborators. Without them the execution agents still run but
	// every mailbox action reports the not-connected payload.
	Service  mail.Service
	Searcher mail.Searcher

	// SummaryThreshold and SummaryTail tune working-memory compaction; zero
	// values keep the compactor defaults.
	SummaryThreshold int
	SummaryTail      int

	// MaxToolIterations caps each execution agent's plan/act loop; zero
	// keeps the runtime default.
	MaxToolIterations int

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Assistant is the high-level façade aggregating the interaction engine, the
// dispatcher, and the stores.
type Assistant struct {
	opts      Options
	model     model.Model
	log       *conversation.Log
	engine    *engine.Engine
	batch     *dispatch.BatchManager
	compactor *conversation.Compactor
	watcher   *engine.Watcher
	journal   core.JournalStore
	roster    core.Roster
	logger    logging.Logger
}

// New creates an Assistant around the given model. Any unset store is
// initialized with an in-memory implementation.
func New(m model.Model, optFns ...func(o *Options)) *Assistant {
	opts := Options{
		Conversation: memory.NewConversationStore(),
		Summaries:    memory.NewSummaryStore(),
		Journal:      memory.NewJournalStore(),
		Roster:       memory.NewRoster(),
		Drafts:       memory.NewDraftStore(),
		Seen:         memory.NewSeenStore(),
		Profiles:     memory.NewProfileStore(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := logging.OrNoOp(opts.Logger)

	summaryModel := opts.SummaryModel
	if summaryModel == nil {
		summaryModel = m
	}
	compactor := conversation.NewCompactor(
		opts.Conversation,
		opts.Summaries,
		conversation.NewModelSummarizer(summaryModel),
		func(o *conversation.CompactorOptions) {
			if opts.SummaryThreshold > 0 {
				o.Threshold = opts.SummaryThreshold
			}
			if opts.SummaryTail > 0 {
				o.Tail = opts.SummaryTail
			}
			o.Logger = logger
		},
	)

	log := conversation.NewLog(opts.Conversation, opts.Summaries, func(o *conversation.LogOptions) {
		o.Logger = logger
		o.OnAppend = compactor.Notify
	})
	workingMemory := conversation.NewWorkingMemory(opts.Conversation, opts.Summaries)

	resolver := mail.NewResolver(opts.Profiles, func(o *mail.ResolverOptions) {
		o.Logger = logger
	})
	toolset := mail.NewToolset(opts.Service, opts.Searcher, resolver, opts.Drafts, func(o *mail.ToolsetOptions) {
		o.Journal = opts.Journal
		o.Logger = logger
	})
	registry := toolset.Registry()

	executor := dispatch.ExecutorFunc(func(ctx context.Context, agentName, instructions string) core.ExecutionResult {
		worker := agent.New(agentName, opts.Journal, func(o *agent.ExecutionAgentOptions) {
			o.Logger = logger
		})
		rt := runtime.New(worker, m, registry, func(o *runtime.Options) {
			o.MaxToolIterations = opts.MaxToolIterations
			o.Logger = logger
		})
		return rt.Execute(ctx, instructions)
	})
	batch := dispatch.NewBatchManager(executor, func(o *dispatch.BatchManagerOptions) {
		o.Logger = logger
	})

	dispatcher := dispatch.NewDispatcher(log, opts.Roster, opts.Journal, opts.Drafts, resolver, func(o *dispatch.DispatcherOptions) {
		o.Batch = batch
		o.Service = opts.Service
		o.Logger = logger
	})

	eng := engine.New(m, dispatcher, log, workingMemory, func(o *engine.Options) {
		o.Logger = logger
	})

	var watcher *engine.Watcher
	if opts.Searcher != nil {
		watcher = engine.NewWatcher(opts.Searcher, resolver, opts.Seen, log, func(o *engine.WatcherOptions) {
			o.Logger = logger
		})
	}

	return &Assistant{
		opts:      opts,
		model:     m,
		log:       log,
		engine:    eng,
		batch:     batch,
		compactor: compactor,
		watcher:   watcher,
		journal:   opts.Journal,
		roster:    opts.Roster,
		logger:    logger,
	}
}

// SendMessage runs one interaction turn for the given user message and
// returns the first user-visible reply. An empty reply means the assistant
// chose to stay silent or only delegated work.
func (a *Assistant) SendMessage(ctx context.Context, text string) (string, error) {
	return a.engine.ProcessUserMessage(ctx, text)
}

// RunTurn runs one interaction turn without a new user message, letting the
// assistant react to execution-agent reports or watcher pokes in the log.
func (a *Assistant) RunTurn(ctx context.Context) (string, error) {
	return a.engine.RunTurn(ctx)
}

// ChatHistory returns the user-facing chat projection of the conversation.
func (a *Assistant) ChatHistory() ([]conversation.ChatMessage, error) {
	return a.log.ChatMessages()
}

// ClearHistory wipes the conversation log and its working-memory summary.
func (a *Assistant) ClearHistory() error {
	return a.log.Clear()
}

// Log exposes the conversation log, e.g. for recording agent reports.
func (a *Assistant) Log() *conversation.Log {
	return a.log
}

// Agents returns the roster of known execution-agent names.
func (a *Assistant) Agents() []string {
	return a.roster.Agents()
}

// AgentHistory returns an execution agent's full journal.
func (a *Assistant) AgentHistory(agentName string) ([]core.JournalEntry, error) {
	return a.journal.Entries(agentName)
}

// Watcher returns the mailbox watcher, or nil when no searcher was
// configured. Callers typically start it with go Watcher().Run(ctx).
func (a *Assistant) Watcher() *engine.Watcher {
	return a.watcher
}

// Drain blocks until every in-flight execution-agent task and compaction
// pass has finished. Intended for shutdown and tests.
func (a *Assistant) Drain() {
	a.batch.Wait()
	a.compactor.Wait()
}
