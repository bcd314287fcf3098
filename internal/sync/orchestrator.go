package sync

import (
	"context"
	"errors"

	"github.com/linkmirror/linkmirror/internal/domain"
	"github.com/linkmirror/linkmirror/internal/logger"
	"github.com/linkmirror/linkmirror/internal/render"
	"github.com/linkmirror/linkmirror/internal/source"
)

// Status is the transport-agnostic outcome of one event.
type Status int

const (
	// StatusApplied means a create, update or delete went through.
	StatusApplied Status = iota
	// StatusNoAction means the event was deliberately skipped, or a
	// delete found nothing to remove.
	StatusNoAction
	// StatusInvalid means the event or the fetched data was malformed.
	StatusInvalid
	// StatusFailed means a remote call failed; the webhook source may
	// redeliver.
	StatusFailed
)

// Result is what the transport layer turns into a response.
type Result struct {
	Status  Status
	Message string
}

// Fetcher retrieves current bookmark state from the source service.
type Fetcher interface {
	Fetch(ctx context.Context, identifier string) (*domain.BookmarkSnapshot, error)
}

// Orchestrator sequences one event: fetch (unless deleting), classify,
// render, resolve, mutate. No internal concurrency; every outbound call
// runs strictly in order. Two concurrent events for the same identity
// can still race into a duplicate create, since resolve-then-write is
// not serialized anywhere (known consistency gap).
type Orchestrator struct {
	fetcher    Fetcher
	classifier domain.Classifier
	renderer   *render.Renderer
	resolver   *Resolver
	executor   *Executor
	logger     logger.Logger
}

func NewOrchestrator(fetcher Fetcher, classifier domain.Classifier, renderer *render.Renderer, resolver *Resolver, executor *Executor, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		fetcher:    fetcher,
		classifier: classifier,
		renderer:   renderer,
		resolver:   resolver,
		executor:   executor,
		logger:     log,
	}
}

// Handle processes one inbound event end to end.
func (o *Orchestrator) Handle(ctx context.Context, ev *domain.SyncEvent) Result {
	identifier, ok := ev.Identifier()
	if !ok {
		o.logger.Warn("no valid identifier found in event",
			logger.String("action", ev.Action),
			logger.String("state", ev.DeleteState()))
		return Result{Status: StatusInvalid, Message: "Invalid request: Identifier is missing."}
	}

	action, state := ev.Action, ev.DeleteState()
	o.logger.Info("processing event",
		logger.String("identifier", identifier),
		logger.String("action", action),
		logger.String("state", state))

	// Deleted bookmarks may no longer be queryable, so the deletion
	// path never fetches; the identifier alone drives it.
	var snap *domain.BookmarkSnapshot
	if !ev.IsDeletion() {
		var err error
		snap, err = o.fetcher.Fetch(ctx, identifier)
		if err != nil {
			return o.fetchFailure(identifier, action, state, err)
		}
	}

	dec := o.classifier.Classify(snap, action, state)
	if !dec.Apply {
		o.logger.Info("event skipped",
			logger.String("identifier", identifier),
			logger.String("reason", dec.Reason))
		return Result{Status: StatusNoAction, Message: "No action required."}
	}

	identity := Identity{BookmarkID: identifier, Slug: identifier}
	if snap != nil {
		identity = Identity{BookmarkID: snap.ID, Slug: snap.Slug}
	}

	var doc *render.Document
	if dec.Intent == domain.IntentUpsert {
		var err error
		doc, err = o.renderer.Render(snap)
		if err != nil {
			// Classified as apply but unrenderable: a data problem,
			// not a skip.
			o.logger.Error("rendering failed",
				logger.String("identifier", identifier),
				logger.String("action", action),
				logger.Error(err))
			return Result{Status: StatusInvalid, Message: "Invalid article data."}
		}
	}

	existing, err := o.resolver.Resolve(ctx, identity)
	if err != nil {
		o.logger.Error("post resolution failed",
			logger.String("identifier", identifier),
			logger.String("action", action),
			logger.String("state", state),
			logger.Error(err))
		return Result{Status: StatusFailed, Message: "Internal Server Error"}
	}

	outcome, err := o.executor.Apply(ctx, existing, doc, dec.Intent, identity)
	if err != nil {
		o.logger.Error("mutation failed",
			logger.String("identifier", identifier),
			logger.String("action", action),
			logger.String("state", state),
			logger.Error(err))
		return Result{Status: StatusFailed, Message: "Internal Server Error"}
	}

	if outcome == OutcomeNothing {
		return Result{Status: StatusNoAction, Message: "No action required."}
	}
	return Result{Status: StatusApplied, Message: "Update processed successfully."}
}

func (o *Orchestrator) fetchFailure(identifier, action, state string, err error) Result {
	var remoteErr *source.RemoteQueryError
	var shapeErr *source.UnexpectedShapeError
	switch {
	case errors.As(err, &remoteErr):
		o.logger.Error("source service returned an error",
			logger.String("identifier", identifier),
			logger.String("action", action),
			logger.String("state", state),
			logger.Error(err))
	case errors.As(err, &shapeErr):
		o.logger.Error("source service response had an unexpected shape",
			logger.String("identifier", identifier),
			logger.String("action", action),
			logger.String("state", state),
			logger.Error(err))
	default:
		o.logger.Error("source service query failed",
			logger.String("identifier", identifier),
			logger.String("action", action),
			logger.String("state", state),
			logger.Error(err))
	}
	// No local retry in any case: redelivery is the webhook source's job.
	return Result{Status: StatusFailed, Message: "Internal Server Error"}
}
