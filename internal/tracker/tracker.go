// Package tracker is the reconciliation core: it recovers an in-flight
// pipeline's identity from the state store, merges a new step observation,
// and decides whether to talk to Discord. Every public operation runs in a
// fresh short-lived process, so each one reloads state from the store before
// mutating anything — the file is the only memory this tool has.
package tracker

import (
	"errors"
	"fmt"
	"log"

	"github.com/deliverybot/discord-tracker/internal/discord"
	"github.com/deliverybot/discord-tracker/internal/message"
	"github.com/deliverybot/discord-tracker/internal/pipeline"
	"github.com/deliverybot/discord-tracker/internal/storage"
)

// Tracker orchestrates the state store and the remote notifier. Local state
// always wins over notification freshness: a step is saved before Discord
// hears about it, and a failed save suppresses the remote call entirely.
type Tracker struct {
	store    storage.Store
	notifier discord.Notifier
}

// New creates a tracker over the given store and notifier
func New(store storage.Store, notifier discord.Notifier) *Tracker {
	return &Tracker{store: store, notifier: notifier}
}

// Init starts tracking a new pipeline: builds fresh state, tries to send
// the "pipeline started" message, and saves. Both the send and the save are
// best-effort — observability must never fail the pipeline it observes — so
// Init only errors on invalid input, never on remote or storage trouble.
// It returns the created Discord message id, empty if the send failed.
func (t *Tracker) Init(prNumber int, prTitle, author, repository, branch string) (string, error) {
	state := pipeline.NewPipelineState(prNumber, prTitle, author, repository, branch)
	if err := storage.ValidateWith(t.store, state); err != nil {
		return "", err
	}

	messageID, err := t.notifier.Send(message.BuildInit(state))
	if err != nil {
		logRemoteFailure("send pipeline start message", err)
	} else {
		state.MessageID = messageID
	}

	if err := t.store.Save(state); err != nil {
		log.Printf("[Tracker] Warning: failed to save initial state: %v", err)
	}
	return state.MessageID, nil
}

// UpdateStep merges one step observation into the persisted pipeline.
// Input validation happens before any I/O; everything after it degrades
// gracefully. The save always precedes the remote edit, and a failed save
// skips the edit for this invocation.
func (t *Tracker) UpdateStep(number, total int, name, status string, info []pipeline.InfoPair) error {
	if err := pipeline.ValidateStepNumber(number, total); err != nil {
		return err
	}
	stepStatus, err := pipeline.ParseStatus(status)
	if err != nil {
		return err
	}

	// Reload from the store even if this process thinks it knows the
	// state: a concurrent or earlier invocation may have recorded steps
	// this one never saw.
	state, err := t.store.Load()
	if err != nil {
		log.Printf("[Tracker] Warning: failed to load state, skipping update: %v", err)
		return nil
	}
	if state == nil {
		log.Printf("[Tracker] Warning: no pipeline initialized in this directory; run init first. Step %d (%s) not recorded.", number, name)
		return nil
	}

	state.ApplyStep(number, name, stepStatus, info)

	if err := storage.ValidateWith(t.store, state); err != nil {
		log.Printf("[Tracker] Warning: merged state failed validation, skipping save and remote update: %v", err)
		return nil
	}
	if err := t.store.Save(state); err != nil {
		log.Printf("[Tracker] Warning: failed to save state, skipping remote update: %v", err)
		return nil
	}

	if state.MessageID == "" {
		log.Printf("[Tracker] Warning: no tracked message to edit (initial send failed?); step recorded locally only")
		return nil
	}
	if err := t.notifier.Update(state.MessageID, message.BuildProgress(state, number, total)); err != nil {
		logRemoteFailure(fmt.Sprintf("update message for step %d", number), err)
	}
	return nil
}

// Complete renders the final summary, edits the tracked message, and clears
// the state file so the next pipeline in this directory starts clean. The
// clear runs regardless of the edit outcome.
func (t *Tracker) Complete() error {
	state, err := t.store.Load()
	if err != nil {
		log.Printf("[Tracker] Warning: failed to load state for completion: %v", err)
	}

	if state != nil && state.MessageID != "" {
		msg := message.BuildCompletion(state, state.Elapsed())
		if err := t.notifier.Update(state.MessageID, msg); err != nil {
			logRemoteFailure("send completion update", err)
		}
	} else if state == nil {
		log.Printf("[Tracker] Warning: no pipeline state found; nothing to summarize")
	}

	if err := t.store.Clear(); err != nil {
		log.Printf("[Tracker] Warning: failed to clear state: %v", err)
	}
	return nil
}

// Fail records a terminal pipeline failure as a single-step pipeline with
// the error message attached
func (t *Tracker) Fail(stepName, errorMessage string) error {
	info := []pipeline.InfoPair{{"error", errorMessage}}
	return t.UpdateStep(1, 1, stepName, string(pipeline.StatusFailed), info)
}

// logRemoteFailure downgrades a Discord failure to a warning, with
// actionable guidance when the failure class is known
func logRemoteFailure(operation string, err error) {
	var apiErr *discord.APIError
	if errors.As(err, &apiErr) {
		log.Printf("[Tracker] Warning: failed to %s: %v (%s)", operation, err, apiErr.Guidance())
		return
	}
	log.Printf("[Tracker] Warning: failed to %s: %v", operation, err)
}
