// Package processor runs the post-call pipeline: extract entities from the
// transcript, build and validate the record, persist it, then fan out
// best-effort notifications.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/payerline/postcall/internal/extractor"
	"github.com/payerline/postcall/internal/index"
	"github.com/payerline/postcall/internal/notifier"
	"github.com/payerline/postcall/internal/record"
	"github.com/payerline/postcall/internal/storage"
	"github.com/payerline/postcall/internal/validator"
)

// priorAuthKeywords gates processing: a transcript mentioning at least three
// of these is treated as a prior authorization call.
var priorAuthKeywords = []string{
	"prior authorization",
	"prior auth",
	"authorization request",
	"cpt code",
	"medical necessity",
	"authorization number",
	"reference number",
}

// CallCompletedEvent is the trigger payload consumed from the message bus.
type CallCompletedEvent struct {
	CallID     string              `json:"call_id"`
	AgentRole  string              `json:"agent_role,omitempty"`
	Transcript []string            `json:"transcript"`
	Metadata   record.CaseMetadata `json:"metadata"`
}

type Processor struct {
	extractor *extractor.Extractor
	validator *validator.Validator
	store     *storage.Store
	notify    *notifier.Client
	idx       *index.Index
	subject   string
	logger    *slog.Logger
}

// New wires the pipeline. notify and idx may be nil; those stages are then
// skipped.
func New(ext *extractor.Extractor, val *validator.Validator, store *storage.Store, notify *notifier.Client, idx *index.Index, notifySubject string, logger *slog.Logger) *Processor {
	return &Processor{
		extractor: ext,
		validator: val,
		store:     store,
		notify:    notify,
		idx:       idx,
		subject:   notifySubject,
		logger:    logger,
	}
}

// ProcessCall runs the full pipeline for one completed call. Extraction and
// validation cannot fail; only a missing call id or a storage failure
// propagates. Notification and indexing failures are logged and swallowed.
func (p *Processor) ProcessCall(ctx context.Context, callID string, transcript []string, meta record.CaseMetadata) (*record.Record, string, error) {
	if strings.TrimSpace(callID) == "" {
		return nil, "", fmt.Errorf("process call: empty call id")
	}

	runID := uuid.NewString()
	p.logger.Info("processing completed call", "run_id", runID, "call_id", callID, "turns", len(transcript))

	entities := p.extractor.Extract(ctx, transcript, callID)
	rec := record.Build(callID, transcript, entities, meta)
	p.validator.Validate(rec)

	path, err := p.store.Save(rec, false)
	if err != nil {
		return nil, "", fmt.Errorf("save record %s: %w", callID, err)
	}

	p.logResults(rec, path)

	if p.notify != nil {
		if err := p.notify.PublishRecord(p.subject, rec, path); err != nil {
			p.logger.Error("failed to publish record event", "call_id", callID, "error", err)
		}
	}
	if p.idx != nil {
		if err := p.idx.RecordSaved(ctx, rec, path); err != nil {
			p.logger.Error("failed to index record", "call_id", callID, "error", err)
		}
	}

	return rec, path, nil
}

// ShouldProcess reports whether a call looks like a prior authorization call,
// either from the agent role hint or from transcript keyword density.
func ShouldProcess(transcript []string, agentRole string) bool {
	role := strings.ToLower(agentRole)
	if strings.Contains(role, "prior") || strings.Contains(role, "authorization") {
		return true
	}

	text := strings.ToLower(strings.Join(transcript, " "))
	matches := 0
	for _, kw := range priorAuthKeywords {
		if strings.Contains(text, kw) {
			matches++
		}
	}
	return matches >= 3
}

// HandleCallCompleted is the message-bus entrypoint. Malformed payloads and
// non-prior-auth calls are logged and dropped, never retried.
func (p *Processor) HandleCallCompleted(ctx context.Context) func(subject string, data []byte) {
	return func(subject string, data []byte) {
		var event CallCompletedEvent
		if err := json.Unmarshal(data, &event); err != nil {
			p.logger.Error("malformed call event", "subject", subject, "error", err)
			return
		}
		if !ShouldProcess(event.Transcript, event.AgentRole) {
			p.logger.Info("call is not a prior authorization call, skipping", "call_id", event.CallID)
			return
		}
		if _, _, err := p.ProcessCall(ctx, event.CallID, event.Transcript, event.Metadata); err != nil {
			p.logger.Error("failed to process call", "call_id", event.CallID, "error", err)
		}
	}
}

func (p *Processor) logResults(rec *record.Record, path string) {
	p.logger.Info("prior auth call processed",
		"call_id", rec.CallID,
		"status", rec.Authorization.Status,
		"outcome", rec.CallOutcome,
		"auth_number", rec.Authorization.AuthorizationNumber,
		"reference_number", rec.Authorization.ReferenceNumber,
		"path", path,
	)
	if len(rec.MissingFields) > 0 {
		p.logger.Warn("record has missing fields",
			"call_id", rec.CallID,
			"count", len(rec.MissingFields),
			"fields", strings.Join(rec.MissingFields, ", "),
		)
	}
	for _, e := range rec.ValidationErrors {
		p.logger.Error("validation error", "call_id", rec.CallID, "error", e)
	}
	for _, w := range rec.ValidationWarnings {
		p.logger.Warn("validation warning", "call_id", rec.CallID, "warning", w)
	}
}
