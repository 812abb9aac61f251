package record

import "strings"

// Status is the authorization status reported by the payer. It is a closed
// set: ParseStatus maps anything unrecognized to StatusUnknown.
type Status string

const (
	StatusPending            Status = "pending"
	StatusApproved           Status = "approved"
	StatusDenied             Status = "denied"
	StatusPeerToPeerRequired Status = "peer_to_peer_required"
	StatusAdditionalInfo     Status = "additional_info_required"
	StatusUnknown            Status = "unknown"
)

var statusValues = map[string]Status{
	"pending":                  StatusPending,
	"approved":                 StatusApproved,
	"denied":                   StatusDenied,
	"peer_to_peer_required":    StatusPeerToPeerRequired,
	"additional_info_required": StatusAdditionalInfo,
	"unknown":                  StatusUnknown,
}

// ParseStatus is total: it never fails. The raw string should be kept by the
// caller for audit when the mapping falls through to StatusUnknown.
func ParseStatus(raw string) Status {
	if s, ok := statusValues[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return StatusUnknown
}

// Outcome is the coarse classification of whether the call achieved its
// objective.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomePartial      Outcome = "partial"
	OutcomeFailed       Outcome = "failed"
	OutcomeDisconnected Outcome = "disconnected"
)

var outcomeValues = map[string]Outcome{
	"success":      OutcomeSuccess,
	"partial":      OutcomePartial,
	"failed":       OutcomeFailed,
	"disconnected": OutcomeDisconnected,
}

// ParseOutcome is total; unrecognized input maps to OutcomeFailed.
func ParseOutcome(raw string) Outcome {
	if o, ok := outcomeValues[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return o
	}
	return OutcomeFailed
}
