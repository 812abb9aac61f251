package record

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"approved", StatusApproved},
		{"APPROVED", StatusApproved},
		{"  Pending ", StatusPending},
		{"denied", StatusDenied},
		{"peer_to_peer_required", StatusPeerToPeerRequired},
		{"additional_info_required", StatusAdditionalInfo},
		{"unknown", StatusUnknown},
		{"", StatusUnknown},
		{"authorized", StatusUnknown},
		{"approved!", StatusUnknown},
	}

	for _, tt := range tests {
		if got := ParseStatus(tt.raw); got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParseOutcome(t *testing.T) {
	tests := []struct {
		raw  string
		want Outcome
	}{
		{"success", OutcomeSuccess},
		{"Partial", OutcomePartial},
		{"failed", OutcomeFailed},
		{"disconnected", OutcomeDisconnected},
		{"", OutcomeFailed},
		{"complete", OutcomeFailed},
	}

	for _, tt := range tests {
		if got := ParseOutcome(tt.raw); got != tt.want {
			t.Errorf("ParseOutcome(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
