package verdict

import (
	"strings"
	"testing"

	"github.com/okarpov/claimlens/internal/model"
)

func TestNormalizeEvidence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "hedging phrase marked",
			input: "The company plans to deploy the system in 2025.",
			want:  "The company [TENTATIVE: plans to] deploy the system in 2025.",
		},
		{
			name:  "modal verb marked",
			input: "The treatment may reduce symptoms.",
			want:  "The treatment [TENTATIVE: may] reduce symptoms.",
		},
		{
			name:  "case insensitive",
			input: "Reportedly, the merger closed in June.",
			want:  "[TENTATIVE: Reportedly], the merger closed in June.",
		},
		{
			name:  "no hedging untouched",
			input: "The Eiffel Tower was completed in 1889.",
			want:  "The Eiffel Tower was completed in 1889.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeEvidence(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeEvidence(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsAbsolutist(t *testing.T) {
	tests := []struct {
		claim string
		want  bool
	}{
		{"The system is officially deployed nationwide.", true},
		{"All customers received the update.", true},
		{"The tower never closes.", true},
		{"The tower is in Paris.", false},
		{"Overall sales grew last year.", false}, // "all" inside a word must not match
	}

	for _, tt := range tests {
		if got := IsAbsolutist(tt.claim); got != tt.want {
			t.Errorf("IsAbsolutist(%q) = %v, want %v", tt.claim, got, tt.want)
		}
	}
}

func TestEnforce(t *testing.T) {
	tests := []struct {
		name       string
		raw        rawVerdict
		absolutist bool
		wantStatus model.VerdictStatus
		wantConf   int
	}{
		{
			name:       "verified above floor stays verified",
			raw:        rawVerdict{Status: "verified", Confidence: 90, Reason: "direct match"},
			wantStatus: model.StatusVerified,
			wantConf:   90,
		},
		{
			name:       "verified below floor becomes hallucinated",
			raw:        rawVerdict{Status: "verified", Confidence: 80, Reason: "weak match"},
			wantStatus: model.StatusHallucinated,
			wantConf:   80,
		},
		{
			name:       "verified at floor stays verified",
			raw:        rawVerdict{Status: "verified", Confidence: 85},
			wantStatus: model.StatusVerified,
			wantConf:   85,
		},
		{
			name:       "absolutist claim needs the higher floor",
			raw:        rawVerdict{Status: "verified", Confidence: 87},
			absolutist: true,
			wantStatus: model.StatusHallucinated,
			wantConf:   87,
		},
		{
			name:       "absolutist claim at higher floor verified",
			raw:        rawVerdict{Status: "verified", Confidence: 90},
			absolutist: true,
			wantStatus: model.StatusVerified,
			wantConf:   90,
		},
		{
			name:       "partially verified becomes hallucinated",
			raw:        rawVerdict{Status: "partially_verified", Confidence: 95, Reason: "only the date matches"},
			wantStatus: model.StatusHallucinated,
			wantConf:   95,
		},
		{
			name:       "uncertain passes through",
			raw:        rawVerdict{Status: "uncertain", Confidence: 40},
			wantStatus: model.StatusUncertain,
			wantConf:   40,
		},
		{
			name:       "insufficient evidence maps to uncertain",
			raw:        rawVerdict{Status: "insufficient_evidence", Confidence: 10},
			wantStatus: model.StatusUncertain,
			wantConf:   10,
		},
		{
			name:       "unknown status defaults to hallucinated",
			raw:        rawVerdict{Status: "plausible", Confidence: 70},
			wantStatus: model.StatusHallucinated,
			wantConf:   70,
		},
		{
			name:       "confidence clamped low",
			raw:        rawVerdict{Status: "hallucinated", Confidence: -5},
			wantStatus: model.StatusHallucinated,
			wantConf:   0,
		},
		{
			name:       "confidence clamped high",
			raw:        rawVerdict{Status: "verified", Confidence: 400},
			wantStatus: model.StatusVerified,
			wantConf:   100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Enforce(tt.raw, tt.absolutist)
			if got.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.Status, tt.wantStatus)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("confidence = %d, want %d", got.Confidence, tt.wantConf)
			}
		})
	}
}

func TestEnforce_DowngradeReasonExplains(t *testing.T) {
	got := Enforce(rawVerdict{Status: "verified", Confidence: 60, Reason: "partial match"}, false)
	if !strings.Contains(got.Reason, "below the 85 floor") {
		t.Errorf("downgrade reason should name the floor: %q", got.Reason)
	}

	got = Enforce(rawVerdict{Status: "partially_verified", Confidence: 90, Reason: "date only"}, false)
	if !strings.Contains(got.Reason, "non-support") {
		t.Errorf("partial downgrade reason should explain the policy: %q", got.Reason)
	}
}

func TestEnforce_Deterministic(t *testing.T) {
	raw := rawVerdict{Status: "verified", Confidence: 92, Reason: "direct"}
	first := Enforce(raw, true)
	for i := 0; i < 5; i++ {
		if got := Enforce(raw, true); got != first {
			t.Fatalf("Enforce not deterministic: %+v vs %+v", got, first)
		}
	}
}
