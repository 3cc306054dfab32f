package ctxpress

import (
	"errors"
	"testing"
)

func TestNewPolicy_Defaults(t *testing.T) {
	p, err := NewPolicy(Policy{PreserveSystem: true, EnableSummarization: true})
	if err != nil {
		t.Fatalf("NewPolicy failed: %v", err)
	}

	if p.Strategy != StrategyAuto {
		t.Errorf("Strategy = %q, want %q", p.Strategy, StrategyAuto)
	}
	if p.TriggerThreshold != DefaultTriggerThreshold {
		t.Errorf("TriggerThreshold = %g, want %g", p.TriggerThreshold, DefaultTriggerThreshold)
	}
	if p.TargetRatio != DefaultTargetRatio {
		t.Errorf("TargetRatio = %g, want %g", p.TargetRatio, DefaultTargetRatio)
	}
	if p.PreserveRecent != DefaultPreserveRecent {
		t.Errorf("PreserveRecent = %d, want %d", p.PreserveRecent, DefaultPreserveRecent)
	}
	if p.MaxTokens != 0 {
		t.Errorf("MaxTokens = %d, want 0 (derive from model limits)", p.MaxTokens)
	}
}

func TestPolicy_Validate(t *testing.T) {
	valid := Policy{
		Strategy:            StrategyTrim,
		MaxTokens:           1000,
		TriggerThreshold:    0.8,
		TargetRatio:         0.5,
		PreserveRecent:      5,
		PreserveSystem:      true,
		EnableSummarization: true,
	}

	tests := []struct {
		name    string
		mutate  func(*Policy)
		wantErr error
	}{
		{
			name:   "valid policy",
			mutate: func(p *Policy) {},
		},
		{
			name:    "unknown strategy",
			mutate:  func(p *Policy) { p.Strategy = "compactify" },
			wantErr: ErrInvalidPolicy,
		},
		{
			name:    "negative max tokens",
			mutate:  func(p *Policy) { p.MaxTokens = -1 },
			wantErr: ErrInvalidPolicy,
		},
		{
			name:    "zero trigger threshold",
			mutate:  func(p *Policy) { p.TriggerThreshold = 0 },
			wantErr: ErrInvalidPolicy,
		},
		{
			name:    "trigger threshold above one",
			mutate:  func(p *Policy) { p.TriggerThreshold = 1.5 },
			wantErr: ErrInvalidPolicy,
		},
		{
			name:    "target ratio of one",
			mutate:  func(p *Policy) { p.TargetRatio = 1.0 },
			wantErr: ErrInvalidPolicy,
		},
		{
			name:    "negative preserve recent",
			mutate:  func(p *Policy) { p.PreserveRecent = -2 },
			wantErr: ErrInvalidPolicy,
		},
		{
			name: "summarize without summarization enabled",
			mutate: func(p *Policy) {
				p.Strategy = StrategySummarize
				p.EnableSummarization = false
			},
			wantErr: ErrSummarizationRequired,
		},
		{
			name: "smart without summarization enabled",
			mutate: func(p *Policy) {
				p.Strategy = StrategySmart
				p.EnableSummarization = false
			},
			wantErr: ErrSummarizationRequired,
		},
		{
			name: "trim without summarization is fine",
			mutate: func(p *Policy) {
				p.Strategy = StrategyTrim
				p.EnableSummarization = false
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want errors.Is(%v)", err, tt.wantErr)
			}
		})
	}
}

func TestPolicy_TargetTokens(t *testing.T) {
	p := Policy{MaxTokens: 1000, TargetRatio: 0.5}
	if got := p.TargetTokens(); got != 500 {
		t.Errorf("TargetTokens() = %d, want 500", got)
	}
}

func TestNewPolicy_InvalidFailsConstruction(t *testing.T) {
	_, err := NewPolicy(Policy{
		Strategy:            StrategySmart,
		EnableSummarization: false,
		PreserveSystem:      true,
	})
	if !errors.Is(err, ErrSummarizationRequired) {
		t.Fatalf("NewPolicy error = %v, want ErrSummarizationRequired", err)
	}
}
