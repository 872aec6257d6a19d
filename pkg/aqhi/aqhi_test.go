package aqhi

import "testing"

func TestGetRisk(t *testing.T) {
	tests := []struct {
		index float64
		want  Risk
	}{
		{index: 0.2, want: RiskLow},
		{index: 2.6, want: RiskLow},
		{index: 3.4, want: RiskLow},
		{index: 3.5, want: RiskModerate},
		{index: 6, want: RiskModerate},
		{index: 7, want: RiskHigh},
		{index: 10.4, want: RiskHigh},
		{index: 11, want: RiskVeryHigh},
	}

	for _, tt := range tests {
		if got := GetRisk(tt.index); got != tt.want {
			t.Errorf("GetRisk(%v) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestRiskLabel(t *testing.T) {
	if got := RiskModerate.Label("french"); got != "Risque modéré" {
		t.Errorf("Label(french) = %q", got)
	}
	if got := RiskHigh.Label("klingon"); got != "High Risk" {
		t.Errorf("Label(klingon) = %q, want English fallback", got)
	}
	if got := Risk("bogus").Label("english"); got != "" {
		t.Errorf("Label of unknown risk = %q, want empty", got)
	}
}

func TestGetColor(t *testing.T) {
	if got := GetColor(1); got != "#00ccff" {
		t.Errorf("GetColor(1) = %q", got)
	}
	if got := GetColor(12); got != "#660000" {
		t.Errorf("GetColor(12) = %q", got)
	}
	if got := GetColor(-3); got != "#00ccff" {
		t.Errorf("GetColor(-3) = %q, want lowest band", got)
	}
}
