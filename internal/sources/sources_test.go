package sources

import "testing"

func TestField(t *testing.T) {
	f := NewField("Temperature", 21.5, "C")
	if v, ok := f.Get(); !ok || v != 21.5 {
		t.Fatalf("Get() = %v, %v; want 21.5, true", v, ok)
	}

	c := f.Clone()
	*c.Value = 0
	if *f.Value != 21.5 {
		t.Error("Clone() shares its value with the original")
	}

	var absent Field[float64]
	if absent.Present() {
		t.Error("zero Field reports present")
	}
	if _, ok := absent.Get(); ok {
		t.Error("Get() on absent field returned ok")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		wantNil bool
		want    float64
	}{
		{in: "12.4", want: 12.4},
		{in: " -3 ", want: -3},
		{in: "", wantNil: true},
		{in: "NA", wantNil: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseFloat(tt.in)
			if tt.wantNil {
				if got != nil {
					t.Errorf("ParseFloat(%q) = %v, want nil", tt.in, *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("ParseFloat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if ParseInt("7") == nil || *ParseInt("7") != 7 {
		t.Error("ParseInt(7) failed")
	}
	if ParseInt("7.5") != nil {
		t.Error("ParseInt(7.5) should be absent")
	}
	if Text("  ") != nil {
		t.Error("Text of blank string should be absent")
	}
}

func TestLanguage(t *testing.T) {
	tests := []struct {
		in     string
		want   Language
		abbr   string
		letter string
	}{
		{in: "", want: English, abbr: "EN", letter: "e"},
		{in: "English", want: English, abbr: "EN", letter: "e"},
		{in: "fr", want: French, abbr: "FR", letter: "f"},
		{in: "french", want: French, abbr: "FR", letter: "f"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLanguage(tt.in)
			if err != nil {
				t.Fatalf("ParseLanguage(%q) error = %v", tt.in, err)
			}
			if got != tt.want || got.Abbr() != tt.abbr || got.Letter() != tt.letter {
				t.Errorf("ParseLanguage(%q) = %v (%s, %s)", tt.in, got, got.Abbr(), got.Letter())
			}
		})
	}

	if _, err := ParseLanguage("klingon"); err == nil {
		t.Error("ParseLanguage(klingon) should fail")
	}
}
