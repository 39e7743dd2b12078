package status

import (
	"testing"

	"github.com/blackwell-systems/plexus/internal/store"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, LabelNotTested},
		{0.1, LabelUnusable},
		{3.9, LabelUnusable},
		{4.0, LabelBronze},
		{5.9, LabelBronze},
		{6.0, LabelSilver},
		{8.4, LabelSilver},
		{8.5, LabelGold},
		{10, LabelGold},
	}

	for _, tt := range tests {
		if got := Label(tt.score); got != tt.want {
			t.Errorf("Label(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

// TestRangeMatchesLabel verifies every chip range only contains scores that
// Label maps back to the same band.
func TestRangeMatchesLabel(t *testing.T) {
	chipLabel := map[Chip]string{
		ChipNotTested: LabelNotTested,
		ChipUnusable:  LabelUnusable,
		ChipBronze:    LabelBronze,
		ChipSilver:    LabelSilver,
		ChipGold:      LabelGold,
	}

	for chip, label := range chipLabel {
		r := Range(chip)
		if r.IsAny() {
			t.Fatalf("Range(%s) should not be the any sentinel", chip)
		}
		// Walk the range in one-decimal steps, the resolution scores are stored at.
		for tenths := int(r.From*10 + 0.5); tenths <= int(r.To*10+0.5); tenths++ {
			score := float64(tenths) / 10
			if got := Label(score); got != label {
				t.Errorf("Range(%s) contains %v labelled %q, want %q", chip, score, got, label)
			}
		}
	}
}

func TestRangeAny(t *testing.T) {
	if got := Range(ChipAny); got != store.AnyScore {
		t.Errorf("Range(any) = %+v, want AnyScore", got)
	}
	if got := Range(Chip("bogus")); got != store.AnyScore {
		t.Errorf("Range(bogus) = %+v, want AnyScore", got)
	}
}

func TestParseChip(t *testing.T) {
	tests := []struct {
		in      string
		want    Chip
		wantErr bool
	}{
		{"gold", ChipGold, false},
		{" Silver ", ChipSilver, false},
		{"NOT_TESTED", ChipNotTested, false},
		{"platinum", ChipAny, true},
	}

	for _, tt := range tests {
		got, err := ParseChip(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseChip(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseChip(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRatingLabel(t *testing.T) {
	tests := map[int]string{
		0: LabelNotTested,
		1: LabelUnusable,
		2: LabelBronze,
		3: LabelSilver,
		4: LabelGold,
		9: LabelNotTested,
	}
	for score, want := range tests {
		if got := RatingLabel(score); got != want {
			t.Errorf("RatingLabel(%d) = %q, want %q", score, got, want)
		}
	}
}

func TestGoogleLibLabel(t *testing.T) {
	if got := GoogleLibLabel("native"); got != "de-Googled" {
		t.Errorf("GoogleLibLabel(native) = %q", got)
	}
	if got := GoogleLibLabel("micro_g"); got != "microG" {
		t.Errorf("GoogleLibLabel(micro_g) = %q", got)
	}
	if got := GoogleLibLabel("other"); got != "other" {
		t.Errorf("GoogleLibLabel(other) = %q", got)
	}
}
