// Package status maps community scores to the categorical labels shown in
// lists and to the score ranges used by the status filter.
//
// Scores run from 0 to 10 with one decimal. A score of exactly 0 means no
// rating has been submitted yet.
//
//	0.0        not tested
//	0.1 - 3.9  unusable
//	4.0 - 5.9  bronze
//	6.0 - 8.4  silver
//	8.5 - 10   gold
package status

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/plexus/internal/store"
)

// Chip is a status filter selection.
type Chip string

const (
	ChipAny       Chip = "any"
	ChipNotTested Chip = "not_tested"
	ChipUnusable  Chip = "unusable"
	ChipBronze    Chip = "bronze"
	ChipSilver    Chip = "silver"
	ChipGold      Chip = "gold"
)

// Chips lists every valid chip in display order.
var Chips = []Chip{ChipAny, ChipNotTested, ChipUnusable, ChipBronze, ChipSilver, ChipGold}

// Labels for the score bands.
const (
	LabelNotTested = "Not tested"
	LabelUnusable  = "Unusable"
	LabelBronze    = "Bronze"
	LabelSilver    = "Silver"
	LabelGold      = "Gold"
)

// Band boundaries. Scores are truncated to one decimal, so the upper bound
// of each band is the next lower bound minus 0.1.
const (
	bronzeFrom = 4.0
	silverFrom = 6.0
	goldFrom   = 8.5
	maxScore   = 10.0
)

// Label returns the label for a 0-10 score.
func Label(score float64) string {
	switch {
	case score <= 0:
		return LabelNotTested
	case score < bronzeFrom:
		return LabelUnusable
	case score < silverFrom:
		return LabelBronze
	case score < goldFrom:
		return LabelSilver
	default:
		return LabelGold
	}
}

// Range returns the inclusive score range a chip selects. ChipAny and unknown
// chips return store.AnyScore.
func Range(c Chip) store.ScoreRange {
	switch c {
	case ChipNotTested:
		return store.ScoreRange{From: 0, To: 0}
	case ChipUnusable:
		return store.ScoreRange{From: 0.1, To: bronzeFrom - 0.1}
	case ChipBronze:
		return store.ScoreRange{From: bronzeFrom, To: silverFrom - 0.1}
	case ChipSilver:
		return store.ScoreRange{From: silverFrom, To: goldFrom - 0.1}
	case ChipGold:
		return store.ScoreRange{From: goldFrom, To: maxScore}
	default:
		return store.AnyScore
	}
}

// ParseChip validates a chip name, accepting either case.
func ParseChip(s string) (Chip, error) {
	c := Chip(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Chips {
		if c == valid {
			return c, nil
		}
	}
	return ChipAny, fmt.Errorf("unknown status %q (want one of %s)", s, chipList())
}

func chipList() string {
	names := make([]string, len(Chips))
	for i, c := range Chips {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// RatingLabel returns the label for a single submitted rating (1-4).
func RatingLabel(score int) string {
	switch score {
	case 1:
		return LabelUnusable
	case 2:
		return LabelBronze
	case 3:
		return LabelSilver
	case 4:
		return LabelGold
	default:
		return LabelNotTested
	}
}

// GoogleLibLabel returns the display name of the Google library a rating was
// submitted under.
func GoogleLibLabel(lib string) string {
	switch lib {
	case "native":
		return "de-Googled"
	case "micro_g":
		return "microG"
	default:
		return lib
	}
}
