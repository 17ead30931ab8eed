package release

import (
	"regexp"

	"github.com/hbollon/go-edlib"
)

var numberRe = regexp.MustCompile(`\b\d+\b`)

// Confidence grades a title similarity score.
type Confidence int

const (
	ConfidenceNone   Confidence = iota // score < 0.70
	ConfidenceLow                      // score >= 0.70
	ConfidenceMedium                   // score >= 0.85
	ConfidenceHigh                     // score >= 0.95
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// ParseConfidence converts a level name back into a Confidence.
func ParseConfidence(s string) (Confidence, bool) {
	for _, c := range []Confidence{ConfidenceNone, ConfidenceLow, ConfidenceMedium, ConfidenceHigh} {
		if c.String() == s {
			return c, true
		}
	}
	return ConfidenceNone, false
}

func confidenceOf(score float64) Confidence {
	switch {
	case score >= 0.95:
		return ConfidenceHigh
	case score >= 0.85:
		return ConfidenceMedium
	case score >= 0.70:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// Match is the similarity between a query and one title.
type Match struct {
	Title      string
	Score      float64 // 0.0 - 1.0
	Confidence Confidence
}

// Compare scores title against query with Jaro-Winkler similarity on the
// cleaned forms. Sequel numbers must agree: "Rocky 2" does not match "Rocky 3".
func Compare(query, title string) Match {
	q, t := CleanTitle(query), CleanTitle(title)
	score := float64(edlib.JaroWinklerSimilarity(q, t))
	score = adjustForNumbers(score, numberRe.FindAllString(q, -1), numberRe.FindAllString(t, -1))
	return Match{Title: title, Score: score, Confidence: confidenceOf(score)}
}

// Best returns the candidate most similar to query. A result with
// ConfidenceNone has an empty Title.
func Best(query string, candidates []string) Match {
	var best Match
	for _, c := range candidates {
		if m := Compare(query, c); m.Score > best.Score {
			best = m
		}
	}
	if best.Confidence == ConfidenceNone {
		best.Title = ""
	}
	return best
}

func adjustForNumbers(score float64, queryNums, titleNums []string) float64 {
	if len(queryNums) == 0 {
		return score
	}
	if len(titleNums) == 0 {
		return score * 0.85
	}
	have := make(map[string]bool, len(titleNums))
	for _, n := range titleNums {
		have[n] = true
	}
	for _, n := range queryNums {
		if have[n] {
			return min(score*1.05, 1.0)
		}
	}
	return score * 0.90
}
