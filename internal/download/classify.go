package download

import "strings"

// LineKind categorizes a line of download agent output for operators.
type LineKind int

const (
	// LineOther is output that matches no category; it is not reported.
	LineOther LineKind = iota
	// LineStatus is an overall download status line.
	LineStatus
	// LinePiece is a piece-level transfer line.
	LinePiece
	// LinePercent is any other line carrying a percentage.
	LinePercent
)

func (k LineKind) String() string {
	switch k {
	case LineStatus:
		return "status"
	case LinePiece:
		return "piece"
	case LinePercent:
		return "percent"
	default:
		return "other"
	}
}

// Classify maps an output line to its category. Categories are checked in
// priority order: status, piece, percent.
func Classify(line string) LineKind {
	switch {
	case strings.Contains(line, "Downloading"):
		return LineStatus
	case strings.Contains(line, "Piece"):
		return LinePiece
	case strings.Contains(line, "%"):
		return LinePercent
	default:
		return LineOther
	}
}
