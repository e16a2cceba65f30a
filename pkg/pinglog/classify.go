package pinglog

import (
	"regexp"
	"strconv"
	"strings"
)

// LineKind is the classification of a single capture line.
type LineKind int

const (
	// KindInert is a line matching neither recognizer.
	KindInert LineKind = iota
	// KindReply is a reply line carrying a time=<N>ms field.
	KindReply
	// KindReplyNoTime is a reply line without a usable time field.
	KindReplyNoTime
	// KindSummary is a packet summary line whose four fields parsed.
	KindSummary
	// KindSummaryPartial has the summary prefix but not the full field layout.
	KindSummaryPartial
)

// String returns the kind name used in diagnostics.
func (k LineKind) String() string {
	switch k {
	case KindReply:
		return "reply"
	case KindReplyNoTime:
		return "reply-no-time"
	case KindSummary:
		return "summary"
	case KindSummaryPartial:
		return "summary-partial"
	default:
		return "inert"
	}
}

const (
	replyPrefix   = "Reply"
	summaryPrefix = "    Packets: "
)

var (
	timePattern    = regexp.MustCompile(`time=(\d+)ms`)
	summaryPattern = regexp.MustCompile(`Packets: Sent = (\d+), Received = (\d+), Lost = (\d+) \((\d+\.?\d*)% loss\)`)
)

// Line is a classified capture line with whatever fields it yielded.
type Line struct {
	Kind    LineKind
	Sample  Sample
	Summary PacketSummary
}

// Classify recognizes one line. A trailing carriage return is ignored.
// Lines whose numbers do not fit an int are downgraded to the matching
// no-time or partial kind.
func Classify(line string) Line {
	line = strings.TrimSuffix(line, "\r")

	if strings.HasPrefix(line, replyPrefix) {
		return classifyReply(line)
	}
	if strings.HasPrefix(line, summaryPrefix) {
		return classifySummary(line)
	}
	return Line{Kind: KindInert}
}

func classifyReply(line string) Line {
	m := timePattern.FindStringSubmatch(line)
	if m == nil {
		return Line{Kind: KindReplyNoTime}
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return Line{Kind: KindReplyNoTime}
	}
	return Line{Kind: KindReply, Sample: Sample(v)}
}

func classifySummary(line string) Line {
	m := summaryPattern.FindStringSubmatch(line)
	if m == nil {
		return Line{Kind: KindSummaryPartial}
	}

	var counts [3]int
	for i := range counts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Line{Kind: KindSummaryPartial}
		}
		counts[i] = n
	}
	pct, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return Line{Kind: KindSummaryPartial}
	}

	return Line{
		Kind: KindSummary,
		Summary: PacketSummary{
			Sent:           counts[0],
			Received:       counts[1],
			Lost:           counts[2],
			LostPercentage: pct,
		},
	}
}
