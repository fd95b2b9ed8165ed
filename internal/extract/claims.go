// Package extract turns article prose into claim units and parses Wikipedia
// page HTML into paragraphs with their citation markers.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/sentences"
	"github.com/google/uuid"

	"github.com/wikilens/wikilens/internal/model"
)

// markerPattern matches inline citation markers like [1], [23], [a].
var markerPattern = regexp.MustCompile(`\[[a-zA-Z0-9]+\]`)

// claimNamespace seeds deterministic claim IDs: identical paragraph input
// always yields identical claims.
var claimNamespace = uuid.MustParse("8f3c6a70-1f2d-4c39-9f17-5a4b2d8e6c01")

// ClaimExtractor partitions a paragraph into claim units and attaches each
// citation marker to the claim whose span contains it.
type ClaimExtractor struct{}

// NewClaimExtractor creates a claim extractor.
func NewClaimExtractor() *ClaimExtractor {
	return &ClaimExtractor{}
}

// Extract splits the paragraph into claims, one per sentence, in paragraph
// order. The sentence spans tile the whole text; markers that UAX#29 pushes
// to the start of the following sentence are pulled back onto the sentence
// they cite.
func (e *ClaimExtractor) Extract(p *model.Paragraph) []model.Claim {
	spans := sentenceSpans(p.Text)
	spans = reattachLeadingMarkers(p.Text, spans)

	claims := make([]model.Claim, 0, len(spans))
	for _, span := range spans {
		start, end := trimSpan(p.Text, span.start, span.end)
		if start >= end {
			continue
		}
		text := p.Text[start:end]

		claim := model.Claim{
			ID:    uuid.NewSHA1(claimNamespace, []byte(fmt.Sprintf("%d:%s", start, text))).String(),
			Text:  text,
			Start: start,
			End:   end,
		}

		for _, c := range p.Citations {
			if c.Start >= start && c.Start < end {
				claim.Citations = append(claim.Citations, c.Key)
				if c.URL != "" && !containsString(claim.URLs, c.URL) {
					claim.URLs = append(claim.URLs, c.URL)
				}
			}
		}
		claims = append(claims, claim)
	}
	return claims
}

type span struct{ start, end int }

// sentenceSpans segments text into UAX#29 sentences. Segments tile the input,
// so cumulative lengths give exact byte offsets.
func sentenceSpans(text string) []span {
	var spans []span
	pos := 0
	seg := sentences.FromString(text)
	for seg.Next() {
		s := seg.Value()
		spans = append(spans, span{start: pos, end: pos + len(s)})
		pos += len(s)
	}
	return spans
}

// reattachLeadingMarkers extends a span over any citation markers that begin
// the following span. Wikipedia places markers directly after the sentence
// terminator, which sentence segmentation can split off.
func reattachLeadingMarkers(text string, spans []span) []span {
	for i := 1; i < len(spans); i++ {
		rest := text[spans[i].start:spans[i].end]
		trimmed := strings.TrimLeft(rest, " \t")
		lead := len(rest) - len(trimmed)

		consumed := 0
		for {
			loc := markerPattern.FindStringIndex(trimmed[consumed:])
			if loc == nil || loc[0] != 0 {
				break
			}
			consumed += loc[1]
		}
		if consumed == 0 {
			continue
		}

		cut := spans[i].start + lead + consumed
		spans[i-1].end = cut
		spans[i].start = cut
	}
	return spans
}

func trimSpan(text string, start, end int) (int, int) {
	for start < end && unicode.IsSpace(rune(text[start])) {
		start++
	}
	for end > start && unicode.IsSpace(rune(text[end-1])) {
		end--
	}
	return start, end
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
