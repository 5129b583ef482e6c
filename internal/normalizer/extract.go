package normalizer

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Source records which extraction rule produced the JSON candidate.
type Source string

const (
	SourceDirect Source = "direct"
	SourceFenced Source = "fenced"
	SourceBraces Source = "braces"
	SourceRaw    Source = "raw"
)

// jsonFence matches the first ```json block up to its closing fence, or to the
// end of the text when the block is never closed.
var jsonFence = regexp.MustCompile("(?is)```json(.*?)(?:```|\\z)")

// ExtractCandidate locates the JSON payload inside a model reply. A reply that
// is already a well-formed object is used as is, so fences quoted inside its
// string values are not mistaken for the payload. Otherwise the first matching
// rule wins: a json-tagged fence, then the greedy span from the first '{' to
// the last '}', then the whole text.
func ExtractCandidate(reply string) (string, Source) {
	if trimmed := strings.TrimSpace(reply); strings.HasPrefix(trimmed, "{") && gjson.Valid(trimmed) {
		return trimmed, SourceDirect
	}

	if m := jsonFence.FindStringSubmatch(reply); m != nil {
		return strings.TrimSpace(m[1]), SourceFenced
	}

	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start >= 0 && end > start {
		return reply[start : end+1], SourceBraces
	}

	return reply, SourceRaw
}
