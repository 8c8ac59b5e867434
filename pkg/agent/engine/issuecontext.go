package engine

import (
	"strings"

	"issue-agent-be/pkg/agent/state"
)

// Section markers - the webhook relay embeds structured issue context into the
// external input using these.
const (
	SectionDescription    = "ISSUE_DESCRIPTION:"
	SectionComments       = "ISSUE_COMMENTS:"
	SectionRequiredParams = "REQUIRED_PARAMS:"
)

// ContextKeyDescription is where the issue description lands in issue context.
const ContextKeyDescription = "description"

// ParseIssueContext extracts structured context from external input:
//
//   - "ISSUE_DESCRIPTION: ..." captured up to the next section marker or end
//     of string, stored under the "description" key.
//   - "ISSUE_COMMENTS:" followed by lines, each split on its first colon into
//     a key/value pair.
//   - "REQUIRED_PARAMS: a,b,c" seeds every listed name not already present in
//     existing context (or extracted in this call) with the needs-elicitation
//     sentinel.
//
// existing is only consulted, never mutated; the caller merges the returned
// map into session state (new keys win on conflict).
func ParseIssueContext(input string, existing map[string]string) map[string]string {
	extracted := map[string]string{}

	if desc, ok := section(input, SectionDescription); ok {
		extracted[ContextKeyDescription] = desc
	}

	if comments, ok := section(input, SectionComments); ok {
		for _, line := range strings.Split(comments, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			colon := strings.Index(line, ":")
			if colon <= 0 {
				continue
			}
			key := strings.TrimSpace(line[:colon])
			value := strings.TrimSpace(line[colon+1:])
			if key != "" {
				extracted[key] = value
			}
		}
	}

	if params, ok := section(input, SectionRequiredParams); ok {
		for _, name := range strings.Split(params, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, have := existing[name]; have {
				continue
			}
			if _, have := extracted[name]; have {
				continue
			}
			extracted[name] = state.NeedsElicitation
		}
	}

	return extracted
}

// section returns the text between marker and the next section marker (or end
// of string), trimmed.
func section(input, marker string) (string, bool) {
	start := strings.Index(input, marker)
	if start == -1 {
		return "", false
	}
	rest := input[start+len(marker):]

	end := len(rest)
	for _, other := range []string{SectionDescription, SectionComments, SectionRequiredParams} {
		if other == marker {
			continue
		}
		if idx := strings.Index(rest, other); idx != -1 && idx < end {
			end = idx
		}
	}
	return strings.TrimSpace(rest[:end]), true
}
