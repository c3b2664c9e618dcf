// Package nodeid resolves Kairos work-item identifiers from GitHub text.
package nodeid

import "regexp"

// Pattern matches a work-item id like PB-CORE-CHAT-001 as a whole word.
var Pattern = regexp.MustCompile(`\bPB-[A-Z0-9]+-[A-Z0-9]+-\d{3}\b`)

// Source names which input a resolution came from.
type Source string

const (
	SourceTitle  Source = "title"
	SourceBranch Source = "branch"
	SourceCommit Source = "commit"
	SourceBody   Source = "body"
)

// Resolution is the outcome of a priority search. An empty IDs slice with an
// empty Source means no id was found anywhere; callers drop the event.
type Resolution struct {
	IDs    []string
	Source Source
}

// Extract returns all work-item ids in text, in first-occurrence order with
// duplicates removed.
func Extract(text string) []string {
	if text == "" {
		return nil
	}
	matches := Pattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// Resolve searches the inputs in fixed priority order: title, branch, each
// commit message in array order, then body. The first input that yields any
// ids wins; ids from different inputs are never merged.
func Resolve(title, branch string, commitMessages []string, body string) Resolution {
	if ids := Extract(title); len(ids) > 0 {
		return Resolution{IDs: ids, Source: SourceTitle}
	}
	if ids := Extract(branch); len(ids) > 0 {
		return Resolution{IDs: ids, Source: SourceBranch}
	}
	for _, msg := range commitMessages {
		if ids := Extract(msg); len(ids) > 0 {
			return Resolution{IDs: ids, Source: SourceCommit}
		}
	}
	if ids := Extract(body); len(ids) > 0 {
		return Resolution{IDs: ids, Source: SourceBody}
	}
	return Resolution{}
}
