package classifier

import (
	"regexp"
	"strings"
)

// Canonical verdicts extracted from a model response.
const (
	VerdictYes   = "yes"
	VerdictNo    = "no"
	VerdictError = "error"
)

var (
	answerLineRe       = regexp.MustCompile(`(?m)^answer\s*:\s*(yes|no)\s*$`)
	edgeTrimRe         = regexp.MustCompile(`^["'\s*]+|["'\s.*]+$`)
	answerPhraseRe     = regexp.MustCompile(`(?:answer|response|result|verdict)\s*(?:is|should be|would be|:)\s*['"]?(yes|no)['"]?`)
	observationsLineRe = regexp.MustCompile(`(?m)^Observations\s*:\s*(.+)$`)
)

// ParseVerdict extracts a yes/no verdict from a model response, falling back
// through progressively looser heuristics. Returns "error" when no verdict
// can be extracted.
func ParseVerdict(raw string) string {
	if raw == "" {
		return VerdictError
	}
	text := strings.ToLower(strings.TrimSpace(raw))

	// "Answer: yes/no" line, the prompt's expected format.
	if m := answerLineRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}

	// Bare yes/no on the final line.
	lines := strings.Split(text, "\n")
	lastLine := edgeTrimRe.ReplaceAllString(strings.TrimSpace(lines[len(lines)-1]), "")
	if lastLine == VerdictYes || lastLine == VerdictNo {
		return lastLine
	}

	text = edgeTrimRe.ReplaceAllString(text, "")
	if text == VerdictYes || text == VerdictNo {
		return text
	}
	if strings.HasPrefix(text, VerdictYes) {
		return VerdictYes
	}
	if strings.HasPrefix(text, VerdictNo) {
		return VerdictNo
	}

	if strings.Contains(text, "is a hot dog") || strings.Contains(text, "is a hotdog") {
		return VerdictYes
	}
	if strings.Contains(text, "not a hot dog") || strings.Contains(text, "not a hotdog") {
		return VerdictNo
	}

	if m := answerPhraseRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}

	// Last resort: an exclusive keyword mention.
	hasYes := strings.Contains(text, VerdictYes)
	hasNo := strings.Contains(text, VerdictNo)
	if hasYes && !hasNo {
		return VerdictYes
	}
	if hasNo && !hasYes {
		return VerdictNo
	}
	return VerdictError
}

// ParseObservations extracts the "Observations:" line the prompt asks for,
// falling back to the whole trimmed response.
func ParseObservations(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if m := observationsLineRe.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

// ExtractReasoning pulls the explanation out of a multi-line response whose
// final line is the bare yes/no answer. Single-line responses yield nothing.
func ExtractReasoning(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}
	last := strings.ToLower(strings.TrimSpace(lines[len(lines)-1]))
	switch last {
	case "yes", "no", "yes.", "no.":
		return strings.TrimSpace(strings.Join(lines[:len(lines)-1], "\n"))
	default:
		return trimmed
	}
}
