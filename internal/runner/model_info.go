package runner

import (
	"strings"
	"unicode"

	"hotdogbench/internal/spec"
)

// ModelInfo resolves modelID against the configured catalog. Unknown IDs are
// accepted: name and provider are inferred from the ID so ad-hoc models can be
// benchmarked without editing the config.
func ModelInfo(catalog []spec.ModelConfig, modelID string) spec.ModelConfig {
	for _, m := range catalog {
		if m.ID == modelID {
			return m
		}
	}
	return inferModelInfo(modelID)
}

// inferModelInfo derives a display name and provider from an OpenRouter model
// ID of the form provider/model-name[:free].
func inferModelInfo(modelID string) spec.ModelConfig {
	base := strings.TrimSuffix(modelID, ":free")
	head, tail, hasSlash := strings.Cut(base, "/")
	provider := "Unknown"
	if head != "" {
		provider = titleCase(strings.ReplaceAll(head, "ai", "AI"))
	}
	name := modelID
	if hasSlash {
		name = titleCase(strings.ReplaceAll(tail, "-", " "))
	}
	return spec.ModelConfig{ID: modelID, Name: name, Provider: provider}
}

// titleCase uppercases the first letter of every word and lowercases the
// rest, treating any non-letter as a word boundary.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}
