package wire

import (
	"regexp"
	"strings"
)

var (
	nonPrintable   = regexp.MustCompile(`[^\x20-\x7E]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
	aroundCommas   = regexp.MustCompile(`\s*,\s*`)
	aroundColons   = regexp.MustCompile(`\s*:\s*`)
	aroundBraces   = regexp.MustCompile(`\s*([{}])\s*`)
	bareKeys       = regexp.MustCompile(`([{,])([A-Za-z_][A-Za-z0-9_]*):`)
)

// NormalizePayload repairs common transport damage in the decrypted JSON
// text: SMS gateways inject non-ASCII bytes and stray whitespace, and a
// truncated message can lose its closing brace. This is best-effort
// cleanup, not a parser; text that still fails strict JSON parsing after
// repair is rejected by the pipeline.
func NormalizePayload(raw string) string {
	cleaned := nonPrintable.ReplaceAllString(raw, "")
	cleaned = whitespaceRuns.ReplaceAllString(cleaned, " ")
	cleaned = aroundCommas.ReplaceAllString(cleaned, ",")
	cleaned = aroundColons.ReplaceAllString(cleaned, ":")
	cleaned = aroundBraces.ReplaceAllString(cleaned, "$1")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = bareKeys.ReplaceAllString(cleaned, `$1"$2":`)

	if open, closed := strings.Count(cleaned, "{"), strings.Count(cleaned, "}"); open > closed {
		cleaned += strings.Repeat("}", open-closed)
	}

	return cleaned
}
