package chat

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.*?)\*`)
	headingRe    = regexp.MustCompile(`#{1,6}\s?`)
	underscoreRe = regexp.MustCompile(`_{1,2}`)
	strikeRe     = regexp.MustCompile(`~~`)
	codeBlockRe  = regexp.MustCompile("(?s)```(?:\\w+)?\\n(.*?)```")
	inlineCodeRe = regexp.MustCompile("`(.*?)`")
	bulletRe     = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numberedRe   = regexp.MustCompile(`(?m)^[ \t]*(\d+\.)[ \t]+`)
	sentenceRe   = regexp.MustCompile(`([.!?])[ \t]+([A-Z])`)
	blankLinesRe = regexp.MustCompile(`\n[ \t]*\n[ \t]*`)
	endsPunctRe  = regexp.MustCompile(`[.!?]$`)
	numberedPfx  = regexp.MustCompile(`^\d+\.`)
)

// emojiRule injects an emoji before recognized keyword categories.
type emojiRule struct {
	re    *regexp.Regexp
	emoji string
}

var emojiRules = []emojiRule{
	{regexp.MustCompile(`(?i)\b(important|crucial|key point)\b`), "🔑"},
	{regexp.MustCompile(`(?i)\b(tip|suggestion|recommendation)\b`), "💡"},
	{regexp.MustCompile(`(?i)\b(warning|caution|attention)\b`), "⚠️"},
	{regexp.MustCompile(`(?i)\b(note|notice)\b`), "📝"},
	{regexp.MustCompile(`(?i)\b(example|for example)\b`), "📌"},
	{regexp.MustCompile(`(?i)\b(advantage|benefit)\b`), "✅"},
	{regexp.MustCompile(`(?i)\b(disadvantage|limitation)\b`), "❌"},
	{regexp.MustCompile(`(?i)\b(success|achievement|completed)\b`), "🎯"},
	{regexp.MustCompile(`(?i)\b(error|problem|issue)\b`), "❌"},
	{regexp.MustCompile(`(?i)\b(information)\b`), "ℹ️"},
}

// FormatReply normalizes a raw model reply into clean, markdown-free
// paragraphs. Purely cosmetic: it does not change the factual content.
func FormatReply(text string) string {
	if text == "" {
		return "No response received."
	}

	formatted := text

	// Indent code blocks before stripping inline markers.
	formatted = codeBlockRe.ReplaceAllStringFunc(formatted, func(block string) string {
		code := codeBlockRe.FindStringSubmatch(block)[1]
		return "    " + strings.ReplaceAll(strings.TrimSpace(code), "\n", "\n    ")
	})

	// Strip markdown formatting.
	formatted = boldRe.ReplaceAllString(formatted, "$1")
	formatted = italicRe.ReplaceAllString(formatted, "$1")
	formatted = headingRe.ReplaceAllString(formatted, "")
	formatted = underscoreRe.ReplaceAllString(formatted, "")
	formatted = strikeRe.ReplaceAllString(formatted, "")
	formatted = inlineCodeRe.ReplaceAllString(formatted, "$1")

	// Convert lists.
	formatted = bulletRe.ReplaceAllString(formatted, "• ")
	formatted = numberedRe.ReplaceAllString(formatted, "$1 ")

	// Emoji prefixes for recognized keyword categories.
	for _, rule := range emojiRules {
		formatted = rule.re.ReplaceAllString(formatted, rule.emoji+" $1")
	}

	// Ensure paragraph breaks.
	formatted = sentenceRe.ReplaceAllString(formatted, "$1\n\n$2")
	formatted = blankLinesRe.ReplaceAllString(formatted, "\n\n")

	// Clean up paragraphs.
	var paragraphs []string
	for _, p := range strings.Split(formatted, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !endsPunctRe.MatchString(p) && !strings.HasPrefix(p, "•") && !numberedPfx.MatchString(p) {
			p += "."
		}
		paragraphs = append(paragraphs, capitalize(p))
	}

	return strings.Join(paragraphs, "\n\n")
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
