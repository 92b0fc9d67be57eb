package textnorm

import (
	"regexp"
	"strings"
	"unicode"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

var spaceRe = regexp.MustCompile(`\s+`)

// lexicalRules fix mis-recognized idioms and drop filler phrases.
// Order matters for overlapping patterns, each rule fires exactly once per pass.
var lexicalRules = []rule{
	{regexp.MustCompile(`(?i)\bmarried with\b`), "married to"},
	{regexp.MustCompile(`(?i)\bnews are\b`), "news is"},
	{regexp.MustCompile(`(?i)\bi goes\b`), "i went"},
	{regexp.MustCompile(`(?i)\bi am went\b`), "i went"},
	{regexp.MustCompile(`(?i)\bi was available by tomorrow\b`), "i will be available tomorrow"},
	{regexp.MustCompile(`(?i)\bmeet me by tomorrow\b`), "meet me tomorrow"},
	{regexp.MustCompile(`(?i)\bi was like\b`), "i felt that"},
	{regexp.MustCompile(`(?i)\byou know\b`), ""},
	{regexp.MustCompile(`(?i)\bactually\b`), ""},
}

// semanticRules rewrite whole mis-transcribed phrases after correction.
var semanticRules = []rule{
	{regexp.MustCompile(`(?i)\bi was available tomorrow\b`), "I will be available tomorrow"},
	{regexp.MustCompile(`(?i)\bi was available by tomorrow\b`), "I will be available tomorrow"},
	{regexp.MustCompile(`(?i)\bi was like why\b`), "I wondered why"},
	{regexp.MustCompile(`(?i)\bso better\b`), "so please"},
	{regexp.MustCompile(`(?i)\bdon't come to me\b`), "please do not approach me unnecessarily"},
	{regexp.MustCompile(`(?i)and\.$`), "."},
}

// Collapse replaces any whitespace run with a single space and trims the ends.
func Collapse(text string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// ApplyLexical runs the ordered lexical replacement table once over the text.
func ApplyLexical(text string) string {
	for _, r := range lexicalRules {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	return Collapse(text)
}

// ApplySemantic runs the ordered semantic rewrite table once over the text.
func ApplySemantic(text string) string {
	for _, r := range semanticRules {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	return Collapse(text)
}

// Clean is the pre-correction transform: whitespace collapse plus lexical fixes.
func Clean(text string) string {
	return ApplyLexical(Collapse(text))
}

// SplitSentences splits text after sentence-terminal punctuation followed by
// whitespace. Text with no terminal punctuation is one sentence.
func SplitSentences(text string) []string {
	var res []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if (c == '.' || c == '!' || c == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			res = append(res, string(runes[start:i+1]))
			i++
			for i < len(runes) && unicode.IsSpace(runes[i]) {
				i++
			}
			start = i
			i--
		}
	}
	if start < len(runes) {
		res = append(res, string(runes[start:]))
	}
	if res == nil {
		res = []string{""}
	}
	return res
}

// Dedupe drops every sentence whose case-folded, trimmed form was already seen,
// keeping first occurrences in original order. Empty segments are dropped.
func Dedupe(sentences []string) []string {
	seen := map[string]bool{}
	var res []string
	for _, s := range sentences {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		res = append(res, s)
	}
	return res
}

// RestorePunctuation capitalizes each sentence and ensures it ends in terminal
// punctuation. Survivors are joined with single spaces.
func RestorePunctuation(text string) string {
	var fixed []string
	for _, s := range SplitSentences(text) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		runes := []rune(s)
		runes[0] = unicode.ToUpper(runes[0])
		s = string(runes)
		if !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "!") && !strings.HasSuffix(s, "?") {
			s += "."
		}
		fixed = append(fixed, s)
	}
	return strings.Join(fixed, " ")
}

// Normalize runs the full pipeline over raw text. It is pure, deterministic and
// returns an empty string for empty or whitespace-only input.
func Normalize(raw string) string {
	text := Clean(raw)
	if text == "" {
		return ""
	}
	return Finish(text)
}

// Finish re-normalizes text after correction: collapse, semantic rewrite,
// de-duplication, punctuation restoration. The corrector may reintroduce
// whitespace or duplicate clauses, so these stages run again on its output.
func Finish(text string) string {
	text = Collapse(text)
	if text == "" {
		return ""
	}
	text = ApplySemantic(text)
	text = strings.Join(Dedupe(SplitSentences(text)), " ")
	return RestorePunctuation(text)
}
