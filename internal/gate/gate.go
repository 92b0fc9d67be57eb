package gate

import (
	"context"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/speaksmart/rt-grammar-wrapper/internal/corrector"
	"github.com/speaksmart/rt-grammar-wrapper/internal/textnorm"
	"github.com/speaksmart/rt-grammar-wrapper/internal/utils"
)

const defaultMaxLen = 128

// Gate decides which text units reach the corrector. Only finalized text is
// ever passed in, one sentence at a time, within the corrector's input bound.
type Gate struct {
	corr   corrector.Corrector
	maxLen int
}

// New creates a correction gate
func New(corr corrector.Corrector, maxLen int) *Gate {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}
	return &Gate{corr: corr, maxLen: maxLen}
}

// CorrectUtterance corrects each sentence independently. A failing or
// malformed corrector call keeps the original sentence for that unit only.
// The joined result is re-normalized afterwards.
func (g *Gate) CorrectUtterance(ctx context.Context, sentences []string) string {
	defer utils.MeasureTime("correct", time.Now())
	parts := make([]string, 0, len(sentences))
	for i, s := range sentences {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out, err := g.corr.Correct(ctx, truncate(s, g.maxLen), g.maxLen)
		if err != nil {
			goapp.Log.Error().Err(err).Int("sentence", i).Msg("correction failed, keeping original")
			parts = append(parts, s)
			continue
		}
		if strings.TrimSpace(out) == "" {
			goapp.Log.Warn().Int("sentence", i).Msg("empty correction, keeping original")
			parts = append(parts, s)
			continue
		}
		parts = append(parts, out)
	}
	return textnorm.Finish(strings.Join(parts, " "))
}

// CorrectRaw cleans raw recognized text, segments it and corrects the whole
// utterance.
func (g *Gate) CorrectRaw(ctx context.Context, raw string) string {
	working := textnorm.Clean(raw)
	if working == "" {
		return ""
	}
	return g.CorrectUtterance(ctx, textnorm.SplitSentences(working))
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
