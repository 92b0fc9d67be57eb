package textnorm

import "strings"

const (
	markOpen  = "<span style='color:red'>"
	markClose = "</span>"
)

// Highlight aligns original and corrected texts token by token and wraps
// corrected-only tokens in a visual marker. Removed tokens are not rendered,
// only the corrected side is shown.
func Highlight(original, corrected string) string {
	o := strings.Fields(original)
	c := strings.Fields(corrected)

	// lcs[i][j] holds the longest common subsequence length of o[i:] and c[j:]
	lcs := make([][]int, len(o)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(c)+1)
	}
	for i := len(o) - 1; i >= 0; i-- {
		for j := len(c) - 1; j >= 0; j-- {
			if o[i] == c[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var out, changed []string
	flush := func() {
		if len(changed) > 0 {
			out = append(out, markOpen+strings.Join(changed, " ")+markClose)
			changed = nil
		}
	}
	i, j := 0, 0
	for i < len(o) && j < len(c) {
		switch {
		case o[i] == c[j]:
			flush()
			out = append(out, o[i])
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			i++
		default:
			changed = append(changed, c[j])
			j++
		}
	}
	for ; j < len(c); j++ {
		changed = append(changed, c[j])
	}
	flush()
	return strings.Join(out, " ")
}
