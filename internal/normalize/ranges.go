package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// LetterLadder is the canonical ordering of letter sizes
var LetterLadder = []string{"XXS", "XS", "S", "M", "L", "XL", "XXL", "XXXL"}

// NumericSequence is the canonical ordering of numeric sizes, 30 through 59
var NumericSequence = func() []string {
	seq := make([]string, 0, 30)
	for n := 30; n <= 59; n++ {
		seq = append(seq, strconv.Itoa(n))
	}
	return seq
}()

var (
	rangePattern = regexp.MustCompile(`^([0-9A-Z]+)\s*(?:-|–|—|BIS|TO)\s*([0-9A-Z]+)$`)

	letterAliases = map[string]string{"2XL": "XXL", "3XL": "XXXL"}
)

// ExpandRange expands "A-B" into the inclusive run between A and B on the letter
// ladder or the numeric sequence. Input that is not a range on either ordering,
// including reversed ranges, is returned unexpanded.
func ExpandRange(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	m := rangePattern.FindStringSubmatch(strings.ToUpper(CleanText(trimmed)))
	if m == nil {
		return []string{trimmed}
	}
	from, to := m[1], m[2]
	if alias, ok := letterAliases[from]; ok {
		from = alias
	}
	if alias, ok := letterAliases[to]; ok {
		to = alias
	}

	for _, ladder := range [][]string{LetterLadder, NumericSequence} {
		if run := subsequence(ladder, from, to); run != nil {
			return run
		}
	}
	return []string{trimmed}
}

func subsequence(ladder []string, from, to string) []string {
	start, end := -1, -1
	for i, v := range ladder {
		if v == from {
			start = i
		}
		if v == to {
			end = i
		}
	}
	if start < 0 || end < 0 || start > end {
		return nil
	}
	run := make([]string, end-start+1)
	copy(run, ladder[start:end+1])
	return run
}
