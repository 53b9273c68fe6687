package crontab

import (
	"iter"
	"unicode"
)

// whitespaceRuns yields the [start, end) byte offsets of every maximal run of
// whitespace in line, left to right. A run that reaches the end of the line
// ends at len(line).
func whitespaceRuns(line string) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		start := -1

		for i, r := range line {
			space := unicode.IsSpace(r)

			if space && start < 0 {
				start = i
			} else if !space && start >= 0 {
				if !yield(start, i) {
					return
				}
				start = -1
			}
		}

		if start >= 0 {
			yield(start, len(line))
		}
	}
}

// nthWhitespaceRun returns the n-th (0-indexed) whitespace run of line. It
// stops scanning as soon as that run is found.
func nthWhitespaceRun(line string, n int) (start int, end int, ok bool) {
	i := 0
	for s, e := range whitespaceRuns(line) {
		if i == n {
			return s, e, true
		}
		i++
	}
	return 0, 0, false
}
