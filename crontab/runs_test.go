package crontab

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type run struct {
	start int
	end   int
}

func collectRuns(line string) []run {
	runs := []run{}
	for start, end := range whitespaceRuns(line) {
		runs = append(runs, run{start, end})
	}
	return runs
}

var whitespaceRunsTestCases = []struct {
	line     string
	expected []run
}{
	{"", []run{}},
	{"nospace", []run{}},
	{"  a bb   c   ", []run{{0, 2}, {3, 4}, {6, 9}, {10, 13}}},
	{"a\t \tb", []run{{1, 4}}},
	{" ", []run{{0, 1}}},
	{"é é", []run{{2, 3}}},
	{"a\u00a0b", []run{{1, 3}}},
}

func TestWhitespaceRuns(t *testing.T) {
	for _, tt := range whitespaceRunsTestCases {
		label := fmt.Sprintf("whitespaceRuns(%q)", tt.line)
		assert.Equal(t, tt.expected, collectRuns(tt.line), label)
	}
}

func TestNthWhitespaceRun(t *testing.T) {
	start, end, ok := nthWhitespaceRun("a b  c", 1)
	assert.True(t, ok)
	assert.Equal(t, 3, start)
	assert.Equal(t, 5, end)

	_, _, ok = nthWhitespaceRun("a b  c", 2)
	assert.False(t, ok)
}
