package crontab

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	// Split points, counted in whitespace runs from the start of the line.
	aliasSeparatorRun = 0
	fieldSeparatorRun = 5

	maxLineSize = 1024 * 1024
)

var (
	ErrInvalidLine = errors.New("invalid crontab line")

	scheduleParser = cron.NewParser(
		cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)
)

type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("error reading crontab at %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

type FormatError struct {
	Line int
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf(
		"invalid crontab entry on line %d: %v (cron expressions must consist of six(!) "+
			"whitespace-separated fields or an alias that starts with @; environment "+
			"variable assignments are not supported)",
		e.Line, e.Err,
	)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ParseJobLine splits a trimmed job line into its schedule and command. An
// @alias schedule ends at the first whitespace run, a field schedule at the
// sixth. The command is everything after that run, kept verbatim.
func ParseJobLine(line string) (*CrontabLine, error) {
	separator := fieldSeparatorRun
	if strings.HasPrefix(line, "@") {
		separator = aliasSeparatorRun
	}

	scheduleEnds, commandStarts, ok := nthWhitespaceRun(line, separator)
	if !ok {
		return nil, ErrInvalidLine
	}

	schedule := line[:scheduleEnds]

	logrus.Debugf("try parse: %s[0:%d] = %s", line, scheduleEnds, schedule)

	expr, err := scheduleParser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLine, err)
	}

	// cron gives up after five years without a match and returns the zero
	// time; the scheduler loop needs a next fire to always exist.
	if expr.Next(time.Now().UTC()).IsZero() {
		return nil, fmt.Errorf("%w: schedule %q never fires", ErrInvalidLine, schedule)
	}

	return &CrontabLine{
		Expression: expr,
		Schedule:   schedule,
		Command:    line[commandStarts:],
	}, nil
}

// ParseCrontab parses every job line read from reader. Parsing stops at the
// first bad line, which is reported as a *FormatError carrying its 1-based
// line number.
func ParseCrontab(reader io.Reader) (*Crontab, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	jobs := make([]*Job, 0)
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++

		line := strings.TrimSpace(scanner.Text())

		if line == "" || line[0] == '#' {
			continue
		}

		jobLine, err := ParseJobLine(line)
		if err != nil {
			return nil, &FormatError{Line: lineNumber, Err: err}
		}

		jobs = append(jobs, &Job{
			CrontabLine: *jobLine,
			Position:    len(jobs),
			LineNumber:  lineNumber,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Crontab{Jobs: jobs}, nil
}

// LoadCrontab reads and parses the crontab at path. Failing to read the file
// yields an *IOError, a bad line a *FormatError.
func LoadCrontab(path string) (*Crontab, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer file.Close()

	tab, err := ParseCrontab(file)
	if err != nil {
		var formatErr *FormatError
		if errors.As(err, &formatErr) {
			return nil, err
		}
		return nil, &IOError{Path: path, Err: err}
	}

	return tab, nil
}
