package crontab

import (
	"time"
)

// Expression is a parsed schedule. Next returns the earliest matching instant
// strictly after fromTime.
type Expression interface {
	Next(fromTime time.Time) time.Time
}

type CrontabLine struct {
	Expression Expression
	Schedule   string
	Command    string
}

type Job struct {
	CrontabLine
	Position   int
	LineNumber int
}

type Crontab struct {
	Jobs []*Job
}
