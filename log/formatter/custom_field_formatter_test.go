package formatter

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newEntry(message string, data logrus.Fields) *logrus.Entry {
	entry := logrus.NewEntry(logrus.New())
	entry.Time = time.Date(2000, 1, 9, 0, 0, 0, 0, time.UTC)
	entry.Level = logrus.WarnLevel
	entry.Message = message
	entry.Data = data
	return entry
}

var customFieldFormatterTestCases = []struct {
	format   string
	entry    *logrus.Entry
	expected string
}{
	{
		"%time [%level] %message",
		newEntry("job did not succeed", logrus.Fields{}),
		"2000-01-09T00:00:00Z [warning] job did not succeed\n",
	},
	{
		"%job.command %job.position %status_code: %message",
		newEntry("job did not succeed", logrus.Fields{
			"job.command":  "backup",
			"job.position": 3,
			"status_code":  int64(2),
		}),
		"backup 3 2: job did not succeed\n",
	},
	{
		"%message %error",
		newEntry("failed to start container", logrus.Fields{
			logrus.ErrorKey: errors.New("no such container"),
		}),
		"failed to start container no such container\n",
	},
	{
		"%missing %message   ",
		newEntry("starting", logrus.Fields{}),
		"starting\n",
	},
}

func TestCustomFieldFormatter(t *testing.T) {
	for _, tt := range customFieldFormatterTestCases {
		label := fmt.Sprintf("Format(%q)", tt.format)

		f := &CustomFieldFormatter{LogFormat: tt.format}

		out, err := f.Format(tt.entry)
		if assert.NoError(t, err, label) {
			assert.Equal(t, tt.expected, string(out), label)
		}
	}
}
