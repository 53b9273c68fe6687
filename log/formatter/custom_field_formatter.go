package formatter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var fieldPattern = regexp.MustCompile(`%[\w.]+`)

// CustomFieldFormatter renders LogFormat with every %name placeholder
// replaced: %time, %level and %message are built in, anything else is looked
// up in the entry's fields (e.g. %job.command). Unknown names render empty.
type CustomFieldFormatter struct {
	LogFormat string
}

func (f *CustomFieldFormatter) getFieldValue(entry *logrus.Entry, field string) (string, bool) {
	switch strings.ToLower(field) {
	case "level":
		return entry.Level.String(), true
	case "time":
		return entry.Time.Format(time.RFC3339Nano), true
	case "message":
		return entry.Message, true
	default:
		val, ok := entry.Data[field]
		if !ok {
			return "", false
		}

		switch v := val.(type) {
		case string:
			return v, true
		case error:
			return v.Error(), true
		default:
			return fmt.Sprint(v), true
		}
	}
}

func (f *CustomFieldFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	replaced := fieldPattern.ReplaceAllStringFunc(f.LogFormat, func(match string) string {
		key := strings.TrimPrefix(match, "%")
		if value, ok := f.getFieldValue(entry, key); ok {
			return value
		}

		return ""
	})

	return []byte(strings.TrimSpace(replaced) + "\n"), nil
}
