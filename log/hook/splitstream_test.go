package hook

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestRegisterSplitLogger(t *testing.T) {
	var stdout, stderr bytes.Buffer

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	RegisterSplitLogger(logger, &stdout, &stderr)

	logger.Debug("out1")
	logger.Info("out2")
	logger.Warn("err1")
	logger.Error("err2")

	assert.Contains(t, stdout.String(), "msg=out1")
	assert.Contains(t, stdout.String(), "msg=out2")
	assert.NotContains(t, stdout.String(), "msg=err1")

	assert.Contains(t, stderr.String(), "msg=err1")
	assert.Contains(t, stderr.String(), "msg=err2")
	assert.NotContains(t, stderr.String(), "msg=out1")
}

func TestRegisterSplitLoggerRespectsLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	RegisterSplitLogger(logger, &stdout, &stderr)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "shown")
}
