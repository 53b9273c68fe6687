package cron

import (
	"context"
	"sync"

	"github.com/aptible/dockercronic/backend"
	"github.com/aptible/dockercronic/crontab"
	"github.com/aptible/dockercronic/prometheus_metrics"
	"github.com/sirupsen/logrus"
)

// Coordinator owns the job loops started from one crontab. A Coordinator is
// started once; a reload builds a new one.
type Coordinator struct {
	backend     backend.Backend
	logger      *logrus.Entry
	promMetrics *prometheus_metrics.PrometheusMetrics

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewCoordinator(b backend.Backend, logger *logrus.Entry, promMetrics *prometheus_metrics.PrometheusMetrics) *Coordinator {
	return &Coordinator{
		backend:     b,
		logger:      logger,
		promMetrics: promMetrics,
	}
}

// Start launches one loop per job in tab.
func (c *Coordinator) Start(tab *crontab.Crontab) {
	exitCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	for _, job := range tab.Jobs {
		cronLogger := c.logger.WithFields(logrus.Fields{
			"job.schedule": job.Schedule,
			"job.command":  job.Command,
			"job.position": job.Position,
			"job.line":     job.LineNumber,
		})

		cronLogger.Debug("scheduling job")

		StartJob(&c.wg, exitCtx, job, c.backend, cronLogger, c.promMetrics)
	}
}

// Shutdown cancels every loop at once, including sleeps and backend calls in
// flight, then waits for the loops to return or for ctx to expire.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
