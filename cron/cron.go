package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aptible/dockercronic/backend"
	"github.com/aptible/dockercronic/crontab"
	"github.com/aptible/dockercronic/prometheus_metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// reportCompletion logs one line per outcome. The fields differ per outcome
// so that a message, a bare status code and an opaque error stay
// distinguishable in the logs.
func reportCompletion(jobLogger *logrus.Entry, completion backend.Completion) {
	switch completion.Outcome {
	case backend.Succeeded:
		jobLogger.Info("job succeeded")
	case backend.FailedMessage:
		jobLogger.WithFields(logrus.Fields{
			"error_msg": completion.Message,
		}).Warn("container wait request returned error message")
	case backend.FailedStatus:
		jobLogger.WithFields(logrus.Fields{
			"status_code": completion.StatusCode,
		}).Warn("job did not succeed")
	case backend.Errored:
		jobLogger.WithError(completion.Err).Warn("error waiting for container completion")
	case backend.NoResponse:
		jobLogger.Warn("no response to wait request on docker API")
	default:
		jobLogger.Errorf("unexpected completion outcome: %v", completion.Outcome)
	}
}

func monitorJob(ctx context.Context, job *crontab.Job, t0 time.Time, jobLogger *logrus.Entry, promMetrics *prometheus_metrics.PrometheusMetrics) {
	t := t0

	for {
		t = job.Expression.Next(t)

		timer := time.NewTimer(time.Until(t))

		select {
		case <-timer.C:
			jobLogger.Warnf("not starting: job is still running since %s (%s elapsed)", t0, t.Sub(t0))

			promMetrics.CronsDeadlineExceededCounter.With(jobPromLabels(job)).Inc()
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// fire starts the job's container and waits for it to stop. Every failure is
// logged and counted here; none of them is returned to the loop.
func fire(ctx context.Context, job *crontab.Job, b backend.Backend, t0 time.Time, jobLogger *logrus.Entry, promMetrics *prometheus_metrics.PrometheusMetrics) {
	labels := jobPromLabels(job)

	jobLogger.Info("starting")

	promMetrics.CronsExecCounter.With(labels).Inc()

	if err := b.Start(ctx, job.Command); err != nil {
		if ctx.Err() != nil {
			jobLogger.Debug("start interrupted by shutdown")
			return
		}

		jobLogger.WithError(err).Warn("failed to start container")

		promMetrics.CronsStartFailCounter.With(labels).Inc()
		return
	}

	promMetrics.CronsCurrentlyRunningGauge.With(labels).Inc()
	defer promMetrics.CronsCurrentlyRunningGauge.With(labels).Dec()

	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	defer cancelMonitor()

	go monitorJob(monitorCtx, job, t0, jobLogger, promMetrics)

	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		promMetrics.CronsExecutionTimeHistogram.With(labels).Observe(v)
	}))

	completion := b.Wait(ctx, job.Command)

	if ctx.Err() != nil {
		jobLogger.Debug("wait interrupted by shutdown")
		return
	}

	timer.ObserveDuration()

	reportCompletion(jobLogger, completion)

	if completion.Outcome == backend.Succeeded {
		promMetrics.CronsSuccessCounter.With(labels).Inc()
	} else {
		promMetrics.CronsFailCounter.With(prometheus.Labels{
			"outcome":  completion.Outcome.String(),
			"command":  labels["command"],
			"position": labels["position"],
			"schedule": labels["schedule"],
		}).Inc()
	}
}

func startFunc(
	wg *sync.WaitGroup,
	exitCtx context.Context,
	logger *logrus.Entry,
	expression crontab.Expression,
	fn func(time.Time, *logrus.Entry),
) {
	wg.Add(1)

	go func() {
		defer wg.Done()

		var cronIteration uint64

		// Fires of one job never overlap: fn runs on this goroutine.
		for {
			// Schedules are evaluated in UTC whatever the host's zone.
			// Assume that the clock isn't being manipulated while we're
			// asleep.
			now := time.Now().UTC()
			nextRun := expression.Next(now)
			if nextRun.IsZero() {
				logger.Panicf("schedule has no fire time after %v", now)
			}

			logger.Debugf("job will run next at %v", nextRun)

			timer := time.NewTimer(nextRun.Sub(now))

			select {
			case <-exitCtx.Done():
				timer.Stop()
				logger.Debug("shutting down")
				return
			case <-timer.C:
				// Proceed normally
			}

			if exitCtx.Err() != nil {
				logger.Debug("shutting down")
				return
			}

			fn(nextRun, logger.WithFields(logrus.Fields{
				"iteration": cronIteration,
			}))

			cronIteration++
		}
	}()
}

// StartJob runs job on its own goroutine, registered with wg, until exitCtx
// is cancelled. Cancellation interrupts the sleep and any backend call in
// flight.
func StartJob(
	wg *sync.WaitGroup,
	exitCtx context.Context,
	job *crontab.Job,
	b backend.Backend,
	cronLogger *logrus.Entry,
	promMetrics *prometheus_metrics.PrometheusMetrics,
) {
	runThisJob := func(t0 time.Time, jobLogger *logrus.Entry) {
		fire(exitCtx, job, b, t0, jobLogger, promMetrics)
	}

	startFunc(
		wg,
		exitCtx,
		cronLogger,
		job.Expression,
		runThisJob,
	)
}

func jobPromLabels(job *crontab.Job) prometheus.Labels {
	return prometheus.Labels{
		"position": fmt.Sprintf("%d", job.Position),
		"command":  job.Command,
		"schedule": job.Schedule,
	}
}
