package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aptible/dockercronic/backend"
	"github.com/aptible/dockercronic/cron"
	"github.com/aptible/dockercronic/crontab"
	"github.com/aptible/dockercronic/log/formatter"
	"github.com/aptible/dockercronic/log/hook"
	"github.com/aptible/dockercronic/prometheus_metrics"
	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const (
	pingTimeout     = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	debug := pflag.Bool("debug", false, "enable debug logging")
	quiet := pflag.Bool("quiet", false, "do not log informational messages (takes precedence over --debug)")
	json := pflag.Bool("json", false, "enable JSON logging")
	logFormat := pflag.String("log-format", "", "render log lines with a template, e.g. \"%time %level %job.command %message\"")
	test := pflag.Bool("test", false, "test crontab (does not run jobs)")
	inotify := pflag.Bool("inotify", false, "reload the crontab when the file changes")
	splitLogs := pflag.Bool("split-logs", false, "write debug and info logs to stdout, everything else to stderr")
	prometheusListen := pflag.String("prometheus-listen-address", "", "serve Prometheus metrics on this address (port defaults to "+prometheus_metrics.DefaultPort+")")
	sentryDsn := pflag.String("sentry-dsn", "", "enable Sentry error logging with this DSN")
	sentryEnvironment := pflag.String("sentry-environment", "", "specify the application's environment for Sentry error reporting")
	sentryRelease := pflag.String("sentry-release", "", "specify the application's release for Sentry error reporting")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] CRONTAB\n\nAvailable options:\n", os.Args[0])
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
		return
	}

	switch {
	case *quiet:
		logrus.SetLevel(logrus.WarnLevel)
	case *debug:
		logrus.SetLevel(logrus.DebugLevel)
	}

	switch {
	case *json:
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case *logFormat != "":
		logrus.SetFormatter(&formatter.CustomFieldFormatter{LogFormat: *logFormat})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if *splitLogs {
		hook.RegisterSplitLogger(logrus.StandardLogger(), os.Stdout, os.Stderr)
	}

	if *sentryDsn != "" {
		sh, err := logrus_sentry.NewSentryHook(*sentryDsn, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			logrus.Fatalf("Could not init sentry logger: %s", err)
			return
		}

		sh.Timeout = 5 * time.Second

		if *sentryEnvironment != "" {
			sh.SetEnvironment(*sentryEnvironment)
		}

		if *sentryRelease != "" {
			sh.SetRelease(*sentryRelease)
		}

		logrus.AddHook(sh)
	}

	crontabFileName := pflag.Arg(0)

	logrus.Infof("read crontab: %s", crontabFileName)

	tab, err := crontab.LoadCrontab(crontabFileName)
	if err != nil {
		logrus.Fatal(err)
		return
	}

	if *test {
		logrus.Infof("crontab is valid: %d job(s)", len(tab.Jobs))
		os.Exit(0)
		return
	}

	promMetrics := prometheus_metrics.New(*prometheusListen)

	if *prometheusListen != "" {
		go func() {
			if err := promMetrics.InitHTTPServer(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Fatalf("prometheus http startup failed: %s", err.Error())
			}
		}()
	}

	docker, err := backend.NewDocker()
	if err != nil {
		logrus.Fatal(err)
		return
	}
	defer docker.Close()

	logrus.Info("connecting to docker")

	pingCtx, cancelPing := context.WithTimeout(context.Background(), pingTimeout)
	err = docker.Ping(pingCtx)
	cancelPing()
	if err != nil {
		logrus.Fatal(err)
		return
	}

	logrus.Info("docker connection OK, starting scheduler")

	termChan := make(chan os.Signal, 1)
	signal.Notify(termChan, syscall.SIGTERM)

	var reloadChan <-chan struct{}

	if *inotify {
		watcher, err := watchCrontab(crontabFileName)
		if err != nil {
			logrus.Fatalf("failed to watch crontab: %s", err)
			return
		}
		defer watcher.Close()

		reloadChan = watcher.Changes()
	}

	run(docker, tab, crontabFileName, promMetrics, termChan, reloadChan)

	logrus.Info("exiting")
}

func startCoordinator(b backend.Backend, tab *crontab.Crontab, promMetrics *prometheus_metrics.PrometheusMetrics) *cron.Coordinator {
	coordinator := cron.NewCoordinator(b, logrus.NewEntry(logrus.StandardLogger()), promMetrics)
	coordinator.Start(tab)
	return coordinator
}

func stopCoordinator(coordinator *cron.Coordinator) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := coordinator.Shutdown(ctx); err != nil {
		logrus.Warnf("job loops did not stop in time: %v", err)
	}
}

// run schedules tab until termChan fires. Each value on reloadChan reloads
// the crontab; a crontab that fails to load leaves the running jobs alone.
func run(
	b backend.Backend,
	tab *crontab.Crontab,
	crontabFileName string,
	promMetrics *prometheus_metrics.PrometheusMetrics,
	termChan <-chan os.Signal,
	reloadChan <-chan struct{},
) {
	coordinator := startCoordinator(b, tab, promMetrics)

	for {
		select {
		case <-termChan:
			logrus.Info("stopping due to SIGTERM")

			stopCoordinator(coordinator)

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if err := promMetrics.ShutdownHTTPServer(ctx); err != nil {
				logrus.Warnf("failed to stop prometheus server: %v", err)
			}
			cancel()

			return
		case <-reloadChan:
			logrus.Infof("crontab changed, reloading: %s", crontabFileName)

			newTab, err := crontab.LoadCrontab(crontabFileName)
			if err != nil {
				logrus.Errorf("not reloading crontab: %v", err)
				continue
			}

			stopCoordinator(coordinator)
			promMetrics.Reset()

			tab = newTab
			coordinator = startCoordinator(b, tab, promMetrics)
		}
	}
}
