package main

import (
	"fmt"

	"go.uber.org/zap"

	"ratetables/internal/metrics"
	"ratetables/internal/metrics/datadog"
	"ratetables/internal/metrics/prompush"
)

const defaultPushGatewayURL = "http://localhost:9091"

// setupMetrics picks the backend: flag, then environment, then none.
func (a *app) setupMetrics() error {
	name := firstNonEmpty(a.metricsBackend, getenv("METRICS_BACKEND"), "none")
	job := firstNonEmpty(a.cfg.Job, "ratetables")

	switch name {
	case "none":
		a.logger.Debug("metrics disabled")
		return nil

	case "pushgateway":
		url := firstNonEmpty(a.pushGatewayURL, getenv("PUSHGATEWAY_URL"), defaultPushGatewayURL)
		b, err := prompush.NewBackend(job, url)
		if err != nil {
			return err
		}
		metrics.SetBackend(b)
		a.logger.Info("metrics enabled", zap.String("backend", name), zap.String("url", url), zap.String("job", job))
		return nil

	case "datadog":
		addr := firstNonEmpty(a.statsdAddr, getenv("DD_AGENT_ADDR"))
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			GlobalTags: []string{"job:" + job},
		})
		if err != nil {
			return err
		}
		metrics.SetBackend(b)
		a.logger.Info("metrics enabled", zap.String("backend", name), zap.String("addr", addr), zap.String("job", job))
		return nil
	}
	return fmt.Errorf("unknown metrics backend %q", name)
}
