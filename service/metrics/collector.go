package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/signoff/model"
	"go.uber.org/zap"
)

// Source lists the requests a collector summarizes.
type Source interface {
	GetAllRequests(ctx context.Context) ([]*model.Request, error)
}

// Collector exports Snapshot values as Prometheus metrics, computing them on
// every scrape.
type Collector struct {
	source  Source
	timeout time.Duration
	logger  *zap.Logger

	requests       *prometheus.Desc
	passRate       *prometheus.Desc
	requestSeconds *prometheus.Desc
	stepSeconds    *prometheus.Desc
	escalationRate *prometheus.Desc
	escalations    *prometheus.Desc
}

// NewCollector creates a collector reading from source.
func NewCollector(source Source, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		source:  source,
		timeout: 5 * time.Second,
		logger:  logger,
		requests: prometheus.NewDesc("signoff_requests",
			"Approval requests by status, type and priority.",
			[]string{"status", "type", "priority"}, nil),
		passRate: prometheus.NewDesc("signoff_pass_rate",
			"Approved requests over decided requests.", nil, nil),
		requestSeconds: prometheus.NewDesc("signoff_request_duration_seconds_avg",
			"Average creation to completion time of finished requests.", nil, nil),
		stepSeconds: prometheus.NewDesc("signoff_step_duration_seconds_avg",
			"Average in-progress time of finished steps.", nil, nil),
		escalationRate: prometheus.NewDesc("signoff_escalation_rate",
			"Share of requests with at least one escalated step.", nil, nil),
		escalations: prometheus.NewDesc("signoff_escalations",
			"Escalations applied across all steps.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.requests
	ch <- c.passRate
	ch <- c.requestSeconds
	ch <- c.stepSeconds
	ch <- c.escalationRate
	ch <- c.escalations
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	requests, err := c.source.GetAllRequests(ctx)
	if err != nil {
		c.logger.Error("failed to collect approval metrics", zap.Error(err))
		return
	}
	type key struct {
		status   model.RequestStatus
		kind     model.RequestType
		priority model.Priority
	}
	counts := map[key]int{}
	for _, r := range requests {
		counts[key{r.Status, r.Type, r.Priority}]++
	}
	for k, count := range counts {
		ch <- prometheus.MustNewConstMetric(c.requests, prometheus.GaugeValue, float64(count), string(k.status), string(k.kind), string(k.priority))
	}
	snapshot := Compute(requests)
	ch <- prometheus.MustNewConstMetric(c.passRate, prometheus.GaugeValue, snapshot.PassRate)
	ch <- prometheus.MustNewConstMetric(c.requestSeconds, prometheus.GaugeValue, snapshot.AverageRequestDuration.Seconds())
	ch <- prometheus.MustNewConstMetric(c.stepSeconds, prometheus.GaugeValue, snapshot.AverageStepDuration.Seconds())
	ch <- prometheus.MustNewConstMetric(c.escalationRate, prometheus.GaugeValue, snapshot.EscalationRate)
	ch <- prometheus.MustNewConstMetric(c.escalations, prometheus.CounterValue, float64(snapshot.Escalations))
}

var _ prometheus.Collector = (*Collector)(nil)
