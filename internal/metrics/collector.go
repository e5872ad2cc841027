package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 持有应用的 Prometheus 指标，方法对 nil 接收者安全
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Toggles          *prometheus.CounterVec
	WSConnections    prometheus.Gauge
	EventsRelayed    *prometheus.CounterVec
	EventsDropped    prometheus.Counter
	ErrorsByCode     *prometheus.CounterVec
	EmailsSent       *prometheus.CounterVec
	MediaUploadBytes prometheus.Counter
}

// NewCollector 使用独立的 registry 创建指标
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Toggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "engagement_toggles_total",
				Help:      "Like and follow toggles by target kind and resulting state",
			},
			[]string{"kind", "result"},
		),
		WSConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "websocket_connections",
				Help:      "Number of live websocket connections",
			},
		),
		EventsRelayed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "realtime_events_relayed_total",
				Help:      "Realtime events relayed to other connections",
			},
			[]string{"event"},
		),
		EventsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "realtime_frames_dropped_total",
				Help:      "Frames dropped because a client send buffer was full",
			},
		),
		ErrorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Application errors by code",
			},
			[]string{"code"},
		),
		EmailsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "emails_sent_total",
				Help:      "Outbound emails by template and status",
			},
			[]string{"template", "status"},
		),
		MediaUploadBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "media_upload_bytes_total",
				Help:      "Bytes of media accepted for upload",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Toggles,
		c.WSConnections,
		c.EventsRelayed,
		c.EventsDropped,
		c.ErrorsByCode,
		c.EmailsSent,
		c.MediaUploadBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry 返回底层 registry，供测试读取
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler 暴露 /metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordToggle(kind string, active bool) {
	if c == nil {
		return
	}
	result := "off"
	if active {
		result = "on"
	}
	c.Toggles.WithLabelValues(kind, result).Inc()
}

func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.WSConnections.Inc()
}

func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.WSConnections.Dec()
}

func (c *Collector) RecordRelay(event string) {
	if c == nil {
		return
	}
	c.EventsRelayed.WithLabelValues(event).Inc()
}

func (c *Collector) RecordDrop() {
	if c == nil {
		return
	}
	c.EventsDropped.Inc()
}

func (c *Collector) RecordError(code string) {
	if c == nil {
		return
	}
	c.ErrorsByCode.WithLabelValues(code).Inc()
}

func (c *Collector) RecordEmail(template string, err error) {
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.EmailsSent.WithLabelValues(template, status).Inc()
}

func (c *Collector) RecordUpload(bytes int64) {
	if c == nil {
		return
	}
	c.MediaUploadBytes.Add(float64(bytes))
}
