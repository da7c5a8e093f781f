package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jwebster45206/quest-weaver/pkg/adventure"
)

// Metrics holds the generation collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the generation collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quest_weaver",
			Name:      "generation_requests_total",
			Help:      "Generation requests sent to the LLM backend.",
		}, []string{"provider", "template", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quest_weaver",
			Name:      "generation_duration_seconds",
			Help:      "Latency of generation requests to the LLM backend.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"provider", "template"}),
	}
}

// InstrumentedService records metrics around another LLMService.
type InstrumentedService struct {
	LLMService
	provider string
	metrics  *Metrics
}

// Instrument wraps next so every Generate call is counted and timed.
func Instrument(next LLMService, provider string, metrics *Metrics) *InstrumentedService {
	return &InstrumentedService{LLMService: next, provider: provider, metrics: metrics}
}

func (s *InstrumentedService) Generate(ctx context.Context, req *adventure.GenerationRequest) (string, error) {
	start := time.Now()
	raw, err := s.LLMService.Generate(ctx, req)
	s.metrics.duration.WithLabelValues(s.provider, req.TemplateID).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.requests.WithLabelValues(s.provider, req.TemplateID, status).Inc()
	return raw, err
}
