package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jwebster45206/quest-weaver/pkg/adventure"
)

func TestInstrumentedService(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	mock := NewMockLLMAPI()
	service := Instrument(mock, ProviderMock, metrics)
	ctx := context.Background()

	_, err := service.Generate(ctx, interpretRequest())
	assert.NoError(t, err)

	mock.SetGenerateError(errors.New("down"))
	_, err = service.Generate(ctx, interpretRequest())
	assert.Error(t, err)

	tmpl := adventure.TemplateInterpretCommand
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues(ProviderMock, tmpl, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues(ProviderMock, tmpl, "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.duration))

	// Readiness passes through to the wrapped service.
	ready, err := service.IsModelReady(ctx, "m")
	assert.NoError(t, err)
	assert.True(t, ready)
}
