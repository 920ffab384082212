package core

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/easy-dataset/easy-dataset/pkg/metrics"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

type Metrics struct {
	apiResponseTime *prometheus.HistogramVec
	apiErrorCounter *prometheus.CounterVec
	llmRequestTime  *prometheus.HistogramVec
	llmError        *prometheus.CounterVec
	taskDuration    *prometheus.HistogramVec
	visionPages     *prometheus.CounterVec
}

func NewMetrics(ns, system string, registry *prometheus.Registry) *Metrics {
	// setup metric
	metrics.SetupMetricsManager(ns, system, registry)

	m := &Metrics{
		apiResponseTime: metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter: metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		llmRequestTime:  metrics.NewHistogramVec("llm_request_time", []string{"model"}),
		llmError:        metrics.NewCounterVec("llm_error", []string{"model"}),
		taskDuration:    metrics.NewHistogramVec("task_duration", []string{"task_type", "status"}),
		visionPages:     metrics.NewCounterVec("vision_pages", []string{"result"}),
	}

	return m
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

// ObserveLLM 作为 ai.RequestObserver 挂到模型客户端上
func (m *Metrics) ObserveLLM(model string, took time.Duration, err error) {
	m.llmRequestTime.WithLabelValues(model).Observe(took.Seconds())
	if err != nil {
		m.llmError.WithLabelValues(model).Inc()
	}
}

func (m *Metrics) ObserveTask(taskType string, status types.TaskStatus, took time.Duration) {
	m.taskDuration.WithLabelValues(taskType, status.String()).Observe(took.Seconds())
}

func (m *Metrics) VisionPage(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.visionPages.WithLabelValues(result).Inc()
}
