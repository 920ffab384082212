package metrics

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type manager struct {
	namespace string
	system    string
	registry  *prometheus.Registry
}

var (
	locker         sync.RWMutex
	defaultManager = &manager{
		namespace: "default",
		system:    "default",
		registry:  prometheus.NewRegistry(),
	}
)

func SetupMetricsManager(ns, system string, registry *prometheus.Registry) {
	locker.Lock()
	defer locker.Unlock()
	defaultManager = &manager{
		namespace: ns,
		system:    system,
		registry:  registry,
	}
	_ = registry.Register(collectors.NewGoCollector())
}

func current() *manager {
	locker.RLock()
	defer locker.RUnlock()
	return defaultManager
}

// register 重复注册时复用已存在的 collector
func register[T prometheus.Collector](r prometheus.Registerer, c T) T {
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func NewCounterVec(name string, labels []string) *prometheus.CounterVec {
	m := current()
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: FmtFixer(m.namespace),
			Subsystem: FmtFixer(m.system),
			Name:      FmtFixer(name),
			Help:      fmt.Sprintf("%s count of /%s/%s", name, m.namespace, m.system),
		},
		labels,
	)
	return register(m.registry, vec)
}

func NewHistogramVec(name string, labels []string) *prometheus.HistogramVec {
	m := current()
	vec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: FmtFixer(m.namespace),
			Subsystem: FmtFixer(m.system),
			Name:      FmtFixer(name),
			Help:      fmt.Sprintf("%s duration of /%s/%s", name, m.namespace, m.system),
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		labels,
	)
	return register(m.registry, vec)
}

func NewGaugeVec(name string, labels []string) *prometheus.GaugeVec {
	m := current()
	vec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: FmtFixer(m.namespace),
			Subsystem: FmtFixer(m.system),
			Name:      FmtFixer(name),
			Help:      fmt.Sprintf("%s gauge of /%s/%s", name, m.namespace, m.system),
		},
		labels,
	)
	return register(m.registry, vec)
}

func DefaultExportHandler() gin.HandlerFunc {
	registry := current().registry
	h := promhttp.InstrumentMetricHandler(registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func FmtFixer(in string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(in)
}
