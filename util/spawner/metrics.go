package spawner

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusSpawnerTasks   *prometheus.CounterVec
	prometheusSpawnerDropped *prometheus.CounterVec
	prometheusSpawnerRunning *prometheus.GaugeVec
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusSpawnerTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teranode",
			Subsystem: "spawner",
			Name:      "tasks",
			Help:      "Number of tasks accepted by the spawner",
		},
		[]string{"group", "task"},
	)

	prometheusSpawnerDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teranode",
			Subsystem: "spawner",
			Name:      "dropped",
			Help:      "Number of tasks dropped because the spawner was stopped or its queue was full",
		},
		[]string{"group", "task"},
	)

	prometheusSpawnerRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "teranode",
			Subsystem: "spawner",
			Name:      "running",
			Help:      "Number of tasks currently executing",
		},
		[]string{"group"},
	)
}
