// Package settings resolves the archive configuration from gocore (settings.conf, settings_local.conf and env).
package settings

import (
	"time"

	"github.com/bsv-blockchain/teranode-archive/chaincfg"
)

func NewSettings() *Settings {
	params, err := chaincfg.GetChainParams(getString("network", "mainnet"))
	if err != nil {
		panic(err)
	}

	return &Settings{
		ClientName:         getString("clientName", "teranode-archive"),
		HealthCheckPort:    getInt("health_check_port", 8000),
		DataFolder:         getString("dataFolder", "data"),
		LogLevel:           getString("logLevel", "INFO"),
		LoggerType:         getString("logger_type", "zerolog"),
		PrettyLogs:         getBool("PRETTY_LOGS", true),
		ProfilerAddr:       getString("profilerAddr", ""),
		PrometheusEndpoint: getString("prometheusEndpoint", "/metrics"),
		StatsPrefix:        getString("stats_prefix", "/stats/"),
		ChainCfgParams:     params,
		Archive: ArchiveSettings{
			HTTPListenAddress: getString("archive_httpListenAddress", ":8095"),
			APIPrefix:         getString("archive_apiPrefix", "/api/v1"),
			EchoDebug:         getBool("archive_echoDebug", false),
			CentrifugeDisable: getBool("archive_centrifuge_disable", false),
			Workers:           getInt("archive_workers", 32),
			MaxQueuedTasks:    getInt("archive_maxQueuedTasks", 0),
			EventTimeout:      getDuration("archive_eventTimeout", 30*time.Second),
			RateLimit:         getInt("archive_rateLimit", 0),
		},
		BlockChain: BlockChainSettings{
			StoreURL:          getURL("blockchain_store", "sqlite:///blockchain"),
			StoreCacheEnabled: getBool("blockchain_store_cache_enabled", true),
			StoreCacheTTL:     getDuration("blockchain_store_cacheTTL", 2*time.Minute),
		},
		State: StateSettings{
			StoreURL: getURL("state_store", "badger:///state"),
		},
		Tracing: TracingSettings{
			Enabled:      getBool("use_otel_tracing", false),
			CollectorURL: getURL("tracing_collector_url", "http://localhost:4318"),
			SampleRate:   getFloat64("tracing_SampleRate", 0.01),
		},
		Postgres: PostgresSettings{
			MaxIdleConns: getInt("postgres_maxIdleConns", 10),
			MaxOpenConns: getInt("postgres_maxOpenConns", 80),
		},
	}
}
