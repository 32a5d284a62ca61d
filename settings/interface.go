package settings

import (
	"net/url"
	"time"

	"github.com/bsv-blockchain/teranode-archive/chaincfg"
)

type ArchiveSettings struct {
	HTTPListenAddress string
	APIPrefix         string
	EchoDebug         bool
	CentrifugeDisable bool
	Workers           int
	MaxQueuedTasks    int
	EventTimeout      time.Duration
	RateLimit         int
}

type BlockChainSettings struct {
	StoreURL          *url.URL
	StoreCacheEnabled bool
	StoreCacheTTL     time.Duration
}

type StateSettings struct {
	StoreURL *url.URL
}

type TracingSettings struct {
	Enabled      bool
	CollectorURL *url.URL
	SampleRate   float64
}

type PostgresSettings struct {
	MaxIdleConns int
	MaxOpenConns int
}

type Settings struct {
	ClientName         string
	HealthCheckPort    int
	DataFolder         string
	LogLevel           string
	LoggerType         string
	PrettyLogs         bool
	ProfilerAddr       string
	PrometheusEndpoint string
	StatsPrefix        string
	ChainCfgParams     *chaincfg.Params
	Archive            ArchiveSettings
	BlockChain         BlockChainSettings
	State              StateSettings
	Postgres           PostgresSettings
	Tracing            TracingSettings
}
