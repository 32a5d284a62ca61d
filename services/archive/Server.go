// Package archive is the archive service: the query operations served over REST and a
// centrifuge websocket, managed by the servicemanager.
package archive

import (
	"context"
	"net/http"
	"strings"

	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/services/archive/centrifugeimpl"
	"github.com/bsv-blockchain/teranode-archive/services/archive/httpimpl"
	"github.com/bsv-blockchain/teranode-archive/services/archive/query"
	"github.com/bsv-blockchain/teranode-archive/settings"
	"github.com/bsv-blockchain/teranode-archive/stores/blockchain"
	"github.com/bsv-blockchain/teranode-archive/stores/state"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
	"github.com/bsv-blockchain/teranode-archive/util/health"
	"github.com/bsv-blockchain/teranode-archive/util/spawner"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	logger           ulogger.Logger
	settings         *settings.Settings
	blockchainStore  blockchain.Store
	stateStore       *state.Store
	spawner          *spawner.Spawner
	archive          *query.Archive
	httpServer       *httpimpl.HTTP
	centrifugeServer *centrifugeimpl.Centrifuge
}

func NewServer(logger ulogger.Logger, tSettings *settings.Settings, blockchainStore blockchain.Store, stateStore *state.Store, taskSpawner *spawner.Spawner) *Server {
	return &Server{
		logger:          logger,
		settings:        tSettings,
		blockchainStore: blockchainStore,
		stateStore:      stateStore,
		spawner:         taskSpawner,
	}
}

func (s *Server) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	checks := []health.Check{
		{Name: "BlockchainStore", Check: s.blockchainStore.Health},
		{Name: "StateStore", Check: s.stateStore.Health},
		{Name: "Spawner", Check: s.spawner.Health},
	}

	if s.httpServer != nil {
		checks = append(checks, health.Check{
			Name:  "HTTP",
			Check: health.CheckHTTPServer(httpAddress(s.settings.Archive.HTTPListenAddress), "/alive"),
		})
	}

	return health.CheckAll(ctx, checkLiveness, checks)
}

// httpAddress turns a listen address into a URL the health check can reach.
func httpAddress(listenAddress string) string {
	if strings.HasPrefix(listenAddress, ":") {
		return "http://localhost" + listenAddress
	}

	return "http://" + listenAddress
}

func (s *Server) Init(ctx context.Context) (err error) {
	if s.settings.Archive.HTTPListenAddress == "" {
		return errors.NewConfigurationError("no archive_httpListenAddress setting found")
	}

	if s.settings.ChainCfgParams == nil || s.settings.ChainCfgParams.GenesisHash == nil {
		return errors.NewConfigurationError("no chain params with a genesis hash configured")
	}

	genesis := s.settings.ChainCfgParams.GenesisHash

	s.archive = query.New(s.logger, s.settings, query.NewChainBackend(s.blockchainStore, s.stateStore), s.stateStore, s.spawner, genesis[:])

	s.logger.Infof("[Archive] serving %s, genesis %s", s.settings.ChainCfgParams.Name, s.archive.GenesisHash())

	s.httpServer, err = httpimpl.New(s.logger, s.settings, s.archive, s)
	if err != nil {
		return errors.NewServiceError("error creating http server", err)
	}

	if err = s.httpServer.Init(ctx); err != nil {
		return errors.NewServiceError("error initializing http server", err)
	}

	if !s.settings.Archive.CentrifugeDisable {
		s.centrifugeServer, err = centrifugeimpl.New(s.logger, s.settings, s.archive, s.httpServer)
		if err != nil {
			return errors.NewServiceError("error creating centrifuge server", err)
		}

		if err = s.centrifugeServer.Init(ctx); err != nil {
			return errors.NewServiceError("error initializing centrifuge server", err)
		}
	}

	return nil
}

// Start serves until ctx is done. readyCh is signalled once the servers are being started.
func (s *Server) Start(ctx context.Context, readyCh chan<- struct{}) error {
	g, ctx := errgroup.WithContext(ctx)

	if s.httpServer != nil {
		g.Go(func() error {
			err := s.httpServer.Start(ctx, s.settings.Archive.HTTPListenAddress)
			if err != nil {
				s.logger.Errorf("[Archive] error in http server: %v", err)
			}

			return err
		})
	}

	if s.centrifugeServer != nil {
		g.Go(func() error {
			return s.centrifugeServer.Start(ctx)
		})
	}

	if readyCh != nil {
		readyCh <- struct{}{}
	}

	if err := g.Wait(); err != nil {
		return errors.NewServiceError("the archive server has ended with error", err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		s.logger.Infof("[Archive] Stopping http server")

		if err := s.httpServer.Stop(ctx); err != nil {
			s.logger.Errorf("[Archive] error stopping http server: %v", err)
		}
	}

	if s.centrifugeServer != nil {
		if err := s.centrifugeServer.Stop(ctx); err != nil {
			s.logger.Errorf("[Archive] error stopping centrifuge server: %v", err)
		}
	}

	s.logger.Infof("[Archive] Stopping spawner, %d tasks running", s.spawner.Running())

	return s.spawner.Stop(ctx)
}
