// Package app wires configuration, storage, transport, generation and
// the scan agent into one runnable unit.
package app

import (
	"context"
	"strings"
	"sync"

	"tokenherald/internal/config"
	"tokenherald/internal/generate"
	"tokenherald/internal/server"
	"tokenherald/internal/services/agent"
	"tokenherald/internal/services/status"
	"tokenherald/internal/storage"
	"tokenherald/internal/transport"
	"tokenherald/internal/transport/telegram"
	"tokenherald/pkg/logx"
)

type App struct {
	cfgPath string
	cfgm    *config.Manager

	logs *logx.Service
	log  logx.Logger

	store   storage.Store
	limited *transport.LimitedPublisher
	llm     *generate.LLMClient

	status *status.Service
	agent  *agent.Service
	server *server.Service

	cfgCh       chan *config.Config
	watchCancel context.CancelFunc
	wg          sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogConfig(cfg))
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	store, err := storage.Open(storage.Config{
		Driver:      cfg.Store.Driver,
		Path:        cfg.Store.Path,
		BusyTimeout: cfg.Store.BusyTimeoutOrDefault(),
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	st := status.New(cfg.Scanner.HistorySize, log.With(logx.String("comp", "status")))

	// Publisher is optional: without a token the pipeline still scans
	// and evaluates, it just never sends.
	var (
		pub     transport.Publisher
		limited *transport.LimitedPublisher
	)
	if strings.TrimSpace(cfg.Publisher.Token) != "" {
		tg, err := telegram.New(telegram.Config{
			Token:  cfg.Publisher.Token,
			ChatID: cfg.Publisher.ChatID,
		}, log.With(logx.String("comp", "telegram")))
		if err != nil {
			_ = store.Close()
			_ = logSvc.Close()
			return nil, err
		}
		limited = transport.Limit(tg, transport.Budget{
			Quota:  cfg.Publisher.QuotaOrDefault(),
			Window: cfg.Publisher.WindowOrDefault(),
		})
		pub = limited
		st.SetChannelConnected(tg.Connected())
	} else {
		log.Warn("publisher token not set, announcements disabled")
	}

	var (
		llm     *generate.LLMClient
		primary generate.Generator
	)
	if strings.TrimSpace(cfg.Generator.Endpoint) != "" {
		llm = generate.NewLLMClient(generate.LLMConfig{
			Endpoint: cfg.Generator.Endpoint,
			Model:    cfg.Generator.Model,
			APIKey:   cfg.Generator.APIKey,
			Timeout:  cfg.Generator.TimeoutOrDefault(),
		})
		primary = llm
	}
	st.SetGeneratorAvailable(llm != nil && llm.Available())
	chain := generate.NewChain(primary, log.With(logx.String("comp", "generate")))

	ag := agent.New(mapAgentConfig(cfg), agent.Deps{
		Store:     store,
		Generator: chain,
		Publisher: pub,
		Status:    st,
		Log:       log.With(logx.String("comp", "agent")),
	})

	var srv *server.Service
	if cfg.Server.Enabled {
		srv = server.New(server.Config{Addr: cfg.Server.AddrOrDefault()},
			ag, st, log.With(logx.String("comp", "server")))
	}

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		logs:    logSvc,
		log:     log,
		store:   store,
		limited: limited,
		llm:     llm,
		status:  st,
		agent:   ag,
		server:  srv,
	}, nil
}

// Status exposes the live pipeline state, mainly for embedding and tests.
func (a *App) Status() *status.Service { return a.status }

func (a *App) Start(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(context.Background())
	a.watchCancel = cancel
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(watchCtx); err != nil && watchCtx.Err() == nil {
			a.log.Warn("config watch exited", logx.Err(err))
		}
	}()

	a.cfgCh = a.cfgm.Subscribe(4)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for cfg := range a.cfgCh {
			a.applyConfig(cfg)
		}
	}()

	if a.server != nil {
		if err := a.server.Start(ctx); err != nil {
			return err
		}
	}
	if err := a.agent.Start(ctx); err != nil {
		return err
	}
	a.log.Info("herald started")
	return nil
}

func (a *App) Stop(ctx context.Context) {
	a.agent.Stop(ctx)
	if a.server != nil {
		a.server.Stop(ctx)
	}
	if a.watchCancel != nil {
		a.watchCancel()
	}
	if a.cfgCh != nil {
		a.cfgm.Unsubscribe(a.cfgCh)
	}
	a.wg.Wait()
	if err := a.store.Close(); err != nil {
		a.log.Warn("store close", logx.Err(err))
	}
	a.log.Info("herald stopped")
	_ = a.logs.Close()
}

// applyConfig pushes a reloaded file into the running services. The
// store path, publisher token and server address stay fixed until
// restart; everything tunable hot-swaps here.
func (a *App) applyConfig(cfg *config.Config) {
	a.log.Info("applying reloaded config")
	a.logs.Apply(mapLogConfig(cfg))
	a.agent.Apply(mapAgentConfig(cfg))
	if a.limited != nil {
		a.limited.SetBudget(transport.Budget{
			Quota:  cfg.Publisher.QuotaOrDefault(),
			Window: cfg.Publisher.WindowOrDefault(),
		})
	}
}
