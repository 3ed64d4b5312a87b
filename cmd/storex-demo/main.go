package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/comalice/storex"
	"github.com/comalice/storex/internal/todos"
	"github.com/comalice/storex/middleware"
	"github.com/comalice/storex/persist"
)

func main() {
	var (
		persistKind = flag.String("persist", env("STOREX_PERSIST", "json"), "snapshot backend: json|yaml|sqlite|postgres|s3|none")
		dir         = flag.String("dir", env("STOREX_DIR", "snapshots"), "directory for json/yaml snapshots")
		sqlitePath  = flag.String("sqlite", env("STOREX_SQLITE_PATH", "storex.db"), "sqlite database path")
		dsn         = flag.String("dsn", env("STOREX_PG_DSN", ""), "postgres DSN")
		storeID     = flag.String("id", env("STOREX_STORE_ID", "todos"), "store ID used for snapshots")
		metricsAddr = flag.String("metrics-addr", env("STOREX_METRICS_ADDR", ""), "serve Prometheus metrics on this address")
		cycles      = flag.Int("cycles", 9, "number of scripted steps")
		maxTodos    = flag.Int("max-todos", 10, "reject adds beyond this many todos")
		interval    = flag.Duration("interval", 500*time.Millisecond, "delay between steps")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "storex-demo ", log.LstdFlags)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, config{
		persist:     *persistKind,
		dir:         *dir,
		sqlitePath:  *sqlitePath,
		dsn:         *dsn,
		storeID:     *storeID,
		metricsAddr: *metricsAddr,
		cycles:      *cycles,
		maxTodos:    *maxTodos,
		interval:    *interval,
	}); err != nil {
		logger.Fatal(err)
	}
}

type config struct {
	persist     string
	dir         string
	sqlitePath  string
	dsn         string
	storeID     string
	metricsAddr string
	cycles      int
	maxTodos    int
	interval    time.Duration
}

func run(ctx context.Context, logger *log.Logger, cfg config) error {
	p, closeP, err := openPersister(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeP(); err != nil {
			logger.Printf("close persister: %v", err)
		}
	}()

	reg := prometheus.NewRegistry()
	metrics, err := middleware.NewMetrics(reg)
	if err != nil {
		return err
	}
	if cfg.metricsAddr != "" {
		srv := &http.Server{Addr: cfg.metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("metrics server: %v", err)
			}
		}()
		defer func() { _ = srv.Close() }()
		logger.Printf("serving metrics on %s/metrics", cfg.metricsAddr)
	}

	publishCh := make(chan middleware.PublishedAction, 100)
	mws := []storex.Middleware[storex.Tree]{
		middleware.Thunks[storex.Tree](),
		middleware.Logger[storex.Tree](logger),
		middleware.Instrument[storex.Tree](metrics, cfg.storeID),
		middleware.Guard(func(state storex.Tree, a storex.Action) bool {
			list, _ := storex.Slice[[]todos.Todo](state, "todos")
			return a.Type != todos.ActionAdd || len(list) < cfg.maxTodos
		}),
		middleware.Publish[storex.Tree](middleware.NewChannelPublisher(publishCh), cfg.storeID),
	}

	opts := []storex.Option[storex.Tree]{storex.WithName[storex.Tree](cfg.storeID), storex.WithLogger[storex.Tree](logger)}
	if p != nil {
		mws = append(mws, middleware.Persist[storex.Tree](p, cfg.storeID, middleware.WithLogger(logger)))
		restore, err := middleware.Rehydrate[storex.Tree](ctx, p, cfg.storeID)
		if err != nil {
			return err
		}
		if restore != nil {
			logger.Printf("restored %s from %s snapshot", cfg.storeID, cfg.persist)
		}
		opts = append(opts, restore)
	}
	opts = append(opts, storex.WithEnhancer(storex.ApplyMiddleware(mws...)))

	reducer, err := todos.Reducer(logger)
	if err != nil {
		return err
	}
	st, err := storex.New(reducer, opts...)
	if err != nil {
		return err
	}
	defer st.Close()

	actions, err := storex.BindActionCreators(todos.Creators(), st.Dispatch)
	if err != nil {
		return err
	}
	script := demoScript(st, actions)

	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()
	for step := 0; step < cfg.cycles; step++ {
		select {
		case <-ctx.Done():
			fmt.Println("\nShutting down gracefully...")
			return nil
		case <-ticker.C:
		}

		if err := script[step%len(script)](); err != nil {
			logger.Printf("step %d: %v", step+1, err)
		}
		fmt.Printf("\n--- Step %d ---\n", step+1)
		printState(st.GetState())
		drainPublished(publishCh)
	}
	fmt.Printf("Demo complete after %d steps.\n", cfg.cycles)
	return nil
}

func demoScript(st *storex.Store[storex.Tree], actions map[string]storex.BoundActionCreator) []func() error {
	call := func(name string, args ...any) func() error {
		return func() error {
			_, err := actions[name](args...)
			return err
		}
	}
	return []func() error{
		call("add", "write the reducer"),
		call("add", "wire the middleware"),
		call("toggle", 0),
		call("setFilter", todos.ShowActive),
		call("add", "ship it"),
		call("setFilter", todos.ShowAll),
		call("toggle", 1),
		call("clearCompleted"),
		func() error {
			// Thunk: finish everything that is still open.
			_, err := st.Dispatch(middleware.Thunk[storex.Tree](func(dispatch storex.Dispatcher, getState func() storex.Tree) (any, error) {
				list, _ := storex.Slice[[]todos.Todo](getState(), "todos")
				for _, t := range list {
					if t.Done {
						continue
					}
					if _, err := dispatch(storex.NewAction(todos.ActionToggle, t.ID)); err != nil {
						return nil, err
					}
				}
				return len(list), nil
			}))
			return err
		},
	}
}

func printState(state storex.Tree) {
	filter, _ := storex.Slice[string](state, "visibility")
	fmt.Printf("filter: %s\n", filter)
	for _, t := range todos.Visible(state) {
		mark := " "
		if t.Done {
			mark = "x"
		}
		fmt.Printf("  [%s] %d %s\n", mark, t.ID, t.Text)
	}
}

func drainPublished(ch <-chan middleware.PublishedAction) {
	for {
		select {
		case pa := <-ch:
			fmt.Printf("Published: %s (%s)\n", pa.Action.Type, pa.ID)
		default:
			return
		}
	}
}

func openPersister(ctx context.Context, cfg config) (persist.Persister, func() error, error) {
	noop := func() error { return nil }
	switch cfg.persist {
	case "none", "":
		return nil, noop, nil
	case "json":
		p, err := persist.NewJSONPersister(cfg.dir)
		return p, noop, err
	case "yaml":
		p, err := persist.NewYAMLPersister(cfg.dir)
		return p, noop, err
	case "sqlite":
		p, err := persist.OpenSQLite(ctx, cfg.sqlitePath)
		if err != nil {
			return nil, noop, err
		}
		return p, p.Close, nil
	case "postgres":
		p, err := persist.OpenPostgres(ctx, cfg.dsn)
		if err != nil {
			return nil, noop, err
		}
		return p, p.Close, nil
	case "s3":
		s3cfg, err := persist.S3ConfigFromEnv()
		if err != nil {
			return nil, noop, err
		}
		p, err := persist.NewS3Persister(ctx, s3cfg)
		return p, noop, err
	default:
		return nil, noop, fmt.Errorf("unknown persist backend %q", cfg.persist)
	}
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
