package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-todo-go/internal/account"
	accountrepo "github.com/ovaphlow/pitchfork/service-todo-go/internal/account/repo"
	"github.com/ovaphlow/pitchfork/service-todo-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-todo-go/internal/todo"
	todorepo "github.com/ovaphlow/pitchfork/service-todo-go/internal/todo/repo"
	"github.com/ovaphlow/pitchfork/service-todo-go/internal/token"
	tokenrepo "github.com/ovaphlow/pitchfork/service-todo-go/internal/token/repo"
	"github.com/ovaphlow/pitchfork/service-todo-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-todo-go/pkg/utilities"
)

type stores struct {
	users   account.Store
	items   todo.Store
	revoked token.RevocationStore
	close   func() error
}

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-todo-go")

	tokenCfg, err := token.ConfigFromEnv()
	if err != nil {
		sugar.Fatalf("token config: %v", err)
	}

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, database.ConfigFromEnv(), sugar)
	if err != nil {
		sugar.Fatalf("storage: %v", err)
	}
	defer st.close()

	tokens, err := token.NewService(tokenCfg, st.revoked)
	if err != nil {
		sugar.Fatalf("token service: %v", err)
	}
	accounts := account.NewService(st.users, st.items, account.BcryptHasher{Cost: bcryptCostFromEnv()})
	todos := todo.NewService(st.items, accounts)

	go tokens.RunSweeper(ctx, 10*time.Minute, sugar)

	handler := router.RegisterRoutes(router.Deps{
		Logger:   sugar,
		Tokens:   tokens,
		Accounts: accounts,
		Todos:    todos,
	})
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8431"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// run server in background
	go func() {
		sugar.Infow("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}

func openStores(ctx context.Context, cfg database.Config, sugar *zap.SugaredLogger) (*stores, error) {
	if cfg.Driver == database.DriverMemory {
		sugar.Warn("using in-memory storage; data is lost on restart")
		return &stores{
			users:   accountrepo.NewMemoryUserRepo(),
			items:   todorepo.NewMemoryTodoRepo(),
			revoked: tokenrepo.NewMemoryRevocations(),
			close:   func() error { return nil },
		}, nil
	}
	if cfg.Driver != database.DriverPostgres {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Driver)
	}

	db, err := database.ConnectX(cfg)
	if err != nil {
		return nil, err
	}
	users := accountrepo.NewUserRepo(db)
	items := todorepo.NewTodoRepo(db)
	revoked := tokenrepo.NewRevocationRepo(db)

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	// users before todo_items: the latter references the former
	for _, ensure := range []func(context.Context) error{users.EnsureTable, items.EnsureTable, revoked.EnsureTable} {
		if err := ensure(initCtx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	return &stores{users: users, items: items, revoked: revoked, close: db.Close}, nil
}

func bcryptCostFromEnv() int {
	if v, err := strconv.Atoi(os.Getenv("BCRYPT_COST")); err == nil && v > 0 {
		return v
	}
	return 12
}
