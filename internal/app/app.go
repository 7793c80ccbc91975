package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/drstein77/shopflow/internal/cart"
	"github.com/drstein77/shopflow/internal/checkout"
	"github.com/drstein77/shopflow/internal/config"
	"github.com/drstein77/shopflow/internal/controllers"
	"github.com/drstein77/shopflow/internal/dbkeeper"
	"github.com/drstein77/shopflow/internal/logger"
	"github.com/drstein77/shopflow/internal/middleware"
	"github.com/drstein77/shopflow/internal/order"
	"github.com/drstein77/shopflow/internal/repository"
	"github.com/drstein77/shopflow/internal/storage"
	"github.com/go-chi/chi"
	"go.uber.org/zap"
)

type Server struct {
	srv *http.Server
	ctx context.Context
	Log *logger.Logger

	mu      sync.Mutex
	closers []func()
}

// NewServer wires the storefront described by option. The backends are
// connected here; Serve only starts listening.
func NewServer(ctx context.Context, option *config.Options, log *logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}
	server := &Server{ctx: ctx, Log: log}

	handler, err := server.build(option)
	if err != nil {
		server.close()
		return nil, err
	}
	// configure the server
	server.srv = startServer(handler, option.RunAddr())
	return server, nil
}

// Serve listens until Shutdown is called.
func (server *Server) Serve() {
	server.Log.Info("Server started", zap.String("addr", server.srv.Addr))

	err := server.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		server.Log.Error("Server stopped", zap.Error(err))
		server.close()
		return
	}
	// wait for Shutdown to drain requests and close the backends
	<-server.ctx.Done()
}

func (server *Server) build(option *config.Options) (http.Handler, error) {
	nLogger := server.Log

	catalog, err := server.newCatalog(option)
	if err != nil {
		return nil, err
	}
	slots, err := server.newSlots(option)
	if err != nil {
		return nil, err
	}

	shopperCart := cart.New(slots, nLogger.With(zap.String("component", "cart")))
	if err := shopperCart.Load(server.ctx); err != nil {
		return nil, err
	}
	orders := order.NewLastOrderStore(slots, nLogger)
	machine := checkout.New(
		shopperCart,
		order.NewBuilder(),
		orders,
		checkout.NewSimulatedGateway(option.PaymentDelay()),
		nLogger.With(zap.String("component", "checkout")),
	)

	basecontr := controllers.NewBaseController(catalog, shopperCart, machine, orders, nLogger)

	// create router and mount routes
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(nLogger))
	r.Mount("/", basecontr.Route())

	return middleware.Tracing("shopflow", "/api/v0/ping")(r), nil
}

// newCatalog picks Postgres when a DSN is configured, otherwise the built-in
// demo catalog.
func (server *Server) newCatalog(option *config.Options) (repository.Repository, error) {
	if option.DataBaseDSN() == "" {
		server.Log.Info("No database configured, serving the built-in catalog")
		return repository.NewSeededMemory(server.Log), nil
	}

	keeper, err := dbkeeper.NewDBKeeper(server.ctx, option.DataBaseDSN, option.MigrationsPath, server.Log)
	if err != nil {
		return nil, err
	}
	server.closers = append(server.closers, func() { keeper.Close() })

	if err := keeper.SeedIfEmpty(server.ctx, repository.SeedProducts()); err != nil {
		server.Log.Warn("Failed to seed catalog", zap.Error(err))
	}
	return keeper, nil
}

// newSlots picks Redis for the cart and last-order slots when configured.
func (server *Server) newSlots(option *config.Options) (storage.Store, error) {
	if option.RedisURL() == "" {
		return storage.NewMemoryStorage(server.Log), nil
	}

	rs, err := storage.NewRedisStorage(server.ctx, option.RedisURL(), server.Log)
	if err != nil {
		return nil, err
	}
	server.closers = append(server.closers, func() { rs.Close() })
	return rs, nil
}

func startServer(handler http.Handler, addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Shutdown stops accepting requests and waits up to timeout for in-flight
// ones, including pending payments, before closing the backends.
func (server *Server) Shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.srv.Shutdown(ctx); err != nil {
		server.Log.Error("Server shutdown failed", zap.Error(err))
	}
	server.close()
	server.Log.Info("Server stopped")
	_ = server.Log.Sync()
}

func (server *Server) close() {
	server.mu.Lock()
	defer server.mu.Unlock()
	for i := len(server.closers) - 1; i >= 0; i-- {
		server.closers[i]()
	}
	server.closers = nil
}
