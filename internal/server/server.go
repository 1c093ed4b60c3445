package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/localrag/internal/adapter/utils"
	"github.com/akolanti/localrag/internal/config"
	"github.com/akolanti/localrag/internal/middleware"
	"github.com/akolanti/localrag/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

var (
	server  *http.Server
	_logger = logger_i.NewLogger("Server")
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// Routes mounts the API next to /metrics.
func Routes() *chi.Mux {
	r := utils.NewRouter()

	r.Get("/health", middleware.GetHandler)

	r.Route("/collections", func(c chi.Router) {
		c.Post("/", middleware.CreateCollectionHandler)
		c.Get("/", middleware.ListCollectionsHandler)
		c.Get("/{name}", middleware.GetCollectionHandler)
		c.Delete("/{name}", middleware.DeleteCollectionHandler)
		c.Get("/{name}/documents", middleware.ListDocumentsHandler)
		c.Delete("/{name}/documents", middleware.RemoveDocumentsHandler)
	})

	r.Post("/search", middleware.SearchHandler)
	r.Post("/index", middleware.PostIndexHandler)
	r.Get("/status/{id}", middleware.GetStatusHandler)
	return r
}

func CreateServer(listenAddr string) {
	server = &http.Server{
		Addr:         listenAddr,
		Handler:      Routes(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err.Error(), "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		if server != nil {
			server.SetKeepAlivesEnabled(false)
			if err := server.Shutdown(ctx); err != nil {
				_logger.Error("Could not shutdown gracefully", "err", err)
			}
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully shut down")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}
