package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/timgluz/soilflag/flagstore"
	"github.com/timgluz/soilflag/metrics"
	"github.com/timgluz/soilflag/middleware"
	"github.com/timgluz/soilflag/reading"
	"github.com/timgluz/soilflag/response"
	"github.com/timgluz/soilflag/secret"
)

const shutdownTimeout = 10 * time.Second

var (
	ErrInvalidUID   = fmt.Errorf("uid must be an integer")
	ErrFlagNotFound = fmt.Errorf("no flag stored for uid")
)

type FlagResponse struct {
	UID  reading.UID    `json:"uid"`
	Flag flagstore.Flag `json:"qflag"`
	Good bool           `json:"good"`
}

// Server serves the persisted flags read-only. The store is loaded once
// from the repository and can be refreshed with Reload.
type Server struct {
	repo        flagstore.Repository
	secretStore secret.Store
	recorder    *metrics.Recorder

	mu    sync.RWMutex
	store *flagstore.Store

	logger *slog.Logger
}

// New builds a server. A nil secretStore disables authentication.
func New(repo flagstore.Repository, secretStore secret.Store, recorder *metrics.Recorder, logger *slog.Logger) *Server {
	return &Server{
		repo:        repo,
		secretStore: secretStore,
		recorder:    recorder,
		logger:      logger,
	}
}

func (s *Server) IsReady() bool {
	if s.logger == nil {
		fmt.Println("Logger of flag server is not initialized")
		return false
	}

	if s.repo == nil || !s.repo.IsReady() {
		s.logger.Error("Flag repository is not ready")
		return false
	}

	return true
}

// Reload replaces the served flags with the repository content.
func (s *Server) Reload(ctx context.Context) error {
	store, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Error("Failed to load flag store", "error", err)
		return err
	}

	s.mu.Lock()
	s.store = store
	s.mu.Unlock()

	s.recorder.SetStoreSize(store.Len())
	s.logger.Info("Flag store loaded", "entries", store.Len())
	return nil
}

func (s *Server) currentStore() *flagstore.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return flagstore.NewStore()
	}
	return s.store
}

func (s *Server) Router() http.Handler {
	router := httprouter.New()
	router.GET("/flags", s.protect(s.listFlagsHandler))
	router.GET("/flags/:uid", s.protect(s.flagHandler))
	router.GET("/healthz", s.healthHandler)
	router.Handler(http.MethodGet, "/metrics", s.recorder.Handler())

	router.NotFound = response.NewNotFoundHandler(s.logger)
	router.MethodNotAllowed = response.NewMethodNotAllowedHandler(s.logger)
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		s.logger.Error("Handler panicked", "path", r.URL.Path, "panic", v)
		response.RenderFatal(w, fmt.Errorf("internal server error"))
	}
	return router
}

func (s *Server) protect(h httprouter.Handle) httprouter.Handle {
	if s.secretStore == nil {
		return h
	}
	return middleware.BearerAuth(h, s.secretStore, s.logger)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if !s.IsReady() {
		return flagstore.ErrRepositoryNotReady
	}

	if err := s.Reload(ctx); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Flag server listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Info("Shutting down flag server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down flag server: %w", err)
		}
		<-errCh
		return nil
	}
}

func (s *Server) listFlagsHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pagination := response.NewPaginationFromRequest(r)

	decisions, total := s.currentStore().Page(pagination.Offset, pagination.Limit)
	items := make([]FlagResponse, 0, len(decisions))
	for _, d := range decisions {
		items = append(items, FlagResponse{UID: d.UID, Flag: d.Flag, Good: d.Flag.IsGood()})
	}

	s.logger.Debug("Listing flags", "offset", pagination.Offset, "limit", pagination.Limit, "total", total)
	response.RenderJSONResponse(w, response.NewCollectionResponse(items, pagination.WithTotal(total)))
}

func (s *Server) flagHandler(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	raw := params.ByName("uid")
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.RenderError(w, fmt.Errorf("%w: %q", ErrInvalidUID, raw), http.StatusBadRequest)
		return
	}

	uid := reading.UID(value)
	flag, ok := s.currentStore().Get(uid)
	if !ok {
		response.RenderError(w, fmt.Errorf("%w %d", ErrFlagNotFound, uid), http.StatusNotFound)
		return
	}

	response.RenderJSONResponse(w, FlagResponse{UID: uid, Flag: flag, Good: flag.IsGood()})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	status := "ok"
	code := http.StatusOK
	if !s.repo.IsReady() {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	response.RenderJSONWithStatus(w, response.HealthResponse{Status: status, StoreSize: s.currentStore().Len()}, code)
}
