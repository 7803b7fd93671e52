package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bloghub/apiserver/config"
	"github.com/bloghub/apiserver/internal/auth"
	"github.com/bloghub/apiserver/internal/db"
	"github.com/bloghub/apiserver/internal/graph"
	"github.com/bloghub/apiserver/internal/services"
	"github.com/bloghub/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/graph-gophers/graphql-go/relay"
	"go.mongodb.org/mongo-driver/mongo"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	database   *mongo.Database
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	database, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureIndexes(ctx, database); err != nil {
		_ = database.Client().Disconnect(context.Background())
		return nil, err
	}

	userRepo := store.NewUserRepository(database)
	blogRepo := store.NewBlogRepository(database)

	userService := services.NewUserService(userRepo)
	blogService := services.NewBlogService(blogRepo)

	tokens := auth.NewManager(cfg.JWTSecret)
	resolver := graph.NewResolver(userService, blogService, tokens)
	schema := graph.MustParseSchema(resolver)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", healthz)
	router.With(auth.Middleware(tokens)).Handle("/graphql", &relay.Handler{Schema: schema})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		database:   database,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.database != nil {
		_ = s.database.Client().Disconnect(ctx)
	}
	return s.httpServer.Shutdown(ctx)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
