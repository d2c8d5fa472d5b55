package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/CTAG07/Mimic/pkg/corpus"
)

type Server struct {
	cm          *ConfigManager
	db          *sql.DB
	logger      *slog.Logger
	store       *corpus.Store
	authAPI     *AuthAPI
	markovAPI   *MarkovAPI
	statsAPI    *StatsAPI
	messagesAPI *MessagesAPI
	serverAPI   *ServerAPI
	apiMux      *http.ServeMux
}

func NewServer(cm *ConfigManager, logger *slog.Logger, db *sql.DB, actionChan chan string) (*Server, error) {
	store, err := corpus.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create corpus store: %w", err)
	}
	store.SetLogger(logger)

	server := &Server{
		cm:          cm,
		db:          db,
		logger:      logger,
		store:       store,
		authAPI:     NewAuthAPI(db, logger),
		markovAPI:   NewMarkovAPI(cm, store, logger),
		statsAPI:    NewStatsAPI(cm, store, logger),
		messagesAPI: NewMessagesAPI(cm, store, logger),
		serverAPI:   NewServerAPI(cm, actionChan, logger),
		apiMux:      http.NewServeMux(),
	}

	apiMux := http.NewServeMux()

	server.authAPI.RegisterRoutes(apiMux)
	server.markovAPI.RegisterRoutes(apiMux)
	server.statsAPI.RegisterRoutes(apiMux)
	server.messagesAPI.RegisterRoutes(apiMux)
	server.serverAPI.RegisterRoutes(apiMux)

	// Make sure api functions must pass through authentication first
	authedAPI := server.authAPI.Authenticate(apiMux)
	// ... except for the health check, which is unauthed so something like docker can use it
	server.apiMux.HandleFunc("/api/health", server.serverAPI.handleHealthCheck)
	server.apiMux.Handle("/api/", authedAPI)

	return server, nil
}

// Close releases the prepared statements held by the server.
func (s *Server) Close() {
	s.store.Close()
}
