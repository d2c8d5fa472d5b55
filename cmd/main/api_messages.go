package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/CTAG07/Mimic/pkg/corpus"
)

const (
	// maxImportBytes bounds the body of an import or batch insert.
	maxImportBytes = 64 << 20
	// maxRequestBytes bounds every other JSON request body.
	maxRequestBytes = 1 << 20
)

// MessagesAPI holds the dependencies for the message storage handlers.
type MessagesAPI struct {
	cm     *ConfigManager
	store  *corpus.Store
	logger *slog.Logger
}

func NewMessagesAPI(cm *ConfigManager, store *corpus.Store, logger *slog.Logger) *MessagesAPI {
	return &MessagesAPI{
		cm:     cm,
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/messages endpoints.
func (m *MessagesAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/messages", m.handleMessages)
	mux.HandleFunc("/api/messages/count", m.handleCount)
	mux.HandleFunc("/api/messages/latest", m.handleLatest)
	mux.HandleFunc("/api/messages/import", m.handleImport)
	mux.HandleFunc("/api/messages/export", m.handleExport)
	mux.HandleFunc("/api/messages/backup", m.handleBackup)
}

// queryFromURL reads the selection parameters shared by several endpoints.
func queryFromURL(r *http.Request) corpus.Query {
	params := r.URL.Query()
	q := corpus.Query{
		GuildID:   params.Get("guild_id"),
		ChannelID: params.Get("channel_id"),
		UserID:    params.Get("user_id"),
	}
	if limit, err := strconv.Atoi(params.Get("limit")); err == nil && limit > 0 {
		q.Limit = limit
	}
	return q
}

func (m *MessagesAPI) handleMessages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		m.insertMessages(w, r)
	case http.MethodDelete:
		m.deleteMessages(w, r)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (m *MessagesAPI) insertMessages(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeMessagesWrite) {
		return
	}

	var messages []corpus.Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBytes)).Decode(&messages); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}

	n, err := m.store.Insert(r.Context(), messages)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Failed to store messages: %v", err))
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]int{"received": len(messages), "inserted": n})
}

func (m *MessagesAPI) deleteMessages(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeMessagesWrite) {
		return
	}

	q := queryFromURL(r)
	if q.GuildID == "" {
		respondWithError(w, http.StatusBadRequest, "guild_id is required")
		return
	}

	n, err := m.store.Delete(r.Context(), q)
	if err != nil {
		m.logger.Error("Failed to delete messages", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to delete messages")
		return
	}
	m.logger.Info("Messages deleted", slog.String("guild_id", q.GuildID), slog.String("user_id", q.UserID), slog.Int("deleted", n))
	respondWithJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (m *MessagesAPI) handleCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeMessagesRead) {
		return
	}

	q := queryFromURL(r)
	if q.GuildID == "" {
		respondWithError(w, http.StatusBadRequest, "guild_id is required")
		return
	}

	n, err := m.store.Count(r.Context(), q)
	if err != nil {
		m.logger.Error("Failed to count messages", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"count": n})
}

// handleLatest returns the newest stored message in a channel, which is where
// an incremental import resumes from.
func (m *MessagesAPI) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeMessagesRead) {
		return
	}

	q := queryFromURL(r)
	if q.ChannelID == "" {
		respondWithError(w, http.StatusBadRequest, "channel_id is required")
		return
	}

	msg, err := m.store.Latest(r.Context(), q.ChannelID, q.UserID)
	if errors.Is(err, corpus.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "No messages stored for this channel")
		return
	}
	if err != nil {
		m.logger.Error("Failed to query latest message", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}
	respondWithJSON(w, http.StatusOK, msg)
}

func (m *MessagesAPI) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeMessagesWrite) {
		return
	}

	n, err := m.store.Import(r.Context(), http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Import failed: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (m *MessagesAPI) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeMessagesRead) {
		return
	}

	q := queryFromURL(r)
	if q.GuildID == "" {
		respondWithError(w, http.StatusBadRequest, "guild_id is required")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"mimic-%s.json\"", q.GuildID))
	if err := m.store.Export(r.Context(), q, w); err != nil {
		m.logger.Error("Failed to export messages", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Export failed")
	}
}

// BackupRequest selects the messages written by POST /api/messages/backup.
type BackupRequest struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
}

// handleBackup writes an export of a selection into <data_dir>/backups on the
// server and returns the file's path.
func (m *MessagesAPI) handleBackup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeServerControl) {
		return
	}

	var req BackupRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if req.GuildID == "" {
		respondWithError(w, http.StatusBadRequest, "guild_id is required")
		return
	}

	dir := filepath.Join(m.cm.Get().Server.DataDir, "backups")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		m.logger.Error("Failed to create backup directory", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Backup failed")
		return
	}

	name := fmt.Sprintf("mimic-%s-%s.json", safeFileComponent(req.GuildID), time.Now().UTC().Format("20060102T150405.000Z"))
	filename := filepath.Join(dir, name)
	q := corpus.Query{GuildID: req.GuildID, ChannelID: req.ChannelID, UserID: req.UserID}
	if err := m.store.ExportFile(r.Context(), q, filename); err != nil {
		m.logger.Error("Failed to write backup", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Backup failed")
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"path": filename})
}

// safeFileComponent keeps ids usable as part of a file name.
func safeFileComponent(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, s)
}
