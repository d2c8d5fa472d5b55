package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/CTAG07/Mimic/pkg/corpus"
	"github.com/CTAG07/Mimic/pkg/markov"
)

// MarkovAPI holds the dependencies for the generation handlers. Every request
// builds a fresh index from the stored messages it selects.
type MarkovAPI struct {
	cm     *ConfigManager
	store  *corpus.Store
	logger *slog.Logger
}

// NewMarkovAPI creates a new instance of the MarkovAPI.
func NewMarkovAPI(cm *ConfigManager, store *corpus.Store, logger *slog.Logger) *MarkovAPI {
	return &MarkovAPI{
		cm:     cm,
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/markov endpoints.
func (m *MarkovAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/markov/impersonate", m.handleImpersonate)
	mux.HandleFunc("/api/markov/index", m.handleIndexInfo)
}

// ImpersonateRequest is the expected JSON body for an impersonation.
type ImpersonateRequest struct {
	GuildID   string `json:"guild_id"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Query     string `json:"query"`
	// Limit overrides generation_config.message_limit when positive.
	Limit int `json:"limit"`
	// Seed makes shuffling and sampling reproducible.
	Seed *uint64 `json:"seed,omitempty"`
}

// ImpersonateResponse is returned for a successful impersonation.
type ImpersonateResponse struct {
	markov.Result
	Samples int `json:"samples"`
}

// IndexInfo summarizes an index built for a selection.
type IndexInfo struct {
	Samples     int `json:"samples"`
	Keys        int `json:"keys"`
	StartKeys   int `json:"start_keys"`
	TotalTokens int `json:"total_tokens"`
	MinOrder    int `json:"min_order"`
	MaxOrder    int `json:"max_order"`
}

// selection is what the markov and stats handlers need after loading samples.
type selection struct {
	index   *markov.Index
	samples int
}

// newRand returns a source seeded from seed, or from the global source.
func newRand(seed *uint64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewPCG(*seed, *seed))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// buildSelection loads the samples for q and compiles them with the current
// model. A nil rng keeps the stored order so reports are reproducible.
func buildSelection(ctx context.Context, cm *ConfigManager, store *corpus.Store, q corpus.Query, rng *rand.Rand) (*selection, error) {
	samples, err := store.Samples(ctx, q, rng)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, markov.ErrEmptyCorpus
	}

	index, err := cm.Model().Build(ctx, samples)
	if err != nil {
		return nil, err
	}
	return &selection{index: index, samples: len(samples)}, nil
}

// requestTimeout bounds build plus generation for one request.
func requestTimeout(cm *ConfigManager) time.Duration {
	if ms := cm.Get().Generation.TimeoutMs; ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return 0
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// respondWithMarkovError maps generation failures to statuses and the messages
// shown to users.
func respondWithMarkovError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, markov.ErrEmptyCorpus), errors.Is(err, markov.ErrNoStartCandidates):
		respondWithError(w, http.StatusNotFound, "No messages found. Import messages first.")
	case errors.Is(err, markov.ErrDegenerateOutput):
		respondWithError(w, http.StatusUnprocessableEntity, "Failed to generate message. Try a different query.")
	case errors.Is(err, context.DeadlineExceeded):
		respondWithError(w, http.StatusServiceUnavailable, "Generation timed out")
	default:
		logger.Error("Markov request failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Generation failed: %v", err))
	}
}

func (m *MarkovAPI) handleImpersonate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeMarkovRead) {
		return
	}

	var req ImpersonateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if req.GuildID == "" {
		respondWithError(w, http.StatusBadRequest, "guild_id is required")
		return
	}

	ctx, cancel := withTimeout(r.Context(), requestTimeout(m.cm))
	defer cancel()

	q := corpus.Query{GuildID: req.GuildID, ChannelID: req.ChannelID, UserID: req.UserID, Limit: req.Limit}
	if q.Limit <= 0 {
		q.Limit = m.cm.Get().Generation.MessageLimit
	}
	rng := newRand(req.Seed)
	sel, err := buildSelection(ctx, m.cm, m.store, q, rng)
	if err != nil {
		respondWithMarkovError(w, m.logger, err)
		return
	}

	gen, err := markov.NewGenerator(sel.index, rng)
	if err != nil {
		respondWithMarkovError(w, m.logger, err)
		return
	}
	gen.SetLogger(m.logger)

	cfg := m.cm.Get()
	result, err := gen.Impersonate(ctx, req.Query, cfg.Generation.Stop, markov.WithMaxSteps(cfg.Generation.MaxSteps))
	if err != nil {
		respondWithMarkovError(w, m.logger, err)
		return
	}

	m.logger.Info("Impersonation generated",
		slog.String("guild_id", req.GuildID),
		slog.String("user_id", req.UserID),
		slog.Int("samples", sel.samples),
		slog.Int("tokens", len(result.Tokens)),
	)
	respondWithJSON(w, http.StatusOK, ImpersonateResponse{Result: *result, Samples: sel.samples})
}

// handleIndexInfo builds the index for a selection and reports its size.
func (m *MarkovAPI) handleIndexInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeMarkovRead) {
		return
	}

	q := queryFromURL(r)
	if q.GuildID == "" {
		respondWithError(w, http.StatusBadRequest, "guild_id is required")
		return
	}

	ctx, cancel := withTimeout(r.Context(), requestTimeout(m.cm))
	defer cancel()

	sel, err := buildSelection(ctx, m.cm, m.store, q, nil)
	if err != nil {
		respondWithMarkovError(w, m.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, IndexInfo{
		Samples:     sel.index.Samples(),
		Keys:        sel.index.Len(),
		StartKeys:   len(sel.index.StartKeys()),
		TotalTokens: sel.index.TotalTokens(),
		MinOrder:    sel.index.MinOrder(),
		MaxOrder:    sel.index.MaxOrder(),
	})
}
