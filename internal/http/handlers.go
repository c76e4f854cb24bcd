package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"carteira/internal/core"
	"carteira/internal/storage"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	// "/" on the stdlib mux is a catch-all.
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("API funcionando!"))
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	case http.MethodGet:
		s.handleListTransactions(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	// Writes are rate limited; reads are not.
	clientIP := extractClientIP(r)
	if !s.limiter.Allow(clientIP) {
		slog.WarnContext(r.Context(), "Rate limit exceeded",
			"client_ip", clientIP, "path", r.URL.Path)
		w.Header().Set("Retry-After", "60")
		respondError(w, http.StatusTooManyRequests, msgRateLimited)
		return
	}

	var req createTransactionRequest
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil {
		slog.WarnContext(r.Context(), "Malformed request body", "error", err)
		respondError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	tx, err := req.toCore()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	saved, err := s.ledger.CreateTransaction(r.Context(), tx)
	if err != nil {
		if core.IsValidationError(err) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Create transaction failed", "error", err)
		respondError(w, http.StatusInternalServerError, msgCreateFailed)
		return
	}

	s.listCache.Delete(listCacheKey)

	respondJSON(w, http.StatusCreated, recordFromCore(saved))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.listTransactionsCached(r.Context())
	if err != nil {
		if errors.Is(err, storage.ErrStorageUnavailable) {
			slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		} else {
			slog.ErrorContext(r.Context(), "Unexpected list error", "error", err)
		}
		respondError(w, http.StatusInternalServerError, msgListFailed)
		return
	}

	respondJSON(w, http.StatusOK, recordsFromCore(txs))
}

func (s *Server) listTransactionsCached(ctx context.Context) ([]core.Transaction, error) {
	if txs, found := s.listCache.Get(listCacheKey); found {
		result := make([]core.Transaction, len(txs))
		copy(result, txs)
		return result, nil
	}

	txs, err := s.ledger.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}

	s.listCache.Set(listCacheKey, txs)
	return txs, nil
}
