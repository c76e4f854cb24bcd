package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Static error bodies. The exact strings are part of the API contract
// with existing clients, do not translate them.
const (
	msgCreateFailed   = "Erro ao criar transação"
	msgListFailed     = "Erro ao buscar transações"
	msgInvalidRequest = "Requisição inválida"
	msgRateLimited    = "Limite de requisições excedido"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
