// Package client is the consumer side of the ledger API: a thin HTTP
// client, a sync controller holding the loaded transaction state, and
// the submission form used by the terminal frontend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNetwork wraps transport failures and non-2xx responses. The
// controller treats both the same way: log and keep the current state.
var ErrNetwork = errors.New("network error")

// Wire vocabulary, mirrored from the API.
const (
	TypeIncoming = "entrada"
	TypeOutgoing = "saída"
)

// Record is a ledger entry as the API serves it.
type Record struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Type        string    `json:"type"`
	Date        time.Time `json:"date"`
}

type createRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Date        string  `json:"date"`
}

type errorBody struct {
	Error string `json:"error"`
}

// API talks to the ledger server.
type API struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func NewAPI(baseURL, token string) *API {
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ListTransactions fetches every entry, newest first.
func (a *API) ListTransactions(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/transactions", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	a.setHeaders(req)

	resp, err := a.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, a.statusError(resp)
	}

	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrNetwork, err)
	}
	return records, nil
}

// CreateTransaction submits a new entry and returns the persisted record.
func (a *API) CreateTransaction(ctx context.Context, description string, amount float64, txType string, date time.Time) (Record, error) {
	payload, err := json.Marshal(createRequest{
		Description: description,
		Amount:      amount,
		Type:        txType,
		Date:        date.Format(time.RFC3339),
	})
	if err != nil {
		return Record{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/transactions", bytes.NewReader(payload))
	if err != nil {
		return Record{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	a.setHeaders(req)

	resp, err := a.httpc.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return Record{}, a.statusError(resp)
	}

	var record Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return Record{}, fmt.Errorf("%w: decode response: %v", ErrNetwork, err)
	}
	return record, nil
}

func (a *API) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
}

// statusError turns a non-2xx response into an ErrNetwork carrying the
// server's message when one is present.
func (a *API) statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return fmt.Errorf("%w: server returned %d: %s", ErrNetwork, resp.StatusCode, eb.Error)
	}
	return fmt.Errorf("%w: server returned %d", ErrNetwork, resp.StatusCode)
}
