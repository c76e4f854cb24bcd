package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"carteira/internal/core"
	"carteira/internal/storage"
)

type fakeLedger struct {
	txs       []core.Transaction
	nextID    int64
	createErr error
	listErr   error
}

func (f *fakeLedger) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if f.createErr != nil {
		return core.Transaction{}, f.createErr
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now()
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	f.nextID++
	tx.ID = f.nextID
	f.txs = append([]core.Transaction{tx}, f.txs...)
	return tx, nil
}

func (f *fakeLedger) ListTransactions(context.Context) ([]core.Transaction, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.Transaction{}, f.txs...), nil
}

func newTestServer(ledger LedgerService, token string) *Server {
	return NewServer(":0", ledger, token)
}

func doRequest(t *testing.T, s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestHandleRoot(t *testing.T) {
	s := newTestServer(&fakeLedger{}, "")

	rec := doRequest(t, s, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "API funcionando!" {
		t.Errorf("body = %q, want %q", got, "API funcionando!")
	}
}

func TestHandleRootUnknownPath(t *testing.T) {
	s := newTestServer(&fakeLedger{}, "")

	rec := doRequest(t, s, http.MethodGet, "/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCreateTransaction(t *testing.T) {
	s := newTestServer(&fakeLedger{}, "")

	body := `{"description":"Salário","amount":1000.50,"type":"entrada"}`
	rec := doRequest(t, s, http.MethodPost, "/transactions", body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", rec.Code, rec.Body.String())
	}

	var record transactionRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record.ID == 0 {
		t.Error("expected assigned id")
	}
	if record.Description != "Salário" {
		t.Errorf("description = %q", record.Description)
	}
	if record.Amount != 1000.50 {
		t.Errorf("amount = %v, want 1000.50", record.Amount)
	}
	if record.Type != "entrada" {
		t.Errorf("type = %q, want entrada", record.Type)
	}
	if record.Date.IsZero() {
		t.Error("expected default date")
	}
}

func TestCreateTransactionWithExplicitDate(t *testing.T) {
	s := newTestServer(&fakeLedger{}, "")

	body := `{"description":"Aluguel","amount":1200,"type":"saída","date":"2025-06-01T12:00:00Z"}`
	rec := doRequest(t, s, http.MethodPost, "/transactions", body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", rec.Code, rec.Body.String())
	}

	var record transactionRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if !record.Date.Equal(want) {
		t.Errorf("date = %v, want %v", record.Date, want)
	}
	if record.Type != "saída" {
		t.Errorf("type = %q, want saída", record.Type)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty description", `{"description":"","amount":10,"type":"entrada"}`},
		{"whitespace description", `{"description":"   ","amount":10,"type":"entrada"}`},
		{"zero amount", `{"description":"x","amount":0,"type":"entrada"}`},
		{"negative amount", `{"description":"x","amount":-5,"type":"saída"}`},
		{"missing amount", `{"description":"x","type":"entrada"}`},
		{"unknown type", `{"description":"x","amount":10,"type":"transferência"}`},
		{"empty type", `{"description":"x","amount":10,"type":""}`},
		{"bad date", `{"description":"x","amount":10,"type":"entrada","date":"01/06/2025"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeLedger{}, "")
			rec := doRequest(t, s, http.MethodPost, "/transactions", tt.body, nil)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422, body=%s", rec.Code, rec.Body.String())
			}
			if decodeError(t, rec) == "" {
				t.Error("expected error message in body")
			}
		})
	}
}

func TestCreateTransactionMalformedJSON(t *testing.T) {
	s := newTestServer(&fakeLedger{}, "")

	rec := doRequest(t, s, http.MethodPost, "/transactions", `{"description":`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeError(t, rec); got != msgInvalidRequest {
		t.Errorf("error = %q, want %q", got, msgInvalidRequest)
	}
}

func TestCreateTransactionStorageFailure(t *testing.T) {
	ledger := &fakeLedger{
		createErr: fmt.Errorf("%w: disk full", storage.ErrStorageUnavailable),
	}
	s := newTestServer(ledger, "")

	body := `{"description":"x","amount":10,"type":"entrada"}`
	rec := doRequest(t, s, http.MethodPost, "/transactions", body, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := decodeError(t, rec); got != msgCreateFailed {
		t.Errorf("error = %q, want %q", got, msgCreateFailed)
	}
}

func TestListTransactions(t *testing.T) {
	ledger := &fakeLedger{}
	s := newTestServer(ledger, "")

	for i, body := range []string{
		`{"description":"primeiro","amount":10,"type":"entrada","date":"2025-01-01T00:00:00Z"}`,
		`{"description":"segundo","amount":20,"type":"saída","date":"2025-02-01T00:00:00Z"}`,
	} {
		rec := doRequest(t, s, http.MethodPost, "/transactions", body, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed %d: status = %d", i, rec.Code)
		}
	}

	rec := doRequest(t, s, http.MethodGet, "/transactions", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var records []transactionRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	if records[0].Description != "segundo" || records[1].Description != "primeiro" {
		t.Errorf("unexpected order: %q then %q", records[0].Description, records[1].Description)
	}
}

func TestListTransactionsEmpty(t *testing.T) {
	s := newTestServer(&fakeLedger{}, "")

	rec := doRequest(t, s, http.MethodGet, "/transactions", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestListTransactionsStorageFailure(t *testing.T) {
	ledger := &fakeLedger{
		listErr: fmt.Errorf("%w: connection reset", storage.ErrStorageUnavailable),
	}
	s := newTestServer(ledger, "")

	rec := doRequest(t, s, http.MethodGet, "/transactions", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := decodeError(t, rec); got != msgListFailed {
		t.Errorf("error = %q, want %q", got, msgListFailed)
	}
}

func TestListCacheInvalidatedOnCreate(t *testing.T) {
	ledger := &fakeLedger{}
	s := newTestServer(ledger, "")

	// Prime the cache with the empty list.
	doRequest(t, s, http.MethodGet, "/transactions", "", nil)

	body := `{"description":"novo","amount":10,"type":"entrada"}`
	if rec := doRequest(t, s, http.MethodPost, "/transactions", body, nil); rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}

	rec := doRequest(t, s, http.MethodGet, "/transactions", "", nil)
	var records []transactionRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("list after create = %d entries, want 1 (stale cache?)", len(records))
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(&fakeLedger{}, "")

	rec := doRequest(t, s, http.MethodDelete, "/transactions", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, POST" {
		t.Errorf("Allow = %q", allow)
	}
}

func TestAuthBoundary(t *testing.T) {
	s := newTestServer(&fakeLedger{}, "secret-token")

	t.Run("missing token rejected", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/transactions", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong token rejected", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/transactions", "", map[string]string{
			"Authorization": "Bearer wrong",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token accepted", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/transactions", "", map[string]string{
			"Authorization": "Bearer secret-token",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(&fakeLedger{}, "")

	rec := doRequest(t, s, http.MethodGet, "/", "", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(&fakeLedger{}, "")

	if rec := doRequest(t, s, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	if rec := doRequest(t, s, http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d", rec.Code)
	}

	broken := newTestServer(&fakeLedger{listErr: errors.New("down")}, "")
	if rec := doRequest(t, broken, http.MethodGet, "/readyz", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with broken store = %d, want 503", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(&fakeLedger{}, "")

	doRequest(t, s, http.MethodGet, "/", "", nil)
	rec := doRequest(t, s, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Errorf("metrics body missing counters: %q", rec.Body.String())
	}
}
