package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"github.com/Lyham67/Tombobach/internal/mailer"
	"github.com/Lyham67/Tombobach/internal/payments/stub"
	"github.com/Lyham67/Tombobach/internal/services"
	"github.com/Lyham67/Tombobach/internal/store"
)

const testSecret = "TOMBOG11"

func TestMain(m *testing.M) {
	l := logger.Init("handlers_test", false, false, io.Discard)
	code := m.Run()
	l.Close()
	os.Exit(code)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	st := store.NewStore(db)
	if err := st.Init(context.Background()); err != nil {
		t.Fatalf("init store: %v", err)
	}

	sales := services.NewSalesService(st, mailer.Noop{}, testSecret)
	content := services.NewContentService(st, testSecret)
	h := NewHTTPHandler(sales, content, stub.New(""))

	router := gin.New()
	h.RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateCheckoutSession(t *testing.T) {
	router := newTestRouter(t)

	t.Run("Valid request returns a session", func(t *testing.T) {
		body := `{"tickets":3,"amount":5.00,"customerInfo":{"firstName":"Marie","lastName":"Dupont","email":"marie@example.com","phone":"0612345678","vendeur":"Dorian"}}`
		w := doJSON(t, router, http.MethodPost, "/create-checkout-session", body, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		var resp struct {
			ID  string `json:"id"`
			URL string `json:"url"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !strings.HasPrefix(resp.ID, "stub_") {
			t.Errorf("session id = %q", resp.ID)
		}
		if !strings.Contains(resp.URL, resp.ID) {
			t.Errorf("url %q does not reference session %q", resp.URL, resp.ID)
		}
	})

	t.Run("Malformed email is rejected before any side effect", func(t *testing.T) {
		body := `{"tickets":1,"amount":2.00,"customerInfo":{"firstName":"M","lastName":"D","email":"not-an-email","phone":"0612345678"}}`
		w := doJSON(t, router, http.MethodPost, "/create-checkout-session", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("Short phone is rejected", func(t *testing.T) {
		body := `{"tickets":1,"amount":2.00,"customerInfo":{"firstName":"M","lastName":"D","email":"m@example.com","phone":"12345"}}`
		w := doJSON(t, router, http.MethodPost, "/create-checkout-session", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestSavePaymentAndStats(t *testing.T) {
	router := newTestRouter(t)

	body := `{"firstName":"Marie","lastName":"Dupont","email":"marie@example.com","phone":"0612345678","tickets":10,"amount":15.00,"vendeur":"Dorian"}`
	w := doJSON(t, router, http.MethodPost, "/save-payment", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success       bool    `json:"success"`
		TicketNumbers []int64 `json:"ticketNumbers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if len(resp.TicketNumbers) != 10 {
		t.Fatalf("got %d ticket numbers, want 10", len(resp.TicketNumbers))
	}
	for i, n := range resp.TicketNumbers {
		if n != int64(i+1) {
			t.Fatalf("expected tickets [1..10], got %v", resp.TicketNumbers)
		}
	}

	t.Run("Stats reflect the purchase", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/admin/stats", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var stats struct {
			TotalTickets int64   `json:"totalTickets"`
			TotalRevenue float64 `json:"totalRevenue"`
			Sellers      map[string]struct {
				Tickets int64   `json:"tickets"`
				Revenue float64 `json:"montant"`
			} `json:"vendeurs"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
			t.Fatalf("decode stats: %v", err)
		}
		if stats.TotalTickets != 10 {
			t.Errorf("totalTickets = %d, want 10", stats.TotalTickets)
		}
		if stats.TotalRevenue != 15.00 {
			t.Errorf("totalRevenue = %v, want 15.00", stats.TotalRevenue)
		}
		if agg := stats.Sellers["Dorian"]; agg.Tickets != 10 || agg.Revenue != 15.00 {
			t.Errorf("Dorian aggregate = %+v", agg)
		}
	})

	t.Run("Payment list requires the admin password", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/admin/payments", "", nil)
		if w.Code != http.StatusForbidden {
			t.Errorf("status without password = %d, want 403", w.Code)
		}

		w = doJSON(t, router, http.MethodGet, "/admin/payments", "", map[string]string{"X-Admin-Password": testSecret})
		if w.Code != http.StatusOK {
			t.Fatalf("status with password = %d", w.Code)
		}
		var payments []struct {
			Ticket int64   `json:"ticket"`
			Amount float64 `json:"amount"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &payments); err != nil {
			t.Fatalf("decode payments: %v", err)
		}
		if len(payments) != 10 {
			t.Errorf("got %d records, want 10", len(payments))
		}
		if payments[0].Amount != 1.50 {
			t.Errorf("per-ticket amount = %v, want 1.50", payments[0].Amount)
		}
	})
}

func TestAdminImportAndFix(t *testing.T) {
	router := newTestRouter(t)

	t.Run("Import rejects a bad password", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/admin/import", `{"password":"wrong","payments":[]}`, nil)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("Import replaces and recomputes", func(t *testing.T) {
		body := `{"password":"` + testSecret + `","payments":[
			{"ticket":1,"firstName":"A","lastName":"A","email":"a@example.com","phone":"0600000001","vendeur":"Dorian","amount":2.00},
			{"ticket":2,"firstName":"B","lastName":"B","email":"b@example.com","phone":"0600000002","vendeur":"Dorian","amount":1.85}
		]}`
		w := doJSON(t, router, http.MethodPost, "/admin/import", body, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}

		w = doJSON(t, router, http.MethodGet, "/admin/stats", "", nil)
		var stats struct {
			TotalTickets int64   `json:"totalTickets"`
			TotalRevenue float64 `json:"totalRevenue"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
			t.Fatalf("decode stats: %v", err)
		}
		if stats.TotalTickets != 2 || stats.TotalRevenue != 3.85 {
			t.Errorf("stats = %+v, want 2 tickets / 3.85", stats)
		}
	})

	t.Run("Fix sweep reports the touched rows", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/admin/fix-vendeurs", `{"password":"`+testSecret+`"}`, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		var resp struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !resp.Success {
			t.Error("success = false")
		}
	})
}

func TestGetPrice(t *testing.T) {
	router := newTestRouter(t)

	t.Run("Quotes the published schedule", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/price?tickets=10", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var quote struct {
			Tickets   int     `json:"tickets"`
			Total     float64 `json:"total"`
			UnitPrice float64 `json:"unitPrice"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &quote); err != nil {
			t.Fatalf("decode quote: %v", err)
		}
		if quote.Total != 15.00 || quote.UnitPrice != 1.50 {
			t.Errorf("quote = %+v, want total 15.00 unit 1.50", quote)
		}
	})

	t.Run("Rejects a zero count", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/price?tickets=0", "", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestContentRoutes(t *testing.T) {
	router := newTestRouter(t)

	t.Run("Content starts empty and reads are public", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/content", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("Save rejects a bad password", func(t *testing.T) {
		body := `{"password":"wrong","content":{"heroImage":"x","prizes":{},"smallPrizes":{}}}`
		w := doJSON(t, router, http.MethodPost, "/api/content", body, nil)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("Save then read round-trips", func(t *testing.T) {
		body := `{"password":"` + testSecret + `","content":{"heroImage":"https://example.com/h.png","prizes":{"1":{"title":"Gros lot","description":"Vélo"}},"smallPrizes":{}}}`
		w := doJSON(t, router, http.MethodPost, "/api/content", body, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}

		w = doJSON(t, router, http.MethodGet, "/api/content", "", nil)
		var content struct {
			HeroImage *string `json:"heroImage"`
			Prizes    map[string]struct {
				Title string `json:"title"`
			} `json:"prizes"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &content); err != nil {
			t.Fatalf("decode content: %v", err)
		}
		if content.HeroImage == nil || *content.HeroImage != "https://example.com/h.png" {
			t.Errorf("hero image = %v", content.HeroImage)
		}
		if content.Prizes["1"].Title != "Gros lot" {
			t.Errorf("prizes = %+v", content.Prizes)
		}
	})
}
