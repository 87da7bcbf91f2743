package server

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"order-intake/internal/client"
	"order-intake/internal/config"
	"order-intake/internal/dto"
	"order-intake/internal/model"
	"order-intake/internal/service"
	"strings"
	"sync"
	"testing"
	"time"
)

const scenarioPayload = `{"orderNumber":"1001","name":"Ali","phone":"01001234567","governorate":"Cairo","address":"12 Tahrir St","plan":"A","quantity":2,"total":"1199 EGP"}`

var (
	keyOnce sync.Once
	keyPEM  string
)

func serviceAccountKey(t *testing.T) string {
	t.Helper()
	keyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			panic(err)
		}
		keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
	})
	return keyPEM
}

// fakeUpstreams stands in for the Google token, Sheets and TikTok endpoints.
type fakeUpstreams struct {
	mu          sync.Mutex
	tokenBody   string
	tiktokDelay time.Duration
	appends     [][]any
	events      []model.TikTokEvent
	server      *httptest.Server
}

func newFakeUpstreams(t *testing.T) *fakeUpstreams {
	f := &fakeUpstreams{tokenBody: `{"access_token":"ya29.token","expires_in":3599}`}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(f.tokenBody))
	})
	mux.HandleFunc("/v4/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ya29.token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Values) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.appends = append(f.appends, body.Values[0])
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"updates":{"updatedRange":"Sheet1!A2:R2","updatedRows":1}}`))
	})
	mux.HandleFunc("/tiktok", func(w http.ResponseWriter, r *http.Request) {
		if f.tiktokDelay > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(f.tiktokDelay):
			}
		}
		var ev model.TikTokEvent
		_ = json.NewDecoder(r.Body).Decode(&ev)
		f.mu.Lock()
		f.events = append(f.events, ev)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"code":0,"message":"OK"}`))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func newTestServer(t *testing.T, up *fakeUpstreams, tiktokEnabled bool, httpCfg config.HTTPServer) *Server {
	t.Helper()
	googleCfg := &config.Google{
		ServiceAccountEmail: "svc@project.iam.gserviceaccount.com",
		PrivateKey:          serviceAccountKey(t),
		SpreadsheetID:       "sheet-123",
		SheetName:           "Sheet1",
		SheetColumnCount:    18,
		TokenURL:            up.server.URL + "/token",
		Scope:               "https://www.googleapis.com/auth/spreadsheets",
		SheetsBaseURL:       up.server.URL + "/v4",
	}
	tiktokCfg := &config.TikTok{EventURL: up.server.URL + "/tiktok"}
	if tiktokEnabled {
		tiktokCfg.AccessToken = "tt-token"
		tiktokCfg.PixelID = "PIXEL1"
	}
	orderCfg := &config.Order{
		Timezone:       "Africa/Cairo",
		DateLayout:     "2/1/2006, 3:04:05 PM",
		ProductName:    "Steampunk glasses",
		ProductID:      "steampunk-sunglasses",
		Status:         "new",
		Source:         "Landing Page",
		Currency:       "EGP",
		FallbackAmount: 1199,
	}
	timeout := httpCfg.ClientTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	layout, err := model.NewRowLayout(model.OrderLayoutV1, model.OrderColumnsV1, googleCfg.SheetColumnCount)
	if err != nil {
		t.Fatalf("NewRowLayout: %v", err)
	}
	auth := client.NewGoogleAuthClient(googleCfg, timeout)
	sheets := client.NewSheetsClient(googleCfg, auth, timeout)
	forwarder := service.NewNotificationForwarder(client.NewTikTokClient(tiktokCfg, timeout), tiktokCfg, orderCfg)
	orderService, err := service.NewOrderService(sheets, forwarder, service.NewDeliveryRecorder(nil, nil), layout, orderCfg, nil)
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return NewServer(orderService, &httpCfg, nil)
}

func postOrder(s *Server, body string) (*httptest.ResponseRecorder, dto.SubmitOrderResponse) {
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	var resp dto.SubmitOrderResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestSubmitOrderAppendsAndNotifies(t *testing.T) {
	up := newFakeUpstreams(t)
	s := newTestServer(t, up, true, config.HTTPServer{})

	rec, resp := postOrder(s, scenarioPayload)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("expected 200 success, got %d %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("missing CORS header, got %q", got)
	}

	if len(up.appends) != 1 {
		t.Fatalf("expected one append, got %d", len(up.appends))
	}
	row := up.appends[0]
	if len(row) != 18 {
		t.Fatalf("expected 18 cells, got %d", len(row))
	}
	if row[9] != "1199 EGP" {
		t.Fatalf("amount cell must be the literal total, got %#v", row[9])
	}
	if row[8] != float64(2) {
		t.Fatalf("quantity must stay numeric, got %#v", row[8])
	}

	if len(up.events) != 1 {
		t.Fatalf("expected one event, got %d", len(up.events))
	}
	if up.events[0].Properties.Value != 1199.0 || up.events[0].EventID != "1001" {
		t.Fatalf("unexpected event: %+v", up.events[0])
	}
}

func TestSubmitOrderWithoutAccessToken(t *testing.T) {
	up := newFakeUpstreams(t)
	up.tokenBody = `{"token_type":"Bearer"}`
	s := newTestServer(t, up, true, config.HTTPServer{})

	rec, resp := postOrder(s, scenarioPayload)
	if rec.Code != http.StatusInternalServerError || resp.Success {
		t.Fatalf("expected 500 failure, got %d %s", rec.Code, rec.Body.String())
	}
	if resp.Error == "" {
		t.Fatalf("expected an error message")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("missing CORS header on failure, got %q", got)
	}
	if len(up.appends) != 0 {
		t.Fatalf("append endpoint must not be called, got %d", len(up.appends))
	}
	if len(up.events) != 0 {
		t.Fatalf("event endpoint must not be called, got %d", len(up.events))
	}
}

func TestSubmitOrderNotificationTimeout(t *testing.T) {
	up := newFakeUpstreams(t)
	up.tiktokDelay = 2 * time.Second
	s := newTestServer(t, up, true, config.HTTPServer{ClientTimeout: 300 * time.Millisecond})

	rec, resp := postOrder(s, scenarioPayload)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("expected 200 success despite notification timeout, got %d %s", rec.Code, rec.Body.String())
	}
	if len(up.appends) != 1 {
		t.Fatalf("expected one append, got %d", len(up.appends))
	}
}

func TestSubmitOrderTwiceAppendsTwice(t *testing.T) {
	up := newFakeUpstreams(t)
	s := newTestServer(t, up, false, config.HTTPServer{})

	for i := 0; i < 2; i++ {
		if rec, _ := postOrder(s, scenarioPayload); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
	if len(up.appends) != 2 {
		t.Fatalf("expected two rows, got %d", len(up.appends))
	}
	if len(up.events) != 0 {
		t.Fatalf("notification must be skipped when not configured")
	}
}

func TestSubmitOrderLoosePayload(t *testing.T) {
	up := newFakeUpstreams(t)
	s := newTestServer(t, up, true, config.HTTPServer{})

	body := `{"orderNumber":"1002","name":"Mona","phone":"0111","address":12,"plan":"B","quantity":"","total":"1199 EGP"}`
	rec, resp := postOrder(s, body)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("expected 200 success, got %d %s", rec.Code, rec.Body.String())
	}
	if len(up.appends) != 1 {
		t.Fatalf("expected one append, got %d", len(up.appends))
	}
	row := up.appends[0]
	if row[6] != "12" || row[8] != "" {
		t.Fatalf("unexpected address/quantity cells: %#v %#v", row[6], row[8])
	}

	rec, _ = postOrder(s, `{"orderNumber":"1003","quantity":"two"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for text quantity, got %d %s", rec.Code, rec.Body.String())
	}
	if len(up.appends) != 2 || up.appends[1][8] != "two" {
		t.Fatalf("text quantity must be appended verbatim, got %#v", up.appends)
	}
}

func TestSubmitOrderInvalidJSON(t *testing.T) {
	up := newFakeUpstreams(t)
	s := newTestServer(t, up, false, config.HTTPServer{})

	rec, resp := postOrder(s, `{"orderNumber":`)
	if rec.Code != http.StatusInternalServerError || resp.Success || resp.Error == "" {
		t.Fatalf("expected 500 failure, got %d %s", rec.Code, rec.Body.String())
	}
	if len(up.appends) != 0 {
		t.Fatalf("append must not be called")
	}
}

func TestPreflight(t *testing.T) {
	s := newTestServer(t, newFakeUpstreams(t), false, config.HTTPServer{})

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	if rec.Code >= 300 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	h := rec.Header()
	if h.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected allow origin: %q", h.Get("Access-Control-Allow-Origin"))
	}
	methods := h.Get("Access-Control-Allow-Methods")
	if !strings.Contains(methods, "POST") || !strings.Contains(methods, "OPTIONS") {
		t.Fatalf("unexpected allow methods: %q", methods)
	}
	if h.Get("Access-Control-Allow-Headers") != "Content-Type" {
		t.Fatalf("unexpected allow headers: %q", h.Get("Access-Control-Allow-Headers"))
	}
}

func TestPreflightWithoutOrigin(t *testing.T) {
	s := newTestServer(t, newFakeUpstreams(t), false, config.HTTPServer{})

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/orders", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	h := rec.Header()
	if h.Get("Access-Control-Allow-Origin") != "*" ||
		h.Get("Access-Control-Allow-Methods") != "POST, OPTIONS" ||
		h.Get("Access-Control-Allow-Headers") != "Content-Type" {
		t.Fatalf("missing CORS headers: %v", h)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, newFakeUpstreams(t), false, config.HTTPServer{})

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	up := newFakeUpstreams(t)
	s := newTestServer(t, up, false, config.HTTPServer{RateLimit: 0.001, RateBurst: 1})

	if rec, _ := postOrder(s, scenarioPayload); rec.Code != http.StatusOK {
		t.Fatalf("first request: status %d", rec.Code)
	}
	rec, resp := postOrder(s, scenarioPayload)
	if rec.Code != http.StatusTooManyRequests || resp.Success {
		t.Fatalf("expected 429, got %d %s", rec.Code, rec.Body.String())
	}
	if len(up.appends) != 1 {
		t.Fatalf("limited request must not append, got %d rows", len(up.appends))
	}
}
