//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// ------------------------------------------------------------
// Hosting panel stand-in
// ------------------------------------------------------------

type panelLimits struct {
	Memory int64 `json:"memory"`
	Swap   int64 `json:"swap"`
	Disk   int64 `json:"disk"`
	IO     int64 `json:"io"`
	CPU    int64 `json:"cpu"`
}

type panelFeatures struct {
	Databases   int64 `json:"databases"`
	Allocations int64 `json:"allocations"`
	Backups     int64 `json:"backups"`
}

type PanelServer struct {
	ID         int64         `json:"id"`
	Identifier string        `json:"identifier"`
	Name       string        `json:"name"`
	Suspended  bool          `json:"suspended"`
	Status     *string       `json:"status"`
	Allocation int64         `json:"allocation"`
	Limits     panelLimits   `json:"limits"`
	Features   panelFeatures `json:"feature_limits"`
}

// FakePanel keeps servers in memory and can be switched off to simulate an outage.
type FakePanel struct {
	URL string

	mu      sync.Mutex
	nextID  int64
	servers map[int64]*PanelServer
	down    bool
}

func newFakePanel(t *testing.T) *FakePanel {
	t.Helper()
	p := &FakePanel{nextID: 100, servers: map[int64]*PanelServer{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/application/servers", p.create)
	mux.HandleFunc("GET /api/application/servers/{id}", p.get)
	mux.HandleFunc("PATCH /api/application/servers/{id}/build", p.build)
	mux.HandleFunc("PATCH /api/application/servers/{id}/details", p.details)
	mux.HandleFunc("DELETE /api/application/servers/{id}", p.remove)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		down := p.down
		p.mu.Unlock()
		if down {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	p.URL = srv.URL
	return p
}

func (p *FakePanel) SetDown(down bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.down = down
}

// Server returns a copy of the remote record, or nil when it does not exist.
func (p *FakePanel) Server(id int64) *PanelServer {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.servers[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

// SetMemory changes limits behind the dashboard's back, as a panel admin would.
func (p *FakePanel) SetMemory(id int64, memoryMB int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.servers[id]; ok {
		s.Limits.Memory = memoryMB
	}
}

func (p *FakePanel) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.servers)
}

func (p *FakePanel) create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string        `json:"name"`
		Limits   panelLimits   `json:"limits"`
		Features panelFeatures `json:"feature_limits"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	p.mu.Lock()
	p.nextID++
	s := &PanelServer{
		ID:         p.nextID,
		Identifier: fmt.Sprintf("%08x", p.nextID),
		Name:       body.Name,
		Allocation: p.nextID * 10,
		Limits:     body.Limits,
		Features:   body.Features,
	}
	p.servers[s.ID] = s
	cp := *s
	p.mu.Unlock()

	writePanelServer(w, http.StatusCreated, &cp)
}

func (p *FakePanel) get(w http.ResponseWriter, r *http.Request) {
	p.withServer(w, r, func(s *PanelServer) {
		cp := *s
		writePanelServer(w, http.StatusOK, &cp)
	})
}

func (p *FakePanel) build(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Memory   int64         `json:"memory"`
		Disk     int64         `json:"disk"`
		CPU      int64         `json:"cpu"`
		Features panelFeatures `json:"feature_limits"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}
	p.withServer(w, r, func(s *PanelServer) {
		s.Limits.Memory = body.Memory
		s.Limits.Disk = body.Disk
		s.Limits.CPU = body.CPU
		s.Features = body.Features
		cp := *s
		writePanelServer(w, http.StatusOK, &cp)
	})
}

func (p *FakePanel) details(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}
	p.withServer(w, r, func(s *PanelServer) {
		s.Name = body.Name
		cp := *s
		writePanelServer(w, http.StatusOK, &cp)
	})
}

func (p *FakePanel) remove(w http.ResponseWriter, r *http.Request) {
	p.withServer(w, r, func(s *PanelServer) {
		delete(p.servers, s.ID)
		w.WriteHeader(http.StatusNoContent)
	})
}

// withServer runs fn under the lock, answering 404 for unknown ids.
func (p *FakePanel) withServer(w http.ResponseWriter, r *http.Request, fn func(*PanelServer)) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.servers[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	fn(s)
}

func writePanelServer(w http.ResponseWriter, status int, s *PanelServer) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"object": "server", "attributes": s})
}

// ------------------------------------------------------------
// PayPal stand-in
// ------------------------------------------------------------

type paypalMoney struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalOrder struct {
	ID          string
	ReferenceID string
	CustomID    string
	Amount      paypalMoney
	Captured    bool
}

// FakePayPal approves every order it creates and accepts every webhook signature
// unless told otherwise.
type FakePayPal struct {
	URL string

	mu             sync.Mutex
	nextID         int
	orders         map[string]*paypalOrder
	rejectWebhooks bool
}

func newFakePayPal(t *testing.T) *FakePayPal {
	t.Helper()
	pp := &FakePayPal{orders: map[string]*paypalOrder{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth2/token", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "e2e-token", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("POST /v2/checkout/orders", pp.createOrder)
	mux.HandleFunc("POST /v2/checkout/orders/{id}/capture", pp.captureOrder)
	mux.HandleFunc("GET /v2/checkout/orders/{id}", pp.getOrder)
	mux.HandleFunc("POST /v1/notifications/verify-webhook-signature", pp.verify)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	pp.URL = srv.URL
	return pp
}

func (pp *FakePayPal) RejectWebhooks(reject bool) {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	pp.rejectWebhooks = reject
}

// TamperAmount makes the next capture report a different amount than was ordered.
func (pp *FakePayPal) TamperAmount(orderID, value string) {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	if o, ok := pp.orders[orderID]; ok {
		o.Amount.Value = value
	}
}

func (pp *FakePayPal) createOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PurchaseUnits []struct {
			ReferenceID string      `json:"reference_id"`
			CustomID    string      `json:"custom_id"`
			Amount      paypalMoney `json:"amount"`
		} `json:"purchase_units"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.PurchaseUnits) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"name": "INVALID_REQUEST"})
		return
	}

	pp.mu.Lock()
	pp.nextID++
	pu := body.PurchaseUnits[0]
	o := &paypalOrder{
		ID:          fmt.Sprintf("ORDER-E2E-%d", pp.nextID),
		ReferenceID: pu.ReferenceID,
		CustomID:    pu.CustomID,
		Amount:      pu.Amount,
	}
	pp.orders[o.ID] = o
	pp.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     o.ID,
		"status": "CREATED",
		"links": []map[string]string{
			{"rel": "approve", "href": "https://www.sandbox.paypal.com/checkoutnow?token=" + o.ID},
		},
	})
}

func (pp *FakePayPal) captureOrder(w http.ResponseWriter, r *http.Request) {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	o, ok := pp.orders[r.PathValue("id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"name": "RESOURCE_NOT_FOUND"})
		return
	}
	if o.Captured {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"name":    "UNPROCESSABLE_ENTITY",
			"details": []map[string]string{{"issue": "ORDER_ALREADY_CAPTURED"}},
		})
		return
	}
	o.Captured = true
	writeJSON(w, http.StatusCreated, o.captured())
}

func (pp *FakePayPal) getOrder(w http.ResponseWriter, r *http.Request) {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	o, ok := pp.orders[r.PathValue("id")]
	if !ok || !o.Captured {
		writeJSON(w, http.StatusNotFound, map[string]any{"name": "RESOURCE_NOT_FOUND"})
		return
	}
	writeJSON(w, http.StatusOK, o.captured())
}

func (pp *FakePayPal) verify(w http.ResponseWriter, _ *http.Request) {
	pp.mu.Lock()
	status := "SUCCESS"
	if pp.rejectWebhooks {
		status = "FAILURE"
	}
	pp.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"verification_status": status})
}

func (o *paypalOrder) captured() map[string]any {
	return map[string]any{
		"id":     o.ID,
		"status": "COMPLETED",
		"purchase_units": []map[string]any{{
			"reference_id": o.ReferenceID,
			"payments": map[string]any{"captures": []map[string]any{{
				"id":        "CAPTURE-" + o.ID,
				"status":    "COMPLETED",
				"custom_id": o.CustomID,
				"amount":    o.Amount,
			}}},
		}},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
