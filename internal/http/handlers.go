package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/vending-machine-simulator/internal/button"
	"github.com/fairyhunter13/vending-machine-simulator/internal/catalog"
	"github.com/fairyhunter13/vending-machine-simulator/internal/config"
	"github.com/fairyhunter13/vending-machine-simulator/internal/dispatch"
	httpopenapi "github.com/fairyhunter13/vending-machine-simulator/internal/http/openapi"
	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
	"github.com/fairyhunter13/vending-machine-simulator/internal/obs"
)

type App struct {
	Cfg        config.Config
	Catalog    *catalog.Catalog
	Dispatcher *dispatch.Dispatcher
	closing    bool
	started    time.Time
}

type ack struct {
	Status        string      `json:"status"`
	RequestID     string      `json:"request_id"`
	TransactionID string      `json:"transaction_id"`
	Sequence      uint64      `json:"sequence"`
	Event         string      `json:"event"`
	State         model.State `json:"state"`
	QueueDepth    int         `json:"queue_depth"`
	BacklogSize   int         `json:"backlog_size"`
}

func NewApp(cfg config.Config, cat *catalog.Catalog, d *dispatch.Dispatcher) *App {
	return &App{Cfg: cfg, Catalog: cat, Dispatcher: d, started: time.Now()}
}

func (a *App) StartShutdown() {
	a.closing = true
	a.Dispatcher.CloseIntake()
}

// validEventTypes are the types the intake surface accepts. Completion
// events are listed too so the dev console can drive the machine without
// the simulated collaborators.
var validEventTypes = map[model.EventType]bool{
	model.EventInsertCash:        true,
	model.EventInsertCard:        true,
	model.EventEjectCard:         true,
	model.EventSelectProduct:     true,
	model.EventRefund:            true,
	model.EventCheckChange:       true,
	model.EventPaymentSuccess:    true,
	model.EventPaymentFailure:    true,
	model.EventDispenseSuccess:   true,
	model.EventDispenseFailure:   true,
	model.EventRefundComplete:    true,
	model.EventChangeReplenished: true,
}

func (a *App) postEventsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	if a.closing || a.Dispatcher.IsShuttingDown() {
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return
	}
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return
	}
	var ev model.Event
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if !validEventTypes[ev.Type] {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "unknown event type")
		return
	}
	switch ev.Type {
	case model.EventInsertCash:
		if ev.Amount <= 0 {
			WriteJSONError(w, http.StatusBadRequest, "validation_error", "amount must be > 0")
			return
		}
	case model.EventSelectProduct:
		if ev.ProductID == "" {
			WriteJSONError(w, http.StatusBadRequest, "validation_error", "product_id is required")
			return
		}
	case model.EventPaymentFailure, model.EventDispenseFailure:
		if ev.Message == "" {
			WriteJSONError(w, http.StatusBadRequest, "validation_error", "message is required")
			return
		}
	}
	seq, ok := a.Dispatcher.Enqueue(ev)
	if !ok {
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return
	}
	ac := ack{
		Status:        "accepted",
		RequestID:     RequestIDFromContext(r.Context()),
		TransactionID: uuid.NewString(),
		Sequence:      seq,
		Event:         string(ev.Type),
		State:         a.Dispatcher.Snapshot().State,
		QueueDepth:    a.Dispatcher.QueueDepth(),
		BacklogSize:   a.Dispatcher.BacklogSize(),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(ac)
	obs.Logger.Info("event_accepted",
		"request_id", ac.RequestID,
		"transaction_id", ac.TransactionID,
		"sequence", ac.Sequence,
		"event", ac.Event,
		"queue_depth", ac.QueueDepth,
		"backlog_size", ac.BacklogSize,
	)
}

func (a *App) getSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a.Dispatcher.Snapshot())
}

type productView struct {
	model.Product
	ButtonState model.ButtonState `json:"button_state"`
}

func (a *App) getProductsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	snap := a.Dispatcher.Snapshot()
	out := make([]productView, 0, len(snap.Products))
	for _, p := range snap.Products {
		out = append(out, productView{
			Product:     p,
			ButtonState: button.Resolve(p, snap.Balance, snap.PaymentMethod, snap.ChangeAvailable),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

type replenishRequest struct {
	Restock map[string]int64 `json:"restock,omitempty"`
	Topup   model.Breakdown  `json:"topup,omitempty"`
}

// adminReplenishHandler is the inventory-management surface: it mutates
// the catalog masters and pushes the matching events into the machine's
// stream so the working copies follow.
func (a *App) adminReplenishHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	if a.closing || a.Dispatcher.IsShuttingDown() {
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return
	}
	var req replenishRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if len(req.Restock) == 0 && len(req.Topup) == 0 {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "nothing to replenish")
		return
	}
	for id, delta := range req.Restock {
		if !a.Catalog.Restock(id, delta) {
			WriteJSONError(w, http.StatusBadRequest, "validation_error", "unknown product or non-positive delta: "+id)
			return
		}
		_, _ = a.Dispatcher.Enqueue(model.Event{Type: model.EventRestock, ProductID: id, Amount: delta})
	}
	if len(req.Topup) > 0 {
		a.Catalog.TopupReserve(req.Topup)
		_, _ = a.Dispatcher.Enqueue(model.Event{
			Type:   model.EventChangeReplenished,
			Amount: req.Topup.Total(),
			Topup:  req.Topup,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "accepted",
		"products": a.Catalog.Products(),
		"reserve":  a.Catalog.Reserve(),
	})
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	enq, proc, accepted, rejected, stale := a.Dispatcher.Metrics()
	snap := a.Dispatcher.Snapshot()
	m := map[string]any{
		"events_enqueued":   enq,
		"events_processed":  proc,
		"events_accepted":   accepted,
		"events_rejected":   rejected,
		"completions_stale": stale,
		"backlog_size":      a.Dispatcher.BacklogSize(),
		"queue_depth":       a.Dispatcher.QueueDepth(),
		"machine_state":     snap.State,
		"machine_balance":   snap.Balance,
		"change_available":  snap.ChangeAvailable,
		"uptime_sec":        time.Since(a.started).Seconds(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m)
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}
