package health

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"strategy_dashboard/internal/modules/health/service"
	snapshotsvc "strategy_dashboard/internal/modules/snapshot/service"
	viewsvc "strategy_dashboard/internal/modules/view/service"
)

type Viewer interface {
	ViewStrategy(ctx context.Context, strategyID string) error
	Back(ctx context.Context) error
	Current(ctx context.Context) (viewsvc.Screen, error)
}

type Commander interface {
	Start(ctx context.Context, strategyID string)
	Stop(ctx context.Context, strategyID string)
	StartAll(ctx context.Context)
	StopAll(ctx context.Context)
}

type PredictionRefresher interface {
	TryRefreshPrediction(ctx context.Context) error
}

// commandTimeout: команда плюс перечитывание ростера.
const commandTimeout = 30 * time.Second

type Handlers struct {
	state      *service.State
	view       Viewer
	cmd        Commander
	prediction PredictionRefresher
	log        *zap.Logger

	inflight conc.WaitGroup
}

func NewHandlers(state *service.State, view Viewer, cmd Commander, prediction PredictionRefresher, log *zap.Logger) *Handlers {
	return &Handlers{state: state, view: view, cmd: cmd, prediction: prediction, log: log}
}

func (h *Handlers) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		// процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		// готовы после первого цикла снапшота
		if !h.state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("GET /dashboard", h.dashboard)

	mux.HandleFunc("POST /view/strategies/{id}", h.viewStrategy)
	mux.HandleFunc("POST /view/back", h.back)

	mux.HandleFunc("POST /strategies/start-all", h.command(func(ctx context.Context, _ string) { h.cmd.StartAll(ctx) }))
	mux.HandleFunc("POST /strategies/stop-all", h.command(func(ctx context.Context, _ string) { h.cmd.StopAll(ctx) }))
	mux.HandleFunc("POST /strategies/{id}/start", h.command(h.cmd.Start))
	mux.HandleFunc("POST /strategies/{id}/stop", h.command(h.cmd.Stop))

	mux.HandleFunc("POST /prediction/refresh", h.refreshPrediction)

	return mux
}

// Wait ждёт фоновые команды.
func (h *Handlers) Wait() { h.inflight.Wait() }

func (h *Handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ready":         h.state.Ready(),
		"wsConnected":   h.state.WSConnected(),
		"wsReconnects":  h.state.Reconnects(),
		"uptimeSec":     int64(h.state.Uptime().Seconds()),
		"lastEventUnix": unixOrZero(h.state.LastEvent()),
		"lastPollUnix":  unixOrZero(h.state.LastPoll()),
	})
}

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	s, err := h.view.Current(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handlers) viewStrategy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.view.ViewStrategy(r.Context(), id); err != nil {
		code := http.StatusServiceUnavailable
		if errors.Is(err, viewsvc.ErrUnknownStrategy) {
			code = http.StatusNotFound
		}
		writeError(w, code, err)
		return
	}
	h.dashboard(w, r)
}

func (h *Handlers) back(w http.ResponseWriter, r *http.Request) {
	if err := h.view.Back(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	h.dashboard(w, r)
}

// command: fire-and-forget: отвечаем 202, команда и refetch ростера идут в фоне.
func (h *Handlers) command(run func(ctx context.Context, strategyID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		h.inflight.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			run(ctx, id)
		})
		writeJSON(w, http.StatusAccepted, map[string]any{"accepted": true, "strategy_id": id})
	}
}

func (h *Handlers) refreshPrediction(w http.ResponseWriter, r *http.Request) {
	err := h.prediction.TryRefreshPrediction(r.Context())
	switch {
	case err == nil:
		h.dashboard(w, r)
	case errors.Is(err, snapshotsvc.ErrRefreshInFlight):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusBadGateway, err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
