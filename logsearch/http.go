package logsearch

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/hazyhaar/logsearch/logsearch/internal/message"
)

// maxRequestBody bounds a dispatch request. Payloads are a search term or
// a position.
const maxRequestBody = 64 << 10

// Handler returns the HTTP API:
//
//	POST /dispatch   body: Request, reply: Response
//	POST /search     body: {"searchTerm": "..."}, reply: Response
//	GET  /page       reply: Response carrying PageInfo
//	GET  /healthz    reply: status and the accepted actions
func (f *Finder) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(f.traceRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, health{Status: "ok", Actions: f.router.Kinds()})
	})

	r.Post("/dispatch", func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{ID: traceID(r), Error: err.Error()})
			return
		}
		var req Request
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, Response{ID: traceID(r), Error: "invalid request: " + err.Error()})
			return
		}
		if req.ID == "" {
			req.ID = traceID(r)
		}
		resp := f.Dispatch(r.Context(), req)
		writeJSON(w, statusOf(resp), resp)
	})

	r.Post("/search", func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{ID: traceID(r), Error: err.Error()})
			return
		}
		resp := f.Dispatch(r.Context(), Request{ID: traceID(r), Action: ActionSearch, Payload: body})
		writeJSON(w, statusOf(resp), resp)
	})

	r.Get("/page", func(w http.ResponseWriter, r *http.Request) {
		resp := f.Dispatch(r.Context(), Request{ID: traceID(r), Action: ActionGetPageInfo})
		writeJSON(w, statusOf(resp), resp)
	})

	return r
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, errors.New("request body too large")
		}
		return nil, err
	}
	return data, nil
}

// statusOf maps a Response onto an HTTP status. Search outcomes that
// stopped early are still 200: the result explains itself.
func statusOf(resp Response) int {
	switch {
	case resp.Error == "":
		return http.StatusOK
	case resp.Error == message.ErrUnknownAction.Error():
		return http.StatusNotFound
	case resp.Error == ErrNotStarted.Error():
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// traceRequests gives each request a UUIDv7 trace id, echoed in X-Trace-ID
// and used as the message id.
func (f *Finder) traceRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.Must(uuid.NewV7()).String()
		w.Header().Set("X-Trace-ID", id)
		f.logger.Debug("logsearch: request", slog.String("trace_id", id),
			"method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(message.WithRequestID(r.Context(), id)))
	})
}

func traceID(r *http.Request) string {
	return message.RequestID(r.Context())
}

type health struct {
	Status  string         `json:"status"`
	Actions []message.Kind `json:"actions"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
