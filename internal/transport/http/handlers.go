package httpserver

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/muscatbay/meterbalance/internal/domain"
	"github.com/muscatbay/meterbalance/internal/rpc/balancev1"
)

// DefaultUpstreamTimeout bounds every gRPC call made for a request.
const DefaultUpstreamTimeout = 5 * time.Second

type Server struct {
	client  BalanceClient
	router  chi.Router
	log     zerolog.Logger
	timeout time.Duration
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option { return func(s *Server) { s.log = l } }

func WithUpstreamTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(client BalanceClient, opts ...Option) *Server {
	s := &Server{
		client:  client,
		router:  chi.NewRouter(),
		log:     zerolog.Nop(),
		timeout: DefaultUpstreamTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := uuid.NewString()

	// Pre-seed the routing context so the matched pattern survives the call.
	rctx := chi.NewRouteContext()
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	w.Header().Set("X-Request-Id", reqID)
	rr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		if rec := recover(); rec != nil {
			rr.status = http.StatusInternalServerError

			// Best-effort response. If headers/body were already written, we can
			// only log.
			if !rr.wroteHeader {
				if strings.HasPrefix(r.URL.Path, "/api") {
					writeAPIError(rr, http.StatusInternalServerError, "internal_error", "internal error")
				} else {
					http.Error(rr, "internal error", http.StatusInternalServerError)
				}
			}

			s.log.Error().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", reqID).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic handling request")
		}

		dur := time.Since(start)
		route := routeLabel(rctx.RoutePattern())
		observeHTTPRequest(route, r.Method, rr.status, dur)

		// Keep health checks + metrics endpoint quiet.
		if route != "healthz" && route != "metrics" {
			s.log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rr.status).
				Dur("duration", dur).
				Str("request_id", reqID).
				Msg("request")
		}
	}()

	s.router.ServeHTTP(rr, r)
}

func (s *Server) routes() {
	s.router.NotFound(s.handleNotFound)
	s.router.MethodNotAllowed(s.handleMethodNotAllowed)

	s.router.Route("/api/{utility}", func(r chi.Router) {
		r.Get("/report", s.handleReport)
		r.Get("/months", s.handleMonths)
	})
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	s.router.Get("/", s.handleIndex)
}

// handleReport returns the dashboard report for a utility. Query params:
// start, end (month labels such as "Jan-25"), zone, type, top.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	utility, ok := s.utilityParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	for _, name := range []string{"start", "end"} {
		if v := q.Get(name); v != "" {
			if _, err := domain.ParseMonth(v); err != nil {
				writeAPIError(w, http.StatusBadRequest, "invalid_argument", "invalid "+name+": "+err.Error())
				return
			}
		}
	}
	top, err := parseOptionalInt(q.Get("top"))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid_argument", "invalid top")
		return
	}
	if top < 0 {
		writeAPIError(w, http.StatusBadRequest, "invalid_argument", "top must be >= 0")
		return
	}

	req := balancev1.ReportRequest{
		Utility: string(utility),
		Start:   q.Get("start"),
		End:     q.Get("end"),
		Zone:    q.Get("zone"),
		Type:    q.Get("type"),
		Top:     top,
	}
	s.proxy(w, r, "GetReport", func(ctx context.Context) (*structpb.Struct, error) {
		return s.client.GetReport(ctx, req.Struct())
	})
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	utility, ok := s.utilityParam(w, r)
	if !ok {
		return
	}
	req := balancev1.MonthsRequest{Utility: string(utility)}
	s.proxy(w, r, "ListMonths", func(ctx context.Context) (*structpb.Struct, error) {
		return s.client.ListMonths(ctx, req.Struct())
	})
}

func (s *Server) utilityParam(w http.ResponseWriter, r *http.Request) (domain.Utility, bool) {
	u, err := domain.ParseUtility(chi.URLParam(r, "utility"))
	if err != nil {
		writeAPIError(w, http.StatusNotFound, "not_found", err.Error())
		return "", false
	}
	return u, true
}

// proxy performs one upstream call and relays its Struct as the JSON body.
func (s *Server) proxy(w http.ResponseWriter, r *http.Request, method string, call func(context.Context) (*structpb.Struct, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	grpcStart := time.Now()
	resp, err := call(ctx)
	grpcDur := time.Since(grpcStart)
	if err != nil {
		st, _ := status.FromError(err)
		observeUpstreamGRPC(method, st.Code().String(), grpcDur)
		switch st.Code() {
		case codes.InvalidArgument:
			writeAPIError(w, http.StatusBadRequest, "invalid_argument", st.Message())
		case codes.NotFound:
			writeAPIError(w, http.StatusNotFound, "not_found", st.Message())
		case codes.DeadlineExceeded:
			writeAPIError(w, http.StatusGatewayTimeout, "upstream_timeout", "upstream timeout")
		default:
			s.log.Warn().Err(err).Str("upstream_method", method).Msg("upstream call failed")
			writeAPIError(w, http.StatusBadGateway, "upstream_error", "upstream error")
		}
		return
	}
	observeUpstreamGRPC(method, codes.OK.String(), grpcDur)

	if err := writeStruct(w, http.StatusOK, resp); err != nil {
		s.log.Error().Err(err).Str("upstream_method", method).Msg("encode response")
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	// Keep API errors JSON.
	if strings.HasPrefix(r.URL.Path, "/api") {
		writeAPIError(w, http.StatusNotFound, "not_found", "not found")
		return
	}
	http.NotFound(w, r) // HTML/plain-text is fine for non-API paths.
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodGet)
	if strings.HasPrefix(r.URL.Path, "/api") {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	w.WriteHeader(http.StatusMethodNotAllowed)
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(p)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	reqID := w.Header().Get("X-Request-Id")
	_ = writeJSON(w, status, apiErrorJSON{
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}
