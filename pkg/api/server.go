// Package api exposes the catalog and the ordering workflow over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookstore/pkg/catalog"
	"bookstore/pkg/logger"
	"bookstore/pkg/order"
	"bookstore/pkg/otel"
	"bookstore/pkg/session"
)

const sessionCookie = "session_id"

// Sessions issues and resolves login sessions.
type Sessions interface {
	Create(ctx context.Context, username string) (string, session.Identity, error)
	Lookup(ctx context.Context, sid string) (session.Identity, error)
	Delete(ctx context.Context, sid string) error
	TTL() time.Duration
}

// Server holds the collaborators of the HTTP handlers.
type Server struct {
	orders   *order.Service
	books    catalog.Store
	sessions Sessions
	log      *logger.Logger
	tracer   trace.Tracer
}

// New creates a Server.
func New(orders *order.Service, books catalog.Store, sessions Sessions, log *logger.Logger, tracer trace.Tracer) *Server {
	return &Server{orders: orders, books: books, sessions: sessions, log: log, tracer: tracer}
}

// Routes returns the router with every endpoint registered.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.traceMiddleware)
	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/login", s.loginHandler).Methods(http.MethodPost)
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.authMiddleware)
	authed.HandleFunc("/logout", s.logoutHandler).Methods(http.MethodPost)

	books := authed.PathPrefix("/books").Subrouter()
	books.HandleFunc("", s.listBooksHandler).Methods(http.MethodGet)
	books.Handle("", s.requireRole(session.RoleManager, s.addBookHandler)).Methods(http.MethodPost)
	books.HandleFunc("/search", s.getBookByTitleHandler).Methods(http.MethodGet)
	books.HandleFunc("/{id}", s.getBookHandler).Methods(http.MethodGet)
	books.HandleFunc("/{id}/info", s.getBookInfoHandler).Methods(http.MethodGet)
	books.Handle("/{id}/info", s.requireRole(session.RoleManager, s.addBookInfoHandler)).Methods(http.MethodPost)

	orders := authed.PathPrefix("/orders").Subrouter()
	orders.HandleFunc("", s.createOrderHandler).Methods(http.MethodPost)
	orders.HandleFunc("", s.listOrdersHandler).Methods(http.MethodGet)
	orders.HandleFunc("/items", s.addOrderItemHandler).Methods(http.MethodPost)
	orders.HandleFunc("/{id}", s.getOrderHandler).Methods(http.MethodGet)

	return r
}

// healthHandler reports liveness.
// @Summary Health check
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.ExtractTracing(r.Context(), r.Header)
		ctx = otel.InjectTracing(ctx, s.tracer)
		ctx, span := otel.AddSpan(ctx, r.Method+" "+r.URL.Path,
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// OrderIDResponse carries the order a command acted on.
type OrderIDResponse struct {
	OrderID string `json:"order_id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}

var kindStatus = map[order.Kind]int{
	order.KindNotFound:        http.StatusNotFound,
	order.KindInvalidArgument: http.StatusBadRequest,
	order.KindConflict:        http.StatusConflict,
	order.KindUnavailable:     http.StatusServiceUnavailable,
}

// writeOrderError maps an order.Service failure onto a response.
func (s *Server) writeOrderError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	kind := order.KindOf(err)
	if kind == order.KindUnavailable {
		s.log.Error(ctx, op, "error", err)
		writeError(w, kindStatus[kind], string(kind), "service unavailable")
		return
	}
	s.log.Debug(ctx, op, "kind", string(kind), "error", err)
	writeError(w, kindStatus[kind], string(kind), err.Error())
}
