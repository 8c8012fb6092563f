// Package localinvoke serves a Lambda handler over HTTP on the same path the
// Runtime Interface Emulator uses, so a function can be exercised with curl
// before it is deployed.
package localinvoke

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"greeter/internal/logger"
)

const (
	InvocationsPath = "/2015-03-31/functions/function/invocations"
	HealthPath      = "/health"

	requestIDHeader  = "Lambda-Runtime-Aws-Request-Id"
	responseIDHeader = "X-Amzn-RequestId"

	maxPayloadBytes = 6 << 20
)

// invokeError mirrors the error document Lambda returns for a failed invoke.
type invokeError struct {
	ErrorMessage string `json:"errorMessage"`
	ErrorType    string `json:"errorType"`
}

type Server struct {
	handler lambda.Handler
	log     *zap.Logger
	srv     *http.Server
}

func NewServer(addr string, h lambda.Handler, log *zap.Logger) *Server {
	s := &Server{
		handler: h,
		log:     log,
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID, s.accessLog)
	r.HandleFunc(InvocationsPath, s.handleInvoke).Methods(http.MethodPost)
	r.HandleFunc(InvocationsPath, methodNotAllowed)
	r.HandleFunc(HealthPath, handleHealth).Methods(http.MethodGet)
	return r
}

// ListenAndServe blocks until the server stops. A clean Shutdown is not an
// error.
func (s *Server) ListenAndServe() error {
	s.log.Info("local invoke listening",
		zap.String("addr", s.srv.Addr),
		zap.String("path", InvocationsPath))

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes+1))
	if err != nil {
		writeInvokeError(w, http.StatusBadRequest, err)
		return
	}
	if len(payload) > maxPayloadBytes {
		writeInvokeError(w, http.StatusRequestEntityTooLarge, errors.New("request payload exceeds 6MB"))
		return
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		payload = []byte("{}")
	}

	ctx = lambdacontext.NewContext(ctx, &lambdacontext.LambdaContext{
		AwsRequestID: w.Header().Get(responseIDHeader),
	})

	out, err := s.handler.Invoke(ctx, payload)
	if err != nil {
		log.Warn("invoke failed", zap.Error(err))
		writeInvokeError(w, http.StatusBadGateway, err)
		return
	}

	log.Debug("invoke result", zap.ByteString("payload", out))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func writeInvokeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(invokeError{
		ErrorMessage: err.Error(),
		ErrorType:    errorType(err),
	})
}

func errorType(err error) string {
	t := reflect.TypeOf(err)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	w.WriteHeader(http.StatusMethodNotAllowed)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// requestID picks the caller's request id or mints one, echoes it back and
// attaches a request-scoped logger to the context.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = r.Header.Get("X-Request-Id")
		}
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(responseIDHeader, id)

		ctx := logger.WithCtx(r.Context(), s.log.With(zap.String("request_id", id)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.FromCtx(r.Context()).Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
