package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/tcfw/votechain/internal/metrics"
	"github.com/tcfw/votechain/internal/node"
	"github.com/tcfw/votechain/internal/utils/logging"
)

type APIHandler interface {
	Setup(*Api, *mux.Router) error
}

var (
	reg = []APIHandler{}
)

type BaseHandler struct {
	a *Api
}

func (b *BaseHandler) Setup(a *Api, _ *mux.Router) error {
	b.a = a
	return nil
}

type Api struct {
	n      *node.Node
	router *mux.Router
	srv    *http.Server
}

func NewAPI(n *node.Node) (*Api, error) {
	a := &Api{
		n:      n,
		router: mux.NewRouter(),
	}

	// poll ids may contain escaped slashes
	a.router.UseEncodedPath()
	a.router.Use(recoveryMiddleware, loggingMiddleware)

	r := a.router.PathPrefix("/api").Subrouter()

	for _, s := range reg {
		if err := s.Setup(a, r); err != nil {
			return nil, errors.Wrap(err, "registering handler")
		}
	}

	if n.Config().API().Metrics {
		a.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}

	a.srv = &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *Api) Handler() http.Handler {
	return a.router
}

func (a *Api) ListenAndServe(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	logging.Entry().WithField("addr", lis.Addr().String()).Info("api listening")

	if err := a.srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (a *Api) Shutdown(ctx context.Context) error {
	return a.srv.Shutdown(ctx)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.WithError(err).Debug("writing response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Message: msg})
}
