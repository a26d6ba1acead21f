// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdfs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxWrite is the largest request body accepted as one write.
const MaxWrite = 8192

// Handler serves the endpoints of a Server over HTTP under
// "<mount>/<service>/":
//
//	GET       <root>/        one "<perm> <name>" line per endpoint
//	GET       <root>/<name>  read (Range requests give partial reads)
//	PUT|POST  <root>/<name>  write the request body, reply with the count
//
// Access modes are enforced here, before the Server sees the request.
type Handler struct {
	srv   *Server
	root  string
	log   *slog.Logger
	extra map[string]http.Handler
}

var _ http.Handler = (*Handler)(nil)

// NewHandler returns a Handler for srv. A nil logger uses slog.Default().
func NewHandler(srv *Server, mount, service string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	root := path.Join("/", mount, service)
	if root != "/" {
		root += "/"
	}
	return &Handler{
		srv:   srv,
		root:  root,
		log:   logger,
		extra: make(map[string]http.Handler),
	}
}

// Root returns the URL path the endpoints are served under.
func (h *Handler) Root() string {
	return h.root
}

// Handle serves h2 at <root>/<name>, next to the endpoints. It must be called
// before serving starts and name must not be an endpoint.
func (h *Handler) Handle(name string, h2 http.Handler) {
	h.extra[name] = h2
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	w.Header().Set("X-Request-Id", id)
	log := h.log.With("request", id, "method", r.Method, "path", r.URL.Path)

	if !strings.HasPrefix(r.URL.Path, h.root) {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, h.root)
	if name == "" {
		h.serveDir(w, r)
		return
	}
	if extra, ok := h.extra[name]; ok {
		extra.ServeHTTP(w, r)
		return
	}
	ep, err := h.srv.Open(name)
	if err != nil {
		h.fail(w, log, err)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if !ep.Mode.CanRead() {
			h.notAllowed(w, ep)
			return
		}
		b, err := h.srv.Read(name)
		if err != nil {
			h.fail(w, log, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(b))

	case http.MethodPut, http.MethodPost:
		if !ep.Mode.CanWrite() {
			h.notAllowed(w, ep)
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWrite))
		if err != nil {
			log.Warn("reading body failed", "err", err)
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		n, err := h.srv.Write(name, body)
		if err != nil {
			h.fail(w, log, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "%d\n", n)

	default:
		h.notAllowed(w, ep)
	}
}

func (h *Handler) serveDir(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	var buf bytes.Buffer
	for _, ep := range h.srv.Table().Endpoints() {
		fmt.Fprintf(&buf, "%s %s\n", ep.Mode.Perm(), ep.Name)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *Handler) notAllowed(w http.ResponseWriter, ep Endpoint) {
	var allow []string
	if ep.Mode.CanRead() {
		allow = append(allow, http.MethodGet, http.MethodHead)
	}
	if ep.Mode.CanWrite() {
		allow = append(allow, http.MethodPut, http.MethodPost)
	}
	w.Header().Set("Allow", strings.Join(allow, ", "))
	http.Error(w, ErrAccess.Error(), http.StatusMethodNotAllowed)
}

func (h *Handler) fail(w http.ResponseWriter, log *slog.Logger, err error) {
	code := StatusCode(err)
	log.Debug("request failed", "status", code, "err", err)
	http.Error(w, err.Error(), code)
}

// StatusCode maps the errors of this package to HTTP status codes.
func StatusCode(err error) int {
	var te *TransportError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrProtocol):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAccess):
		return http.StatusMethodNotAllowed
	case errors.Is(err, ErrHalted), errors.As(err, &te):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
