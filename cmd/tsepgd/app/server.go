// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/tsepg/tsepg/pkg/epg"
	"github.com/tsepg/tsepg/pkg/epg/collect"
)

// Server exposes the published EPG snapshot and pass-trigger endpoints
// over HTTP, and owns the background Collection Coordinator.
type Server struct {
	Router      *chi.Mux
	Cfg         *ServerConfig
	coordinator *collect.Coordinator
	snapshot    atomic.Pointer[epg.Snapshot]
	passMetrics *passMetrics
	force       chan struct{}
}

// Publish implements collect.Publisher by storing snap for the
// /api/snapshot handler to serve.
func (s *Server) Publish(ctx context.Context, snap epg.Snapshot) error {
	s.snapshot.Store(&snap)
	return nil
}

func (s *Server) healthzHandlerFunc(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, true, http.StatusOK)
}

func (s *Server) snapshotHandlerFunc(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot.Load()
	if snap == nil {
		http.Error(w, errNoSnapshotYet.Error(), http.StatusServiceUnavailable)
		return
	}
	s.jsonResponse(w, snap, http.StatusOK)
}

// runHandlerFunc triggers an out-of-band pass without waiting for it to
// complete; the daily guard inside Coordinator.Run still applies.
func (s *Server) runHandlerFunc(w http.ResponseWriter, r *http.Request) {
	select {
	case s.force <- struct{}{}:
	default:
	}
	s.jsonResponse(w, true, http.StatusAccepted)
}

// jsonResponse marshals message and writes response with code.
//
// Don't add any more content after this since Content-Length is set.
func (s *Server) jsonResponse(w http.ResponseWriter, message any, code int) {
	raw, err := json.Marshal(message)
	if err != nil {
		http.Error(w, fmt.Sprintf("{message: \"%s\"}", err), http.StatusInternalServerError)
		slog.Error(err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.WriteHeader(code)
	if _, err := w.Write(raw); err != nil {
		slog.Error("could not write HTTP response", "err", err)
	}
}
