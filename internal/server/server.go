// Package server publishes an agent's DID document and description
// over HTTP and guards inter-agent endpoints with DIDWba
// verification.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/agentwire/didwba/internal/utils/logging"
	"github.com/agentwire/didwba/pkg/agent"
)

const maxPortAttempts = 10

type Server struct {
	id      *agent.Identity
	desc    *agent.Description
	auth    *Authenticator
	httpSrv *http.Server

	addr string
}

func NewServer(id *agent.Identity, desc *agent.Description, auth *Authenticator) (*Server, error) {
	if id == nil || id.Document == nil {
		return nil, errors.New("identity required")
	}

	s := &Server{id: id, desc: desc, auth: auth}

	mux := http.NewServeMux()

	docPath, err := documentPath(s.id)
	if err != nil {
		return nil, err
	}
	mux.HandleFunc(docPath, s.handleDocument)
	mux.HandleFunc(descriptionPath(s.id), s.handleDescription)

	mux.Handle("/v1/ping", auth.RequireAuth(http.HandlerFunc(s.handlePing)))

	s.httpSrv = &http.Server{Handler: mux}

	return s, nil
}

// documentPath derives the serving path from the identity's DID so
// the published document is reachable at the URL resolvers derive.
func documentPath(id *agent.Identity) (string, error) {
	_, path, err := id.DID.Parts()
	if err != nil {
		return "", err
	}

	if path == "" {
		return "/.well-known/did.json", nil
	}

	return "/" + strings.ReplaceAll(path, ":", "/") + "/did.json", nil
}

func descriptionPath(id *agent.Identity) string {
	_, path, _ := id.DID.Parts()
	if path == "" {
		path = "default"
	}

	return "/agents/" + strings.ReplaceAll(path, ":", "/") + "/ad.json"
}

// ListenAndServe binds the first free port starting at port,
// probing upward when the preferred one is taken.
func (s *Server) ListenAndServe(port int) error {
	var lis net.Listener
	var err error

	for i := 0; i < maxPortAttempts; i++ {
		lis, err = net.Listen("tcp", fmt.Sprintf(":%d", port+i))
		if err == nil {
			break
		}
		logging.WithField("port", port+i).Warn("port unavailable, trying next")
	}
	if err != nil {
		return errors.Wrapf(err, "no free port in %d..%d", port, port+maxPortAttempts-1)
	}

	s.addr = lis.Addr().String()
	logging.WithField("addr", s.addr).Info("serving did document")

	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	s.addr = lis.Addr().String()

	err := s.httpSrv.Serve(lis)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Addr() string {
	return s.addr
}

func (s *Server) Shutdown(ctx context.Context) error {
	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.httpSrv.Shutdown(sctx)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.id.Document)
}

func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	if s.desc == nil {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, s.desc)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	caller, _ := Caller(r.Context())

	writeJSON(w, map[string]string{
		"status": "ok",
		"did":    string(s.id.DID),
		"caller": string(caller),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.WithError(err).Error("writing response")
	}
}
