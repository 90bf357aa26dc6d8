package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/quorumsoft/ballotd/internal/ballot/service"
	"github.com/quorumsoft/ballotd/internal/ballot/types"
)

// submitTimeout bounds a single vote submission.  If it expires the caller
// must treat the outcome as unknown; retrying an already-consumed token
// fails safely with "token already used".
const submitTimeout = 10 * time.Second

type Dependencies struct {
	Logger          *log.Logger
	Addr            string
	TokenService    *service.TokenService
	SubmitService   *service.SubmitService
	TallyService    *service.TallyService
	ElectionService *service.ElectionService
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	tokens     *service.TokenService
	submit     *service.SubmitService
	tally      *service.TallyService
	elections  *service.ElectionService
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:    d.Logger,
		mux:       mux,
		tokens:    d.TokenService,
		submit:    d.SubmitService,
		tally:     d.TallyService,
		elections: d.ElectionService,
	}

	mux.HandleFunc("POST /v1/tokens", s.handleIssueToken)
	mux.HandleFunc("POST /v1/votes", s.handleSubmitVote)
	mux.HandleFunc("GET /v1/tally", s.handleTally)
	mux.HandleFunc("POST /v1/elections", s.handleCreateElection)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req types.IssueTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := s.tokens.IssueToken(r.Context(), identityFromRequest(r), req)
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	var req types.SubmitVoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), submitTimeout)
	defer cancel()

	resp, err := s.submit.SubmitVote(ctx, identityFromRequest(r), req)
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	caller := identityFromRequest(r)
	if !caller.IsAuthenticated() {
		writeError(w, http.StatusUnauthorized, "Unauthenticated", "sign-in required")
		return
	}

	resp, err := s.tally.Aggregate(r.Context(), r.URL.Query().Get("election_id"))
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	var req types.CreateElectionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := s.elections.CreateElection(r.Context(), identityFromRequest(r), req)
	if err != nil {
		writeStatusError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidArgument", "invalid JSON body")
		return false
	}
	return true
}
