package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	ballotengine "balloteer/contexts/community-governance/ballot-engine"
	ballotdomainerrors "balloteer/contexts/community-governance/ballot-engine/domain/errors"
	ballothttp "balloteer/contexts/community-governance/ballot-engine/transport/http"
	memberregistry "balloteer/contexts/community-governance/member-registry"
	registrydomainerrors "balloteer/contexts/community-governance/member-registry/domain/errors"
	registryhttp "balloteer/contexts/community-governance/member-registry/transport/http"
	"balloteer/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "balloteer/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	registry memberregistry.Module
	ballots  ballotengine.Module
}

func New(
	registry memberregistry.Module,
	ballots ballotengine.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		registry: registry,
		ballots:  ballots,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routed mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", metrics.Handler())
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /v1/communities", s.instrument("register_community", s.handleRegisterCommunity))
	s.mux.HandleFunc("GET /v1/communities/{community_id}/voters", s.instrument("list_voters", s.handleListVoters))
	s.mux.HandleFunc("POST /v1/communities/{community_id}/voters", s.instrument("register_voter", s.handleRegisterVoter))
	s.mux.HandleFunc("POST /v1/communities/{community_id}/voters/{voter_id}/access-request", s.instrument("request_access", s.handleRequestAccess))
	s.mux.HandleFunc("POST /v1/communities/{community_id}/voters/{voter_id}/review", s.instrument("review_voter", s.handleReviewVoter))
	s.mux.HandleFunc("PUT /v1/communities/{community_id}/voters/{voter_id}/weight", s.instrument("set_weight", s.handleSetWeight))

	s.mux.HandleFunc("POST /v1/communities/{community_id}/proposals", s.instrument("create_proposal", s.handleCreateProposal))
	s.mux.HandleFunc("GET /v1/communities/{community_id}/proposals", s.instrument("list_community_proposals", s.handleListCommunityProposals))
	s.mux.HandleFunc("POST /v1/proposals/{proposal_id}/votes", s.instrument("cast_vote", s.handleCastVote))
	s.mux.HandleFunc("POST /v1/proposals/{proposal_id}/close", s.instrument("close_proposal", s.handleCloseProposal))
	s.mux.HandleFunc("GET /v1/proposals/{proposal_id}/outcome", s.instrument("get_outcome", s.handleGetOutcome))
	s.mux.HandleFunc("GET /v1/voters/{voter_id}/proposals", s.instrument("list_voter_proposals", s.handleListVoterProposals))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegisterCommunity(w http.ResponseWriter, r *http.Request) {
	actorID := actorFromRequest(r)
	if actorID == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req registryhttp.RegisterCommunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.RegisterCommunityHandler(r.Context(), actorID, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListVoters(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.ListVotersHandler(r.Context(), r.PathValue("community_id"))
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterVoter(w http.ResponseWriter, r *http.Request) {
	var req registryhttp.RegisterVoterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.RegisterVoterHandler(r.Context(), r.PathValue("community_id"), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRequestAccess(w http.ResponseWriter, r *http.Request) {
	err := s.registry.Handler.RequestAccessHandler(
		r.Context(),
		r.PathValue("community_id"),
		r.PathValue("voter_id"),
	)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "pending_review"})
}

func (s *Server) handleReviewVoter(w http.ResponseWriter, r *http.Request) {
	reviewerID := actorFromRequest(r)
	if reviewerID == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req registryhttp.ReviewVoterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.ReviewVoterHandler(
		r.Context(),
		r.PathValue("community_id"),
		r.PathValue("voter_id"),
		reviewerID,
		req,
	)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetWeight(w http.ResponseWriter, r *http.Request) {
	adminID := actorFromRequest(r)
	if adminID == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req registryhttp.SetWeightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.registry.Handler.SetWeightHandler(
		r.Context(),
		r.PathValue("community_id"),
		r.PathValue("voter_id"),
		adminID,
		req,
	)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	actorID := actorFromRequest(r)
	if actorID == "" {
		writeBallotError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ballothttp.CreateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBallotError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ballots.Handler.CreateProposalHandler(r.Context(), r.PathValue("community_id"), actorID, req)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	metrics.ProposalsCreated.Inc()
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCommunityProposals(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ballots.Handler.ListOpenForCommunityHandler(r.Context(), r.PathValue("community_id"))
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	voterID := actorFromRequest(r)
	if voterID == "" {
		writeBallotError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req ballothttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBallotError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ballots.Handler.CastVoteHandler(r.Context(), r.PathValue("proposal_id"), voterID, req)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	metrics.VotesCast.Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseProposal(w http.ResponseWriter, r *http.Request) {
	actorID := actorFromRequest(r)
	if actorID == "" {
		writeBallotError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	resp, err := s.ballots.Handler.CloseProposalHandler(r.Context(), r.PathValue("proposal_id"), actorID)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	metrics.ProposalsClosed.WithLabelValues(metrics.CloseModeAdmin).Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOutcome(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ballots.Handler.GetOutcomeHandler(r.Context(), r.PathValue("proposal_id"))
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListVoterProposals(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ballots.Handler.ListOpenForVoterHandler(r.Context(), r.PathValue("voter_id"))
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeRegistryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registrydomainerrors.ErrInvalidRequest):
		writeRegistryError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, registrydomainerrors.ErrCommunityNotFound):
		writeRegistryError(w, http.StatusNotFound, "community_not_found", err.Error())
	case errors.Is(err, registrydomainerrors.ErrVoterNotFound):
		writeRegistryError(w, http.StatusNotFound, "voter_not_found", err.Error())
	case errors.Is(err, registrydomainerrors.ErrNotAdmin):
		writeRegistryError(w, http.StatusForbidden, "not_admin", err.Error())
	case errors.Is(err, registrydomainerrors.ErrAlreadyProcessed):
		writeRegistryError(w, http.StatusConflict, "already_processed", err.Error())
	case errors.Is(err, registrydomainerrors.ErrInvalidWeight):
		writeRegistryError(w, http.StatusUnprocessableEntity, "invalid_weight", err.Error())
	case errors.Is(err, registrydomainerrors.ErrStorageUnavailable):
		writeRegistryError(w, http.StatusServiceUnavailable, "storage_unavailable", "storage unavailable")
	default:
		writeRegistryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeBallotDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ballotdomainerrors.ErrInvalidProposal):
		writeBallotError(w, http.StatusBadRequest, "invalid_proposal", err.Error())
	case errors.Is(err, ballotdomainerrors.ErrInvalidOption):
		writeBallotError(w, http.StatusUnprocessableEntity, "invalid_option", err.Error())
	case errors.Is(err, ballotdomainerrors.ErrProposalNotFound):
		writeBallotError(w, http.StatusNotFound, "proposal_not_found", err.Error())
	case errors.Is(err, ballotdomainerrors.ErrCommunityNotFound):
		writeBallotError(w, http.StatusNotFound, "community_not_found", err.Error())
	case errors.Is(err, ballotdomainerrors.ErrNotAuthorized):
		writeBallotError(w, http.StatusForbidden, "not_authorized", err.Error())
	case errors.Is(err, ballotdomainerrors.ErrNotEligible):
		writeBallotError(w, http.StatusForbidden, "not_eligible", err.Error())
	case errors.Is(err, ballotdomainerrors.ErrVotingClosed):
		writeBallotError(w, http.StatusConflict, "voting_closed", err.Error())
	case errors.Is(err, ballotdomainerrors.ErrAlreadyClosed):
		writeBallotError(w, http.StatusConflict, "already_closed", err.Error())
	case errors.Is(err, ballotdomainerrors.ErrStorageUnavailable):
		writeBallotError(w, http.StatusServiceUnavailable, "storage_unavailable", "storage unavailable")
	default:
		writeBallotError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRegistryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, registryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeBallotError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ballothttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func actorFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}

// instrument records request latency per route with the response status class.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)
		metrics.HTTPRequestDuration.
			WithLabelValues(route, strconv.Itoa(recorder.status/100*100)).
			Observe(time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
