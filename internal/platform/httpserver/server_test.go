package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ballotengine "balloteer/contexts/community-governance/ballot-engine"
	"balloteer/contexts/community-governance/ballot-engine/ports"
	ballothttp "balloteer/contexts/community-governance/ballot-engine/transport/http"
	memberregistry "balloteer/contexts/community-governance/member-registry"
	registryhttp "balloteer/contexts/community-governance/member-registry/transport/http"
	"balloteer/internal/platform/messaging"
)

func newTestServer() (*Server, ballotengine.Module) {
	registry := memberregistry.NewInMemoryModule(nil, nil)
	ballots := ballotengine.NewInMemoryModule(messaging.NewBus(nil), nil)
	return New(registry, ballots, nil, ":0"), ballots
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, userID string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer()
	rec := doJSON(t, server.Handler(), http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRegisterCommunityRequiresUserHeader(t *testing.T) {
	server, _ := newTestServer()
	rec := doJSON(t, server.Handler(), http.MethodPost, "/v1/communities", "", `{"community_id":"100"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without X-User-Id, got %d", rec.Code)
	}
}

func TestRegisterCommunityRoute(t *testing.T) {
	server, _ := newTestServer()
	rec := doJSON(t, server.Handler(), http.MethodPost, "/v1/communities", "admin-1",
		`{"community_id":"100","title":"Hundred"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp registryhttp.CommunityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CommunityID != "100" || resp.AdminID != "admin-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestProposalRoutesEndToEnd(t *testing.T) {
	server, ballots := newTestServer()
	handler := server.Handler()
	ballots.Store.SetAdmin("100", "admin-1")
	ballots.Store.SetVoter("100", ports.VoterProjection{VoterID: "v1", Approved: true, Weight: 3})
	ballots.Store.SetVoter("100", ports.VoterProjection{VoterID: "v2", Approved: true, Weight: 7})

	rec := doJSON(t, handler, http.MethodPost, "/v1/communities/100/proposals", "admin-1",
		`{"title":"Pick next budget","options":["Budget A","Budget B"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create proposal: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created ballothttp.CreateProposalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	proposalID := created.Proposal.ProposalID

	rec = doJSON(t, handler, http.MethodPost, "/v1/proposals/"+proposalID+"/votes", "v1", `{"option_index":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("cast vote: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, handler, http.MethodPost, "/v1/proposals/"+proposalID+"/votes", "v2", `{"option_index":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("cast vote: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/v1/proposals/"+proposalID+"/votes", "v1", `{"option_index":9}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid option: expected 422, got %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPost, "/v1/proposals/"+proposalID+"/votes", "stranger", `{"option_index":0}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("ineligible voter: expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/v1/proposals/"+proposalID+"/close", "v1", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin close: expected 403, got %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodPost, "/v1/proposals/"+proposalID+"/close", "admin-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("close: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var closed ballothttp.CloseProposalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &closed); err != nil {
		t.Fatalf("decode close response: %v", err)
	}
	if closed.Outcome.OutcomeKind != "winner" || closed.Outcome.TotalWeight != 10 {
		t.Fatalf("unexpected outcome: %+v", closed.Outcome)
	}

	rec = doJSON(t, handler, http.MethodPost, "/v1/proposals/"+proposalID+"/close", "admin-1", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("second close: expected 409, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/v1/proposals/"+proposalID+"/outcome", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("outcome: expected 200, got %d", rec.Code)
	}
	var outcome ballothttp.OutcomeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if !outcome.Final || outcome.WinnerIndex == nil || *outcome.WinnerIndex != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	rec = doJSON(t, handler, http.MethodGet, "/v1/proposals/missing/outcome", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing proposal: expected 404, got %d", rec.Code)
	}
}
