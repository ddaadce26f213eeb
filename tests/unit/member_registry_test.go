package unit

import (
	"context"
	"errors"
	"testing"

	memberregistry "balloteer/contexts/community-governance/member-registry"
	registryerrors "balloteer/contexts/community-governance/member-registry/domain/errors"
	registryhttp "balloteer/contexts/community-governance/member-registry/transport/http"
)

func newRegistryModule() memberregistry.Module {
	return memberregistry.NewInMemoryModule(nil, nil)
}

func registerCommunityWithAdmin(t *testing.T, module memberregistry.Module, communityID string, adminID string) {
	t.Helper()
	community, err := module.Handler.RegisterCommunityHandler(context.Background(), adminID, registryhttp.RegisterCommunityRequest{
		CommunityID: communityID,
		Title:       "Community " + communityID,
	})
	if err != nil {
		t.Fatalf("register community failed: %v", err)
	}
	if community.AdminID != adminID {
		t.Fatalf("first contact must claim the admin seat, got %q", community.AdminID)
	}
}

func TestRegisterCommunityKeepsExistingAdmin(t *testing.T) {
	module := newRegistryModule()
	registerCommunityWithAdmin(t, module, "100", "admin-1")

	community, err := module.Handler.RegisterCommunityHandler(context.Background(), "intruder", registryhttp.RegisterCommunityRequest{
		CommunityID: "100",
		Title:       "Renamed community",
	})
	if err != nil {
		t.Fatalf("re-register failed: %v", err)
	}
	if community.AdminID != "admin-1" {
		t.Fatalf("existing admin must not be overwritten, got %q", community.AdminID)
	}
	if community.Title != "Renamed community" {
		t.Fatalf("title update must apply, got %q", community.Title)
	}
}

func TestVoterOnboardingReviewFlow(t *testing.T) {
	module := newRegistryModule()
	registerCommunityWithAdmin(t, module, "100", "admin-1")

	voter, err := module.Handler.RegisterVoterHandler(context.Background(), "100", registryhttp.RegisterVoterRequest{
		VoterID:  "v1",
		Username: "alice",
	})
	if err != nil {
		t.Fatalf("register voter failed: %v", err)
	}
	if voter.Approved || voter.Processed || voter.Weight != nil {
		t.Fatalf("fresh voter must be unprocessed and weightless, got %+v", voter)
	}

	if err := module.Handler.RequestAccessHandler(context.Background(), "100", "v1"); err != nil {
		t.Fatalf("access request failed: %v", err)
	}

	if _, err := module.Handler.ReviewVoterHandler(context.Background(), "100", "v1", "v1", registryhttp.ReviewVoterRequest{
		Approve: true,
		Weight:  3,
	}); !errors.Is(err, registryerrors.ErrNotAdmin) {
		t.Fatalf("non-admin review must fail, got %v", err)
	}

	approved, err := module.Handler.ReviewVoterHandler(context.Background(), "100", "v1", "admin-1", registryhttp.ReviewVoterRequest{
		Approve: true,
		Weight:  3,
	})
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if !approved.Approved || !approved.Processed || approved.Weight == nil || *approved.Weight != 3 {
		t.Fatalf("approval must assign the weight, got %+v", approved)
	}

	if _, err := module.Handler.ReviewVoterHandler(context.Background(), "100", "v1", "admin-1", registryhttp.ReviewVoterRequest{
		Approve: true,
		Weight:  5,
	}); !errors.Is(err, registryerrors.ErrAlreadyProcessed) {
		t.Fatalf("second review must fail, got %v", err)
	}
	if err := module.Handler.RequestAccessHandler(context.Background(), "100", "v1"); !errors.Is(err, registryerrors.ErrAlreadyProcessed) {
		t.Fatalf("processed voter must not re-request access, got %v", err)
	}
}

func TestReviewRejectLeavesVoterIneligible(t *testing.T) {
	module := newRegistryModule()
	registerCommunityWithAdmin(t, module, "100", "admin-1")

	if _, err := module.Handler.RegisterVoterHandler(context.Background(), "100", registryhttp.RegisterVoterRequest{
		VoterID: "v1",
	}); err != nil {
		t.Fatalf("register voter failed: %v", err)
	}

	rejected, err := module.Handler.ReviewVoterHandler(context.Background(), "100", "v1", "admin-1", registryhttp.ReviewVoterRequest{
		Approve: false,
	})
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Approved || rejected.Weight != nil || !rejected.Processed {
		t.Fatalf("rejected voter must stay ineligible, got %+v", rejected)
	}
}

func TestReviewApproveRequiresPositiveWeight(t *testing.T) {
	module := newRegistryModule()
	registerCommunityWithAdmin(t, module, "100", "admin-1")

	if _, err := module.Handler.RegisterVoterHandler(context.Background(), "100", registryhttp.RegisterVoterRequest{
		VoterID: "v1",
	}); err != nil {
		t.Fatalf("register voter failed: %v", err)
	}

	if _, err := module.Handler.ReviewVoterHandler(context.Background(), "100", "v1", "admin-1", registryhttp.ReviewVoterRequest{
		Approve: true,
		Weight:  0,
	}); !errors.Is(err, registryerrors.ErrInvalidWeight) {
		t.Fatalf("approval without weight must fail, got %v", err)
	}
}

func TestSetWeightUpdatesApprovedVoter(t *testing.T) {
	module := newRegistryModule()
	registerCommunityWithAdmin(t, module, "100", "admin-1")

	if _, err := module.Handler.RegisterVoterHandler(context.Background(), "100", registryhttp.RegisterVoterRequest{
		VoterID: "v1",
	}); err != nil {
		t.Fatalf("register voter failed: %v", err)
	}
	if _, err := module.Handler.ReviewVoterHandler(context.Background(), "100", "v1", "admin-1", registryhttp.ReviewVoterRequest{
		Approve: true,
		Weight:  3,
	}); err != nil {
		t.Fatalf("review failed: %v", err)
	}

	updated, err := module.Handler.SetWeightHandler(context.Background(), "100", "v1", "admin-1", registryhttp.SetWeightRequest{
		Weight: 7,
		Reason: "seniority bump",
	})
	if err != nil {
		t.Fatalf("set weight failed: %v", err)
	}
	if updated.Weight == nil || *updated.Weight != 7 || updated.LastChangeReason != "seniority bump" {
		t.Fatalf("weight update must persist with reason, got %+v", updated)
	}

	if _, err := module.Handler.SetWeightHandler(context.Background(), "100", "v1", "v1", registryhttp.SetWeightRequest{
		Weight: 99,
	}); !errors.Is(err, registryerrors.ErrNotAdmin) {
		t.Fatalf("non-admin weight change must fail, got %v", err)
	}
	if _, err := module.Handler.SetWeightHandler(context.Background(), "100", "v1", "admin-1", registryhttp.SetWeightRequest{
		Weight: -1,
	}); !errors.Is(err, registryerrors.ErrInvalidWeight) {
		t.Fatalf("non-positive weight must fail, got %v", err)
	}

	defaulted, err := module.Handler.SetWeightHandler(context.Background(), "100", "v1", "admin-1", registryhttp.SetWeightRequest{
		Weight: 4,
		Reason: "skip",
	})
	if err != nil {
		t.Fatalf("set weight failed: %v", err)
	}
	if defaulted.LastChangeReason != "unspecified" {
		t.Fatalf("skipped reason must default, got %q", defaulted.LastChangeReason)
	}

	if _, err := module.Handler.SetWeightHandler(context.Background(), "100", "missing", "admin-1", registryhttp.SetWeightRequest{
		Weight: 2,
	}); !errors.Is(err, registryerrors.ErrVoterNotFound) {
		t.Fatalf("unknown voter must fail, got %v", err)
	}
}

func TestListVotersReturnsCommunityMembers(t *testing.T) {
	module := newRegistryModule()
	registerCommunityWithAdmin(t, module, "100", "admin-1")

	for _, voterID := range []string{"v1", "v2", "v3"} {
		if _, err := module.Handler.RegisterVoterHandler(context.Background(), "100", registryhttp.RegisterVoterRequest{
			VoterID: voterID,
		}); err != nil {
			t.Fatalf("register %s failed: %v", voterID, err)
		}
	}
	if _, err := module.Handler.ReviewVoterHandler(context.Background(), "100", "v2", "admin-1", registryhttp.ReviewVoterRequest{
		Approve: true,
		Weight:  2,
	}); err != nil {
		t.Fatalf("review failed: %v", err)
	}

	list, err := module.Handler.ListVotersHandler(context.Background(), "100")
	if err != nil {
		t.Fatalf("list voters failed: %v", err)
	}
	if len(list.Items) != 3 {
		t.Fatalf("expected all registered voters, got %d", len(list.Items))
	}
	approved, err := module.Service.ListApprovedVoters(context.Background(), "100")
	if err != nil {
		t.Fatalf("list approved failed: %v", err)
	}
	if len(approved) != 1 || approved[0].VoterID != "v2" {
		t.Fatalf("expected only v2 approved, got %+v", approved)
	}
}
