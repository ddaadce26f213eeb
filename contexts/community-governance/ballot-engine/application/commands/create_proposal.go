package commands

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	application "balloteer/contexts/community-governance/ballot-engine/application"
	"balloteer/contexts/community-governance/ballot-engine/domain/entities"
	domainerrors "balloteer/contexts/community-governance/ballot-engine/domain/errors"
)

// CreateProposalCommand is the write-model input for opening a new ballot.
type CreateProposalCommand struct {
	CommunityID  string
	CreatedBy    string
	Title        string
	Description  string
	Options      []string
	QuorumWeight *int64
	EndsAt       *time.Time
	Attachment   string
}

// CreateProposalResult carries the stored proposal plus ballot fan-out counts
// for the transport layer.
type CreateProposalResult struct {
	Proposal         entities.Proposal
	EligibleVoters   int
	BallotsDelivered int
}

// CreateProposal validates and stores a new open proposal, then delivers a
// private ballot to every currently eligible voter. Delivery failures are
// per-voter and never fail the creation.
func (uc ProposalUseCase) CreateProposal(ctx context.Context, cmd CreateProposalCommand) (CreateProposalResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	communityID := strings.TrimSpace(cmd.CommunityID)
	createdBy := strings.TrimSpace(cmd.CreatedBy)
	logger.Info("proposal create processing started",
		"event", "ballot_proposal_create_started",
		"module", moduleName,
		"layer", "application",
		"community_id", communityID,
		"created_by", createdBy,
	)

	options := normalizeOptions(cmd.Options)
	if communityID == "" || createdBy == "" || strings.TrimSpace(cmd.Title) == "" || len(options) < 2 {
		logger.Warn("proposal create validation failed",
			"event", "ballot_proposal_create_validation_failed",
			"module", moduleName,
			"layer", "application",
			"community_id", communityID,
			"option_count", len(options),
		)
		return CreateProposalResult{}, domainerrors.ErrInvalidProposal
	}
	if cmd.QuorumWeight != nil && *cmd.QuorumWeight <= 0 {
		return CreateProposalResult{}, domainerrors.ErrInvalidProposal
	}

	now := uc.now()
	if cmd.EndsAt != nil && !cmd.EndsAt.UTC().After(now) {
		return CreateProposalResult{}, domainerrors.ErrInvalidProposal
	}

	adminID, err := uc.Directory.GetAdminID(ctx, communityID)
	if err != nil {
		return CreateProposalResult{}, err
	}
	if adminID == "" || adminID != createdBy {
		logger.Warn("proposal create rejected for non-admin",
			"event", "ballot_proposal_create_not_authorized",
			"module", moduleName,
			"layer", "application",
			"community_id", communityID,
			"created_by", createdBy,
		)
		return CreateProposalResult{}, domainerrors.ErrNotAuthorized
	}

	proposal := entities.Proposal{
		ProposalID:    newProposalID(communityID, now),
		CommunityID:   communityID,
		Title:         strings.TrimSpace(cmd.Title),
		Description:   strings.TrimSpace(cmd.Description),
		Options:       options,
		Status:        entities.ProposalStatusOpen,
		CreatedBy:     createdBy,
		Attachment:    strings.TrimSpace(cmd.Attachment),
		VoterChoices:  make(map[string]int),
		OptionWeights: make(map[int]int64),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if cmd.QuorumWeight != nil {
		quorum := *cmd.QuorumWeight
		proposal.QuorumWeight = &quorum
	}
	if cmd.EndsAt != nil {
		endsAt := cmd.EndsAt.UTC()
		proposal.EndsAt = &endsAt
	}
	if err := uc.Proposals.CreateProposal(ctx, proposal); err != nil {
		return CreateProposalResult{}, err
	}

	delivered, eligible := uc.deliverBallots(ctx, proposal)
	logger.Info("proposal created",
		"event", "ballot_proposal_created",
		"module", moduleName,
		"layer", "application",
		"proposal_id", proposal.ProposalID,
		"community_id", proposal.CommunityID,
		"option_count", len(proposal.Options),
		"eligible_voters", eligible,
		"ballots_delivered", delivered,
	)
	return CreateProposalResult{
		Proposal:         proposal,
		EligibleVoters:   eligible,
		BallotsDelivered: delivered,
	}, nil
}

// deliverBallots fans private ballots out to eligible voters with bounded
// parallelism. It returns delivered and eligible counts.
func (uc ProposalUseCase) deliverBallots(ctx context.Context, proposal entities.Proposal) (int, int) {
	logger := application.ResolveLogger(uc.Logger)
	if uc.Gateway == nil {
		return 0, 0
	}
	voters, err := uc.Directory.ListEligibleVoters(ctx, proposal.CommunityID)
	if err != nil {
		logger.Warn("ballot fan-out voter listing failed",
			"event", "ballot_fanout_list_failed",
			"module", moduleName,
			"layer", "application",
			"proposal_id", proposal.ProposalID,
			"error", err.Error(),
		)
		return 0, 0
	}
	if len(voters) == 0 {
		return 0, 0
	}

	parallelism := uc.DeliveryParallelism
	if parallelism <= 0 {
		parallelism = 4
	}
	delivered := make([]bool, len(voters))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallelism)
	for i, voter := range voters {
		group.Go(func() error {
			if err := uc.Gateway.DeliverBallot(groupCtx, voter.VoterID, proposal, voter.Weight); err != nil {
				logger.Warn("ballot delivery failed",
					"event", "ballot_delivery_failed",
					"module", moduleName,
					"layer", "application",
					"proposal_id", proposal.ProposalID,
					"voter_id", voter.VoterID,
					"error", err.Error(),
				)
				return nil
			}
			delivered[i] = true
			return nil
		})
	}
	_ = group.Wait()

	count := 0
	for _, ok := range delivered {
		if ok {
			count++
		}
	}
	return count, len(voters)
}

func normalizeOptions(options []string) []string {
	normalized := make([]string, 0, len(options))
	for _, option := range options {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}
		normalized = append(normalized, option)
	}
	return normalized
}
