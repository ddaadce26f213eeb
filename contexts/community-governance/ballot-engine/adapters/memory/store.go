package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"balloteer/contexts/community-governance/ballot-engine/domain/entities"
	domainerrors "balloteer/contexts/community-governance/ballot-engine/domain/errors"
	"balloteer/contexts/community-governance/ballot-engine/ports"
)

type voteKey struct {
	proposalID string
	voterID    string
}

type voterKey struct {
	communityID string
	voterID     string
}

type outboxRow struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory adapter used by tests and DSN-less wiring. It backs
// the proposal repository, the outbox, and a seedable community directory.
type Store struct {
	mu        sync.RWMutex
	proposals map[string]entities.Proposal
	votes     map[voteKey]entities.Vote
	outbox    []outboxRow
	admins    map[string]string
	voters    map[voterKey]ports.VoterProjection
	idSeq     int64
}

func NewStore() *Store {
	return &Store{
		proposals: make(map[string]entities.Proposal),
		votes:     make(map[voteKey]entities.Vote),
		admins:    make(map[string]string),
		voters:    make(map[voterKey]ports.VoterProjection),
	}
}

var (
	_ ports.ProposalRepository = (*Store)(nil)
	_ ports.CommunityDirectory = (*Store)(nil)
	_ ports.OutboxWriter       = (*Store)(nil)
	_ ports.OutboxRepository   = (*Store)(nil)
	_ ports.Clock              = (*Store)(nil)
	_ ports.IDGenerator        = (*Store)(nil)
)

func (s *Store) CreateProposal(_ context.Context, proposal entities.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[proposal.ProposalID] = cloneProposal(proposal)
	return nil
}

func (s *Store) GetProposal(_ context.Context, proposalID string) (entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.proposals[proposalID]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	return cloneProposal(proposal), nil
}

func (s *Store) RecordVote(_ context.Context, proposal entities.Proposal, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.proposals[proposal.ProposalID]; !ok {
		return domainerrors.ErrProposalNotFound
	}
	s.proposals[proposal.ProposalID] = cloneProposal(proposal)
	s.votes[voteKey{vote.ProposalID, vote.VoterID}] = vote
	return nil
}

func (s *Store) GetVote(_ context.Context, proposalID string, voterID string) (entities.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[voteKey{proposalID, voterID}]
	return vote, ok, nil
}

func (s *Store) MarkClosed(_ context.Context, proposal entities.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.proposals[proposal.ProposalID]; !ok {
		return domainerrors.ErrProposalNotFound
	}
	s.proposals[proposal.ProposalID] = cloneProposal(proposal)
	return nil
}

func (s *Store) ListOpenProposals(_ context.Context, communityID string) ([]entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	open := make([]entities.Proposal, 0)
	for _, proposal := range s.proposals {
		if proposal.CommunityID == communityID && proposal.IsOpen() {
			open = append(open, cloneProposal(proposal))
		}
	}
	sortProposals(open)
	return open, nil
}

func (s *Store) ListExpiredOpen(_ context.Context, now time.Time, limit int) ([]entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expired := make([]entities.Proposal, 0)
	for _, proposal := range s.proposals {
		if proposal.IsOpen() && proposal.Expired(now) {
			expired = append(expired, cloneProposal(proposal))
		}
	}
	sortProposals(expired)
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

// SetAdmin seeds the directory projection for one community.
func (s *Store) SetAdmin(communityID string, adminID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[communityID] = adminID
}

// SetVoter seeds the directory projection for one community member.
func (s *Store) SetVoter(communityID string, voter ports.VoterProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voters[voterKey{communityID, voter.VoterID}] = voter
}

func (s *Store) GetAdminID(_ context.Context, communityID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	adminID, ok := s.admins[communityID]
	if !ok {
		return "", domainerrors.ErrCommunityNotFound
	}
	return adminID, nil
}

func (s *Store) GetVoter(_ context.Context, communityID string, voterID string) (ports.VoterProjection, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voter, ok := s.voters[voterKey{communityID, voterID}]
	return voter, ok, nil
}

func (s *Store) ListEligibleVoters(_ context.Context, communityID string) ([]ports.VoterProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	eligible := make([]ports.VoterProjection, 0)
	for key, voter := range s.voters {
		if key.communityID == communityID && voter.Eligible() {
			eligible = append(eligible, voter)
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].VoterID < eligible[j].VoterID })
	return eligible, nil
}

func (s *Store) ListCommunitiesForVoter(_ context.Context, voterID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	communities := make([]string, 0)
	for key := range s.voters {
		if key.voterID == voterID {
			communities = append(communities, key.communityID)
		}
	}
	sort.Strings(communities)
	return communities, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Outbox rows are keyed by event ID, so a replayed append is a no-op.
	for _, row := range s.outbox {
		if row.message.OutboxID == envelope.EventID {
			return nil
		}
	}
	s.outbox = append(s.outbox, outboxRow{
		message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt,
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		pending = append(pending, row.message)
		if limit > 0 && len(pending) >= limit {
			break
		}
	}
	return pending, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			s.outbox[i].published = true
			return nil
		}
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idSeq++
	return fmt.Sprintf("id-%d", s.idSeq), nil
}

func sortProposals(proposals []entities.Proposal) {
	sort.Slice(proposals, func(i, j int) bool {
		if proposals[i].CreatedAt.Equal(proposals[j].CreatedAt) {
			return proposals[i].ProposalID < proposals[j].ProposalID
		}
		return proposals[i].CreatedAt.Before(proposals[j].CreatedAt)
	})
}

func cloneProposal(proposal entities.Proposal) entities.Proposal {
	clone := proposal
	clone.Options = append([]string(nil), proposal.Options...)
	clone.VoterChoices = make(map[string]int, len(proposal.VoterChoices))
	for voterID, choice := range proposal.VoterChoices {
		clone.VoterChoices[voterID] = choice
	}
	clone.OptionWeights = make(map[int]int64, len(proposal.OptionWeights))
	for option, weight := range proposal.OptionWeights {
		clone.OptionWeights[option] = weight
	}
	if proposal.QuorumWeight != nil {
		quorum := *proposal.QuorumWeight
		clone.QuorumWeight = &quorum
	}
	if proposal.EndsAt != nil {
		endsAt := *proposal.EndsAt
		clone.EndsAt = &endsAt
	}
	if proposal.ClosedAt != nil {
		closedAt := *proposal.ClosedAt
		clone.ClosedAt = &closedAt
	}
	return clone
}
