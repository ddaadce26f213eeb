package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"balloteer/contexts/community-governance/member-registry/domain/entities"
	domainerrors "balloteer/contexts/community-governance/member-registry/domain/errors"
)

type voterKey struct {
	communityID string
	voterID     string
}

type Store struct {
	mu          sync.RWMutex
	communities map[string]entities.Community
	voters      map[voterKey]entities.Voter
}

func NewStore() *Store {
	return &Store{
		communities: make(map[string]entities.Community),
		voters:      make(map[voterKey]entities.Voter),
	}
}

func (s *Store) GetCommunity(_ context.Context, communityID string) (entities.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	community, ok := s.communities[strings.TrimSpace(communityID)]
	if !ok {
		return entities.Community{}, domainerrors.ErrCommunityNotFound
	}
	return community, nil
}

func (s *Store) UpsertCommunity(_ context.Context, community entities.Community) (entities.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	community.CommunityID = strings.TrimSpace(community.CommunityID)
	if existing, ok := s.communities[community.CommunityID]; ok {
		community.ProposalCounter = existing.ProposalCounter
		if existing.AdminID != "" {
			community.AdminID = existing.AdminID
		}
	}
	s.communities[community.CommunityID] = community
	return community, nil
}

func (s *Store) ListCommunitiesForAdmin(_ context.Context, adminID string) ([]entities.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Community, 0)
	for _, community := range s.communities {
		if community.AdminID == strings.TrimSpace(adminID) {
			items = append(items, community)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CommunityID < items[j].CommunityID
	})
	return items, nil
}

func (s *Store) NextProposalNumber(_ context.Context, communityID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	community, ok := s.communities[strings.TrimSpace(communityID)]
	if !ok {
		return 0, domainerrors.ErrCommunityNotFound
	}
	community.ProposalCounter++
	s.communities[community.CommunityID] = community
	return community.ProposalCounter, nil
}

func (s *Store) GetVoter(_ context.Context, communityID string, voterID string) (entities.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voter, ok := s.voters[voterKey{strings.TrimSpace(communityID), strings.TrimSpace(voterID)}]
	if !ok {
		return entities.Voter{}, domainerrors.ErrVoterNotFound
	}
	return voter, nil
}

func (s *Store) UpsertVoter(_ context.Context, voter entities.Voter) (entities.Voter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter.CommunityID = strings.TrimSpace(voter.CommunityID)
	voter.VoterID = strings.TrimSpace(voter.VoterID)
	s.voters[voterKey{voter.CommunityID, voter.VoterID}] = voter
	return voter, nil
}

func (s *Store) ListVoters(_ context.Context, communityID string) ([]entities.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Voter, 0)
	for key, voter := range s.voters {
		if key.communityID == strings.TrimSpace(communityID) {
			items = append(items, voter)
		}
	}
	sortVotersByCreation(items)
	return items, nil
}

func (s *Store) ListApprovedVoters(_ context.Context, communityID string) ([]entities.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Voter, 0)
	for key, voter := range s.voters {
		if key.communityID == strings.TrimSpace(communityID) && voter.Approved {
			items = append(items, voter)
		}
	}
	sortVotersByCreation(items)
	return items, nil
}

func (s *Store) ListCommunitiesForVoter(_ context.Context, voterID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0)
	for key := range s.voters {
		if key.voterID == strings.TrimSpace(voterID) {
			ids = append(ids, key.communityID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func sortVotersByCreation(items []entities.Voter) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].VoterID < items[j].VoterID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
