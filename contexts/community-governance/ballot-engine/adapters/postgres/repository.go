package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"balloteer/contexts/community-governance/ballot-engine/domain/entities"
	domainerrors "balloteer/contexts/community-governance/ballot-engine/domain/errors"
	"balloteer/contexts/community-governance/ballot-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository is the gorm-backed adapter for proposals, votes, and the
// proposal outbox. Vote aggregates are never stored; they are derived from
// the normalized ballot_votes rows on every read, so the aggregate view can
// never drift from the rows.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateProposal(ctx context.Context, proposal entities.Proposal) error {
	row, err := proposalModelFromEntity(proposal)
	if err != nil {
		return domainerrors.ErrInvalidProposal
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidProposal
		}
		return r.storageError("ballot_repo_create_proposal_failed", err,
			"proposal_id", row.ID,
		)
	}
	return nil
}

func (r *Repository) GetProposal(ctx context.Context, proposalID string) (entities.Proposal, error) {
	var row proposalModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(proposalID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Proposal{}, domainerrors.ErrProposalNotFound
		}
		return entities.Proposal{}, r.storageError("ballot_repo_get_proposal_failed", err,
			"proposal_id", strings.TrimSpace(proposalID),
		)
	}
	proposal, err := row.toEntity()
	if err != nil {
		return entities.Proposal{}, r.storageError("ballot_repo_decode_proposal_failed", err,
			"proposal_id", row.ID,
		)
	}
	if err := r.loadAggregates(ctx, &proposal); err != nil {
		return entities.Proposal{}, err
	}
	return proposal, nil
}

func (r *Repository) RecordVote(ctx context.Context, proposal entities.Proposal, vote entities.Vote) error {
	row := voteModel{
		ProposalID:  strings.TrimSpace(vote.ProposalID),
		VoterID:     strings.TrimSpace(vote.VoterID),
		OptionIndex: vote.OptionIndex,
		Weight:      vote.Weight,
		VotedAt:     vote.VotedAt.UTC(),
	}
	// One upsert replaces the voter's previous row in place, which is the
	// whole weight move in a single atomic statement.
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "proposal_id"}, {Name: "voter_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"option_index": row.OptionIndex,
				"weight":       row.Weight,
				"voted_at":     row.VotedAt,
			}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return tx.Model(&proposalModel{}).
			Where("id = ?", row.ProposalID).
			Update("updated_at", proposal.UpdatedAt.UTC()).
			Error
	})
	if err != nil {
		return r.storageError("ballot_repo_record_vote_failed", err,
			"proposal_id", row.ProposalID,
			"voter_id", row.VoterID,
		)
	}
	return nil
}

func (r *Repository) GetVote(ctx context.Context, proposalID string, voterID string) (entities.Vote, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("proposal_id = ?", strings.TrimSpace(proposalID)).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, false, nil
		}
		return entities.Vote{}, false, r.storageError("ballot_repo_get_vote_failed", err,
			"proposal_id", strings.TrimSpace(proposalID),
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) MarkClosed(ctx context.Context, proposal entities.Proposal) error {
	closedAt := time.Now().UTC()
	if proposal.ClosedAt != nil {
		closedAt = proposal.ClosedAt.UTC()
	}
	result := r.db.WithContext(ctx).
		Model(&proposalModel{}).
		Where("id = ?", strings.TrimSpace(proposal.ProposalID)).
		Where("status = ?", string(entities.ProposalStatusOpen)).
		Updates(map[string]any{
			"status":     string(entities.ProposalStatusClosed),
			"closed_at":  closedAt,
			"updated_at": proposal.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return r.storageError("ballot_repo_mark_closed_failed", result.Error,
			"proposal_id", strings.TrimSpace(proposal.ProposalID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAlreadyClosed
	}
	return nil
}

func (r *Repository) ListOpenProposals(ctx context.Context, communityID string) ([]entities.Proposal, error) {
	var rows []proposalModel
	if err := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		Where("status = ?", string(entities.ProposalStatusOpen)).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.storageError("ballot_repo_list_open_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	return r.toEntities(ctx, rows)
}

func (r *Repository) ListExpiredOpen(ctx context.Context, now time.Time, limit int) ([]entities.Proposal, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []proposalModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.ProposalStatusOpen)).
		Where("ends_at IS NOT NULL").
		Where("ends_at <= ?", now.UTC()).
		Order("ends_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.storageError("ballot_repo_list_expired_failed", err)
	}
	return r.toEntities(ctx, rows)
}

func (r *Repository) toEntities(ctx context.Context, rows []proposalModel) ([]entities.Proposal, error) {
	proposals := make([]entities.Proposal, 0, len(rows))
	for _, row := range rows {
		proposal, err := row.toEntity()
		if err != nil {
			return nil, r.storageError("ballot_repo_decode_proposal_failed", err,
				"proposal_id", row.ID,
			)
		}
		if err := r.loadAggregates(ctx, &proposal); err != nil {
			return nil, err
		}
		proposals = append(proposals, proposal)
	}
	return proposals, nil
}

// loadAggregates rebuilds VoterChoices and OptionWeights from the vote rows.
func (r *Repository) loadAggregates(ctx context.Context, proposal *entities.Proposal) error {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("proposal_id = ?", proposal.ProposalID).
		Find(&rows).Error; err != nil {
		return r.storageError("ballot_repo_load_votes_failed", err,
			"proposal_id", proposal.ProposalID,
		)
	}
	proposal.VoterChoices = make(map[string]int, len(rows))
	proposal.OptionWeights = make(map[int]int64, len(proposal.Options))
	for _, row := range rows {
		proposal.VoterChoices[row.VoterID] = row.OptionIndex
		proposal.OptionWeights[row.OptionIndex] += row.Weight
	}
	return nil
}

func (r *Repository) GetAdminID(ctx context.Context, communityID string) (string, error) {
	var row communityProjection
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(communityID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domainerrors.ErrCommunityNotFound
		}
		return "", r.storageError("ballot_repo_get_admin_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	return row.AdminID, nil
}

func (r *Repository) GetVoter(ctx context.Context, communityID string, voterID string) (ports.VoterProjection, bool, error) {
	var row voterProjection
	err := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.VoterProjection{}, false, nil
		}
		return ports.VoterProjection{}, false, r.storageError("ballot_repo_get_voter_failed", err,
			"community_id", strings.TrimSpace(communityID),
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return row.toProjection(), true, nil
}

func (r *Repository) ListEligibleVoters(ctx context.Context, communityID string) ([]ports.VoterProjection, error) {
	var rows []voterProjection
	if err := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		Where("approved = ?", true).
		Where("weight IS NOT NULL AND weight > 0").
		Order("voter_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.storageError("ballot_repo_list_eligible_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	voters := make([]ports.VoterProjection, 0, len(rows))
	for _, row := range rows {
		voters = append(voters, row.toProjection())
	}
	return voters, nil
}

func (r *Repository) ListCommunitiesForVoter(ctx context.Context, voterID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&voterProjection{}).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		Order("community_id ASC").
		Pluck("community_id", &ids).Error; err != nil {
		return nil, r.storageError("ballot_repo_list_voter_communities_failed", err,
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return ids, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return r.storageError("ballot_repo_append_outbox_failed", createResult.Error,
			"outbox_id", row.OutboxID,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, r.storageError("ballot_repo_list_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.storageError("ballot_repo_mark_outbox_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	return nil
}

func (r *Repository) storageError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "community-governance/ballot-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("ballot engine repository operation failed", fields...)
	return domainerrors.ErrStorageUnavailable
}

type proposalModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	CommunityID  string     `gorm:"column:community_id"`
	Title        string     `gorm:"column:title"`
	Description  string     `gorm:"column:description"`
	Options      []byte     `gorm:"column:options"`
	Status       string     `gorm:"column:status"`
	QuorumWeight *int64     `gorm:"column:quorum_weight"`
	EndsAt       *time.Time `gorm:"column:ends_at"`
	CreatedBy    string     `gorm:"column:created_by"`
	Attachment   string     `gorm:"column:attachment"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	ClosedAt     *time.Time `gorm:"column:closed_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (proposalModel) TableName() string {
	return "proposals"
}

func proposalModelFromEntity(proposal entities.Proposal) (proposalModel, error) {
	options, err := json.Marshal(proposal.Options)
	if err != nil {
		return proposalModel{}, err
	}
	row := proposalModel{
		ID:          strings.TrimSpace(proposal.ProposalID),
		CommunityID: strings.TrimSpace(proposal.CommunityID),
		Title:       strings.TrimSpace(proposal.Title),
		Description: strings.TrimSpace(proposal.Description),
		Options:     options,
		Status:      string(proposal.Status),
		CreatedBy:   strings.TrimSpace(proposal.CreatedBy),
		Attachment:  strings.TrimSpace(proposal.Attachment),
		CreatedAt:   proposal.CreatedAt.UTC(),
		UpdatedAt:   proposal.UpdatedAt.UTC(),
	}
	if proposal.QuorumWeight != nil {
		quorum := *proposal.QuorumWeight
		row.QuorumWeight = &quorum
	}
	if proposal.EndsAt != nil {
		endsAt := proposal.EndsAt.UTC()
		row.EndsAt = &endsAt
	}
	if proposal.ClosedAt != nil {
		closedAt := proposal.ClosedAt.UTC()
		row.ClosedAt = &closedAt
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row, nil
}

func (m proposalModel) toEntity() (entities.Proposal, error) {
	var options []string
	if len(m.Options) > 0 {
		if err := json.Unmarshal(m.Options, &options); err != nil {
			return entities.Proposal{}, err
		}
	}
	proposal := entities.Proposal{
		ProposalID:  m.ID,
		CommunityID: m.CommunityID,
		Title:       m.Title,
		Description: m.Description,
		Options:     options,
		Status:      entities.ProposalStatus(m.Status),
		CreatedBy:   m.CreatedBy,
		Attachment:  m.Attachment,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
	if m.QuorumWeight != nil {
		quorum := *m.QuorumWeight
		proposal.QuorumWeight = &quorum
	}
	if m.EndsAt != nil {
		endsAt := m.EndsAt.UTC()
		proposal.EndsAt = &endsAt
	}
	if m.ClosedAt != nil {
		closedAt := m.ClosedAt.UTC()
		proposal.ClosedAt = &closedAt
	}
	return proposal, nil
}

type voteModel struct {
	ProposalID  string    `gorm:"column:proposal_id;primaryKey"`
	VoterID     string    `gorm:"column:voter_id;primaryKey"`
	OptionIndex int       `gorm:"column:option_index"`
	Weight      int64     `gorm:"column:weight"`
	VotedAt     time.Time `gorm:"column:voted_at"`
}

func (voteModel) TableName() string {
	return "ballot_votes"
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		ProposalID:  m.ProposalID,
		VoterID:     m.VoterID,
		OptionIndex: m.OptionIndex,
		Weight:      m.Weight,
		VotedAt:     m.VotedAt.UTC(),
	}
}

// communityProjection and voterProjection read the member-registry tables.
// The ballot engine never writes them.
type communityProjection struct {
	ID      string `gorm:"column:id;primaryKey"`
	AdminID string `gorm:"column:admin_id"`
}

func (communityProjection) TableName() string {
	return "communities"
}

type voterProjection struct {
	CommunityID string `gorm:"column:community_id;primaryKey"`
	VoterID     string `gorm:"column:voter_id;primaryKey"`
	DisplayName string `gorm:"column:display_name"`
	Approved    bool   `gorm:"column:approved"`
	Weight      *int64 `gorm:"column:weight"`
}

func (voterProjection) TableName() string {
	return "voters"
}

func (m voterProjection) toProjection() ports.VoterProjection {
	projection := ports.VoterProjection{
		VoterID:     m.VoterID,
		DisplayName: m.DisplayName,
		Approved:    m.Approved,
	}
	if m.Weight != nil {
		projection.Weight = *m.Weight
	}
	return projection
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "ballot_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ProposalRepository = (*Repository)(nil)
var _ ports.CommunityDirectory = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
