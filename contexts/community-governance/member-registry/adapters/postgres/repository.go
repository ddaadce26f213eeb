package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"balloteer/contexts/community-governance/member-registry/domain/entities"
	domainerrors "balloteer/contexts/community-governance/member-registry/domain/errors"
	"balloteer/contexts/community-governance/member-registry/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

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

func (r *Repository) GetCommunity(ctx context.Context, communityID string) (entities.Community, error) {
	var row communityModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(communityID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Community{}, domainerrors.ErrCommunityNotFound
		}
		return entities.Community{}, r.storageError("registry_repo_get_community_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) UpsertCommunity(ctx context.Context, community entities.Community) (entities.Community, error) {
	row := communityModelFromEntity(community)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"title":      row.Title,
			"admin_id":   gorm.Expr("COALESCE(NULLIF(communities.admin_id, ''), ?)", row.AdminID),
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return entities.Community{}, r.storageError("registry_repo_upsert_community_failed", create.Error,
			"community_id", row.ID,
		)
	}
	return r.GetCommunity(ctx, row.ID)
}

func (r *Repository) ListCommunitiesForAdmin(ctx context.Context, adminID string) ([]entities.Community, error) {
	var rows []communityModel
	if err := r.db.WithContext(ctx).
		Where("admin_id = ?", strings.TrimSpace(adminID)).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.storageError("registry_repo_list_admin_communities_failed", err,
			"admin_id", strings.TrimSpace(adminID),
		)
	}
	items := make([]entities.Community, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) NextProposalNumber(ctx context.Context, communityID string) (int64, error) {
	var row communityModel
	err := r.db.WithContext(ctx).
		Model(&communityModel{}).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "proposal_counter"}}}).
		Where("id = ?", strings.TrimSpace(communityID)).
		Update("proposal_counter", gorm.Expr("proposal_counter + 1")).
		Scan(&row).Error
	if err != nil {
		return 0, r.storageError("registry_repo_next_proposal_number_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	if row.ProposalCounter == 0 {
		return 0, domainerrors.ErrCommunityNotFound
	}
	return row.ProposalCounter, nil
}

func (r *Repository) GetVoter(ctx context.Context, communityID string, voterID string) (entities.Voter, error) {
	var row voterModel
	err := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID)).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Voter{}, domainerrors.ErrVoterNotFound
		}
		return entities.Voter{}, r.storageError("registry_repo_get_voter_failed", err,
			"community_id", strings.TrimSpace(communityID),
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) UpsertVoter(ctx context.Context, voter entities.Voter) (entities.Voter, error) {
	row := voterModelFromEntity(voter)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "community_id"}, {Name: "voter_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"display_name":       row.DisplayName,
			"approved":           row.Approved,
			"weight":             row.Weight,
			"processed":          row.Processed,
			"last_change_reason": row.LastChangeReason,
			"last_modified_at":   row.LastModifiedAt,
			"updated_at":         row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return r.GetVoter(ctx, row.CommunityID, row.VoterID)
		}
		return entities.Voter{}, r.storageError("registry_repo_upsert_voter_failed", create.Error,
			"community_id", row.CommunityID,
			"voter_id", row.VoterID,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListVoters(ctx context.Context, communityID string) ([]entities.Voter, error) {
	return r.listVoters(ctx, communityID, false)
}

func (r *Repository) ListApprovedVoters(ctx context.Context, communityID string) ([]entities.Voter, error) {
	return r.listVoters(ctx, communityID, true)
}

func (r *Repository) listVoters(ctx context.Context, communityID string, approvedOnly bool) ([]entities.Voter, error) {
	tx := r.db.WithContext(ctx).
		Where("community_id = ?", strings.TrimSpace(communityID))
	if approvedOnly {
		tx = tx.Where("approved = ?", true)
	}
	var rows []voterModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, r.storageError("registry_repo_list_voters_failed", err,
			"community_id", strings.TrimSpace(communityID),
		)
	}
	items := make([]entities.Voter, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListCommunitiesForVoter(ctx context.Context, voterID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&voterModel{}).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		Order("community_id ASC").
		Pluck("community_id", &ids).Error; err != nil {
		return nil, r.storageError("registry_repo_list_voter_communities_failed", err,
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return ids, nil
}

func (r *Repository) storageError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "community-governance/member-registry",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("member registry repository operation failed", fields...)
	return domainerrors.ErrStorageUnavailable
}

type communityModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	Title           string    `gorm:"column:title"`
	AdminID         string    `gorm:"column:admin_id"`
	ProposalCounter int64     `gorm:"column:proposal_counter"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (communityModel) TableName() string {
	return "communities"
}

func communityModelFromEntity(community entities.Community) communityModel {
	row := communityModel{
		ID:              strings.TrimSpace(community.CommunityID),
		Title:           strings.TrimSpace(community.Title),
		AdminID:         strings.TrimSpace(community.AdminID),
		ProposalCounter: community.ProposalCounter,
		CreatedAt:       community.CreatedAt.UTC(),
		UpdatedAt:       community.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m communityModel) toEntity() entities.Community {
	return entities.Community{
		CommunityID:     m.ID,
		Title:           m.Title,
		AdminID:         m.AdminID,
		ProposalCounter: m.ProposalCounter,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

type voterModel struct {
	CommunityID      string     `gorm:"column:community_id;primaryKey"`
	VoterID          string     `gorm:"column:voter_id;primaryKey"`
	DisplayName      string     `gorm:"column:display_name"`
	Approved         bool       `gorm:"column:approved"`
	Weight           *int64     `gorm:"column:weight"`
	Processed        bool       `gorm:"column:processed"`
	LastChangeReason string     `gorm:"column:last_change_reason"`
	LastModifiedAt   *time.Time `gorm:"column:last_modified_at"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (voterModel) TableName() string {
	return "voters"
}

func voterModelFromEntity(voter entities.Voter) voterModel {
	row := voterModel{
		CommunityID:      strings.TrimSpace(voter.CommunityID),
		VoterID:          strings.TrimSpace(voter.VoterID),
		DisplayName:      strings.TrimSpace(voter.DisplayName),
		Approved:         voter.Approved,
		Processed:        voter.Processed,
		LastChangeReason: strings.TrimSpace(voter.LastChangeReason),
		CreatedAt:        voter.CreatedAt.UTC(),
		UpdatedAt:        voter.UpdatedAt.UTC(),
	}
	if voter.Weight != nil {
		weight := *voter.Weight
		row.Weight = &weight
	}
	if !voter.LastModifiedAt.IsZero() {
		modifiedAt := voter.LastModifiedAt.UTC()
		row.LastModifiedAt = &modifiedAt
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m voterModel) toEntity() entities.Voter {
	voter := entities.Voter{
		CommunityID:      m.CommunityID,
		VoterID:          m.VoterID,
		DisplayName:      m.DisplayName,
		Approved:         m.Approved,
		Processed:        m.Processed,
		LastChangeReason: m.LastChangeReason,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
	if m.Weight != nil {
		weight := *m.Weight
		voter.Weight = &weight
	}
	if m.LastModifiedAt != nil {
		voter.LastModifiedAt = m.LastModifiedAt.UTC()
	}
	return voter
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.CommunityRepository = (*Repository)(nil)
var _ ports.VoterRepository = (*Repository)(nil)
