package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/doannc02/exam-process-service/internal/cache"
	"github.com/doannc02/exam-process-service/internal/models"
	"github.com/doannc02/exam-process-service/internal/repositories"
)

type ProposalPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewProposalPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ProposalRepository {
	return &ProposalPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

func (p *ProposalPostgreSQL) Create(ctx context.Context, proposal *models.Proposal) error {
	if err := p.db.WithContext(ctx).Create(proposal).Error; err != nil {
		return fmt.Errorf("failed to create proposal: %w", err)
	}
	cache.SafeInvalidatePattern(ctx, p.cacheManager.Proposal, "list:*")
	return nil
}

// GetByID retrieves a proposal with its exam sets and their exams, cached.
func (p *ProposalPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Proposal, error) {
	cacheKey := fmt.Sprintf("details:%d", id)
	var proposal models.Proposal

	err := p.cacheManager.Proposal.CacheOrExecute(ctx, cacheKey, &proposal, cache.ProposalCacheConfig.TTL, func() (interface{}, error) {
		var dbProposal models.Proposal
		err := p.db.WithContext(ctx).
			Preload("ExamSets").
			Preload("ExamSets.Exams").
			Preload("TeacherProposals").
			First(&dbProposal, id).Error
		if err != nil {
			return nil, err
		}
		return &dbProposal, nil
	})
	if err != nil {
		return nil, err
	}

	return &proposal, nil
}

// GetByIDForUpdate takes a FOR UPDATE row lock on the proposal. Used by the
// status cascade so two concurrent cascades on the same proposal serialize;
// must run inside a transaction. Never served from cache.
func (p *ProposalPostgreSQL) GetByIDForUpdate(ctx context.Context, id uint) (*models.Proposal, error) {
	var proposal models.Proposal
	err := p.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&proposal, id).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (p *ProposalPostgreSQL) GetByPlanCode(ctx context.Context, planCode string) (*models.Proposal, error) {
	var proposal models.Proposal
	err := p.db.WithContext(ctx).
		Where("plan_code = ?", planCode).
		First(&proposal).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (p *ProposalPostgreSQL) Update(ctx context.Context, proposal *models.Proposal) error {
	err := p.db.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("id = ?", proposal.ID).
		Updates(map[string]interface{}{
			"plan_code":     proposal.PlanCode,
			"academic_year": proposal.AcademicYear,
			"semester":      proposal.Semester,
			"start_date":    proposal.StartDate,
			"end_date":      proposal.EndDate,
			"content":       proposal.Content,
			"status":        proposal.Status,
			"updated_at":    time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update proposal: %w", err)
	}

	cache.InvalidateProposalCache(ctx, p.cacheManager, proposal.ID)
	return nil
}

// Delete hard-removes the proposal row. Child unlinking is the service's
// responsibility (configurable behavior).
func (p *ProposalPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := p.db.WithContext(ctx).Delete(&models.Proposal{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete proposal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateProposalCache(ctx, p.cacheManager, id)
	return nil
}

// List retrieves proposals with filters and pagination. Count and fetch run
// over the same predicate chain so totals always match the page contents.
func (p *ProposalPostgreSQL) List(ctx context.Context, filters repositories.ProposalFilters) ([]*models.Proposal, int64, error) {
	query := p.db.WithContext(ctx).Model(&models.Proposal{})
	query = p.applyFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applySort(query, filters.Sort, map[string]string{
		"id":   "proposals.id",
		"name": "proposals.plan_code",
		"code": "proposals.plan_code",
	})
	query = applyPagination(query, filters.Page, filters.Size)

	var proposals []*models.Proposal
	if err := query.Find(&proposals).Error; err != nil {
		return nil, 0, err
	}

	return proposals, total, nil
}

func (p *ProposalPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ProposalFilters) *gorm.DB {
	if filters.Search != nil && *filters.Search != "" {
		query = query.Where("proposals.plan_code ILIKE ?", "%"+*filters.Search+"%")
	}
	if filters.Status != nil {
		query = query.Where("proposals.status = ?", *filters.Status)
	}
	if filters.Semester != nil && *filters.Semester != "" {
		query = query.Where("proposals.semester = ?", *filters.Semester)
	}
	if filters.CreateMonth != nil {
		start, end := monthRange(*filters.CreateMonth)
		query = query.Where("proposals.created_at >= ? AND proposals.created_at < ?", start, end)
	}
	if filters.EndMonth != nil {
		start, end := monthRange(*filters.EndMonth)
		query = query.Where("proposals.end_date >= ? AND proposals.end_date < ?", start, end)
	}
	if filters.ExpireWithinDays != nil {
		today := dayStart(time.Now())
		limit := today.AddDate(0, 0, *filters.ExpireWithinDays+1)
		query = query.Where(
			"proposals.end_date >= ? AND proposals.end_date < ? AND proposals.status <> ?",
			today, limit, models.StatusApproved)
	}
	if filters.UserID != nil {
		query = query.
			Joins("JOIN teacher_proposals ON teacher_proposals.proposal_id = proposals.id").
			Where("teacher_proposals.user_id = ?", *filters.UserID)
	}
	return query
}

func (p *ProposalPostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.ProposalStatus) error {
	err := p.db.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update proposal status: %w", err)
	}

	cache.InvalidateProposalCache(ctx, p.cacheManager, id)
	return nil
}

func (p *ProposalPostgreSQL) CreateOwnership(ctx context.Context, link *models.TeacherProposal) error {
	if err := p.db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("failed to create ownership link: %w", err)
	}
	return nil
}

// GetOwnerUserIDs resolves the owning user ids for a batch of proposals in
// one query.
func (p *ProposalPostgreSQL) GetOwnerUserIDs(ctx context.Context, proposalIDs []uint) (map[uint][]uint, error) {
	result := make(map[uint][]uint, len(proposalIDs))
	if len(proposalIDs) == 0 {
		return result, nil
	}

	var links []models.TeacherProposal
	err := p.db.WithContext(ctx).
		Where("proposal_id IN ?", proposalIDs).
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load ownership links: %w", err)
	}

	for _, link := range links {
		result[link.ProposalID] = append(result[link.ProposalID], link.UserID)
	}
	return result, nil
}

func (p *ProposalPostgreSQL) ExistsByPlanCode(ctx context.Context, planCode string, excludeID *uint) (bool, error) {
	query := p.db.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("plan_code = ?", planCode)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
