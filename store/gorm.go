package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/scheduler"
)

// GormStore implements scheduler.Store on PostgreSQL through GORM
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ListLeads(ctx context.Context, filter scheduler.LeadFilter) ([]models.Lead, error) {
	var leads []models.Lead
	q := s.db.WithContext(ctx).Preload("Tags").Preload("Actions")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if err := q.Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

func (s *GormStore) GetLead(ctx context.Context, id uint) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.WithContext(ctx).Preload("Tags").First(&lead, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load lead %d: %w", id, err)
	}
	return &lead, nil
}

func (s *GormStore) AppendLeadAction(ctx context.Context, action *models.Action) error {
	return s.db.WithContext(ctx).Create(action).Error
}

func (s *GormStore) CompleteAutomatedAction(ctx context.Context, sequenceID uint, day int, at time.Time) error {
	actionType := fmt.Sprintf("Email Auto J+%d", day)
	return s.db.WithContext(ctx).Model(&models.Action{}).
		Where("sequence_id = ? AND action_type = ? AND completed_date IS NULL", sequenceID, actionType).
		Update("completed_date", at).Error
}

func (s *GormStore) GetCampaign(ctx context.Context, id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.db.WithContext(ctx).First(&campaign, id).Error; err != nil {
		return nil, fmt.Errorf("failed to load campaign %d: %w", id, err)
	}
	return &campaign, nil
}

func (s *GormStore) GetDefaultCampaign(ctx context.Context) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.db.WithContext(ctx).Where("is_default = ?", true).First(&campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to load default campaign: %w", err)
	}
	return &campaign, nil
}

func (s *GormStore) GetActiveSequences(ctx context.Context, dueBefore *time.Time) ([]models.EmailSequence, error) {
	var sequences []models.EmailSequence
	q := s.db.WithContext(ctx).Where("is_active = ?", true)
	if dueBefore != nil {
		q = q.Where("next_email_date IS NOT NULL AND next_email_date <= ?", *dueBefore)
	}
	if err := q.Find(&sequences).Error; err != nil {
		return nil, fmt.Errorf("failed to load sequences: %w", err)
	}
	return sequences, nil
}

func (s *GormStore) GetSequenceByLead(ctx context.Context, leadID uint) (*models.EmailSequence, error) {
	var seq models.EmailSequence
	err := s.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at DESC").
		First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, scheduler.ErrSequenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sequence for lead %d: %w", leadID, err)
	}
	return &seq, nil
}

// InsertSequence creates an enrollment, rejecting it when the lead already
// has an active one. The check-then-insert runs in one transaction with
// the lead's sequence rows locked, so concurrent runners cannot both
// enroll the same lead.
func (s *GormStore) InsertSequence(ctx context.Context, seq *models.EmailSequence) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.EmailSequence{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("lead_id = ? AND is_active = ?", seq.LeadID, true).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check active sequences for lead %d: %w", seq.LeadID, err)
		}
		if count > 0 {
			return scheduler.ErrSequenceExists
		}
		return tx.Create(seq).Error
	})
}

func (s *GormStore) UpdateSequence(ctx context.Context, seq *models.EmailSequence) error {
	// Save via explicit column map so nil pointers clear their columns.
	return s.db.WithContext(ctx).Model(&models.EmailSequence{}).
		Where("id = ?", seq.ID).
		Updates(map[string]interface{}{
			"is_active":       seq.IsActive,
			"next_email_day":  seq.NextEmailDay,
			"next_email_date": seq.NextEmailDate,
			"stopped_at":      seq.StoppedAt,
			"stopped_reason":  seq.StoppedReason,
		}).Error
}

// ClaimSequence is the atomic conditional update guarding against double
// sends under overlapping runs: the next email date moves to until only if
// it still equals expected, so exactly one concurrent caller wins the row.
// Because until doubles as a lease expiry, a claim abandoned by a crashed
// runner falls back into the due lookup on its own once it passes.
func (s *GormStore) ClaimSequence(ctx context.Context, sequenceID uint, expected, until time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.EmailSequence{}).
		Where("id = ? AND is_active = ? AND next_email_date = ?", sequenceID, true, expected).
		Update("next_email_date", until)
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim sequence %d: %w", sequenceID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) ReleaseSequence(ctx context.Context, sequenceID uint, parked, restore time.Time) error {
	return s.db.WithContext(ctx).Model(&models.EmailSequence{}).
		Where("id = ? AND next_email_date = ?", sequenceID, parked).
		Update("next_email_date", restore).Error
}

func (s *GormStore) RecordActivity(ctx context.Context, activity *models.LeadActivity) error {
	return s.db.WithContext(ctx).Create(activity).Error
}
