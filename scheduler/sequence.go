package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
)

// SequenceStateMachine owns the lifecycle of one lead's enrollment in one
// campaign: start, advance after a send, stop. All transitions preserve
// the invariant that an inactive sequence has neither a next day nor a
// next date, and that the next day is always one of the campaign's
// offsets.
type SequenceStateMachine struct {
	store  Store
	logger *logrus.Logger
}

func NewSequenceStateMachine(store Store, logger *logrus.Logger) *SequenceStateMachine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SequenceStateMachine{store: store, logger: logger}
}

// Start enrolls a lead in a campaign. The store rejects the insert when an
// active enrollment already exists, so two overlapping runs can both call
// Start and exactly one wins. With immediate set the first email is due
// right away; otherwise after the campaign's first day offset. A synthetic
// scheduled action is appended to the lead's history for visibility.
func (sm *SequenceStateMachine) Start(ctx context.Context, leadID uint, campaign *models.Campaign, immediate bool, now time.Time) (*models.EmailSequence, error) {
	if len(campaign.Days) == 0 {
		return nil, fmt.Errorf("campaign %d has no day offsets", campaign.ID)
	}

	firstDay := campaign.Days[0]
	nextDate := now.AddDate(0, 0, firstDay)
	if immediate {
		nextDate = now
	}

	seq := &models.EmailSequence{
		LeadID:        leadID,
		CampaignID:    campaign.ID,
		IsActive:      true,
		NextEmailDay:  &firstDay,
		NextEmailDate: &nextDate,
		StartedAt:     now,
	}
	if err := sm.store.InsertSequence(ctx, seq); err != nil {
		return nil, err
	}

	if err := sm.appendScheduledAction(ctx, leadID, seq.ID, firstDay, nextDate); err != nil {
		// The enrollment itself succeeded; a missing history row is
		// cosmetic and must not fail the start.
		sm.logger.WithError(err).WithField("lead_id", leadID).Warn("failed to append scheduled action")
	}

	if err := sm.store.RecordActivity(ctx, &models.LeadActivity{
		LeadID:       leadID,
		SequenceID:   &seq.ID,
		ActivityType: "sequence_started",
		ActivityAt:   now,
		Details:      fmt.Sprintf("campaign %d, first email J+%d", campaign.ID, firstDay),
	}); err != nil {
		sm.logger.WithError(err).WithField("lead_id", leadID).Warn("failed to record activity")
	}

	return seq, nil
}

// Advance moves the sequence to the step after sentDay. Called only right
// after a successful send for sentDay. When no later offset exists the
// sequence completes: inactive, day and date cleared, reason recorded.
func (sm *SequenceStateMachine) Advance(ctx context.Context, seq *models.EmailSequence, campaign *models.Campaign, sentDay int, now time.Time) error {
	if !campaign.HasDay(sentDay) {
		return fmt.Errorf("day %d is not part of campaign %d", sentDay, campaign.ID)
	}

	next, ok := campaign.NextDayAfter(sentDay)
	if !ok {
		reason := models.StopReasonCompleted
		seq.IsActive = false
		seq.NextEmailDay = nil
		seq.NextEmailDate = nil
		seq.StoppedAt = &now
		seq.StoppedReason = &reason
		if err := sm.store.UpdateSequence(ctx, seq); err != nil {
			return fmt.Errorf("failed to complete sequence %d: %w", seq.ID, err)
		}
		sm.logger.WithFields(logrus.Fields{
			"sequence_id": seq.ID,
			"lead_id":     seq.LeadID,
		}).Info("sequence completed")
		return nil
	}

	nextDate := now.AddDate(0, 0, next-sentDay)
	seq.NextEmailDay = &next
	seq.NextEmailDate = &nextDate
	if err := sm.store.UpdateSequence(ctx, seq); err != nil {
		return fmt.Errorf("failed to advance sequence %d: %w", seq.ID, err)
	}

	if err := sm.appendScheduledAction(ctx, seq.LeadID, seq.ID, next, nextDate); err != nil {
		sm.logger.WithError(err).WithField("lead_id", seq.LeadID).Warn("failed to append scheduled action")
	}
	return nil
}

// Stop deactivates the lead's sequence. Stopping an already-inactive
// sequence is a no-op so duplicate cancellation requests are harmless; a
// lead with no sequence at all yields ErrSequenceNotFound.
func (sm *SequenceStateMachine) Stop(ctx context.Context, leadID uint, reason string, now time.Time) error {
	seq, err := sm.store.GetSequenceByLead(ctx, leadID)
	if err != nil {
		return err
	}
	if !seq.IsActive {
		return nil
	}

	seq.IsActive = false
	seq.NextEmailDay = nil
	seq.NextEmailDate = nil
	seq.StoppedAt = &now
	seq.StoppedReason = &reason
	if err := sm.store.UpdateSequence(ctx, seq); err != nil {
		return fmt.Errorf("failed to stop sequence %d: %w", seq.ID, err)
	}

	if err := sm.store.RecordActivity(ctx, &models.LeadActivity{
		LeadID:       leadID,
		SequenceID:   &seq.ID,
		ActivityType: "sequence_stopped",
		ActivityAt:   now,
		Details:      reason,
	}); err != nil {
		sm.logger.WithError(err).WithField("lead_id", leadID).Warn("failed to record activity")
	}
	return nil
}

func (sm *SequenceStateMachine) appendScheduledAction(ctx context.Context, leadID, sequenceID uint, day int, date time.Time) error {
	seqID := sequenceID
	return sm.store.AppendLeadAction(ctx, &models.Action{
		LeadID:        leadID,
		Kind:          models.ActionKindAutomated,
		SequenceID:    &seqID,
		ActionType:    fmt.Sprintf("Email Auto J+%d", day),
		ScheduledDate: &date,
	})
}
