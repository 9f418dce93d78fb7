package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
)

var (
	// ErrSequenceExists is returned by Store.InsertSequence when the lead
	// already has an active enrollment.
	ErrSequenceExists = errors.New("lead already has an active sequence")
	// ErrSequenceNotFound is returned when a lead has no sequence at all.
	ErrSequenceNotFound = errors.New("no sequence found for lead")
)

// LeadFilter narrows Store.ListLeads
type LeadFilter struct {
	Status string
}

// Store is the persistence collaborator. Implementations must make
// InsertSequence reject a second active enrollment for the same lead
// transactionally, and ClaimSequence an atomic conditional update that
// succeeds for exactly one concurrent caller.
type Store interface {
	ListLeads(ctx context.Context, filter LeadFilter) ([]models.Lead, error)
	GetLead(ctx context.Context, id uint) (*models.Lead, error)
	AppendLeadAction(ctx context.Context, action *models.Action) error
	// CompleteAutomatedAction sets the completion date on the scheduled
	// automated action for (sequenceID, day), recording the send in the
	// lead's history.
	CompleteAutomatedAction(ctx context.Context, sequenceID uint, day int, at time.Time) error

	GetCampaign(ctx context.Context, id uint) (*models.Campaign, error)
	GetDefaultCampaign(ctx context.Context) (*models.Campaign, error)

	// GetActiveSequences returns active enrollments; with dueBefore set,
	// only those whose next email date has passed.
	GetActiveSequences(ctx context.Context, dueBefore *time.Time) ([]models.EmailSequence, error)
	// GetSequenceByLead returns the lead's most recent enrollment, active
	// or not, or ErrSequenceNotFound.
	GetSequenceByLead(ctx context.Context, leadID uint) (*models.EmailSequence, error)
	InsertSequence(ctx context.Context, seq *models.EmailSequence) error
	UpdateSequence(ctx context.Context, seq *models.EmailSequence) error

	// ClaimSequence parks the sequence's next email date at until iff it
	// still equals expected. False means another runner claimed it first.
	// The parked date is a lease: a runner that dies mid-send leaves the
	// row due again once until passes, so a claim can delay a step but
	// never lose it.
	ClaimSequence(ctx context.Context, sequenceID uint, expected, until time.Time) (bool, error)
	// ReleaseSequence undoes a claim after a failed send, restoring the
	// original due date iff the row is still parked where the claim left
	// it.
	ReleaseSequence(ctx context.Context, sequenceID uint, parked, restore time.Time) error

	RecordActivity(ctx context.Context, activity *models.LeadActivity) error
}

// Transport delivers one outbound email
type Transport interface {
	Send(ctx context.Context, toEmail, subject, htmlBody string) error
}

// ContentGenerator personalizes the drip message for one lead and step.
// Callers must substitute a fixed fallback on error; a generation failure
// never skips a send.
type ContentGenerator interface {
	Personalize(ctx context.Context, lead *models.Lead, day int) (subject, htmlBody string, err error)
}
