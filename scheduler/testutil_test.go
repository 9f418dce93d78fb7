package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
)

// memStore is an in-memory Store with the same transactional semantics as
// the gorm implementation: one active sequence per lead, atomic claims.
type memStore struct {
	mu         sync.Mutex
	leads      map[uint]*models.Lead
	actions    map[uint]*models.Action
	sequences  map[uint]*models.EmailSequence
	campaigns  map[uint]*models.Campaign
	activities []models.LeadActivity
	nextID     uint

	// Error injection, checked before the real behavior.
	failListLeads error
	failSend      error
}

func newMemStore() *memStore {
	return &memStore{
		leads:     make(map[uint]*models.Lead),
		actions:   make(map[uint]*models.Action),
		sequences: make(map[uint]*models.EmailSequence),
		campaigns: make(map[uint]*models.Campaign),
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) addLead(lead models.Lead) *models.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lead.ID == 0 {
		lead.ID = s.id()
	}
	s.leads[lead.ID] = &lead
	return &lead
}

func (s *memStore) addCampaign(c models.Campaign) *models.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	}
	s.campaigns[c.ID] = &c
	return &c
}

func (s *memStore) ListLeads(_ context.Context, filter LeadFilter) ([]models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failListLeads != nil {
		return nil, s.failListLeads
	}
	var out []models.Lead
	for _, lead := range s.leads {
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		out = append(out, *lead)
	}
	return out, nil
}

func (s *memStore) GetLead(_ context.Context, id uint) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *lead
	return &cp, nil
}

func (s *memStore) AppendLeadAction(_ context.Context, action *models.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	action.ID = s.id()
	cp := *action
	s.actions[cp.ID] = &cp
	return nil
}

func (s *memStore) CompleteAutomatedAction(_ context.Context, sequenceID uint, day int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := fmt.Sprintf("Email Auto J+%d", day)
	for _, a := range s.actions {
		if a.SequenceID != nil && *a.SequenceID == sequenceID &&
			a.ActionType == want && a.CompletedDate == nil {
			done := at
			a.CompletedDate = &done
			return nil
		}
	}
	return errors.New("no pending automated action")
}

func (s *memStore) GetCampaign(_ context.Context, id uint) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) GetDefaultCampaign(_ context.Context) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.campaigns {
		if c.IsDefault {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) GetActiveSequences(_ context.Context, dueBefore *time.Time) ([]models.EmailSequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.EmailSequence
	for _, seq := range s.sequences {
		if !seq.IsActive {
			continue
		}
		if dueBefore != nil {
			// Inclusive, mirroring the <= in the gorm store.
			if seq.NextEmailDate == nil || seq.NextEmailDate.After(*dueBefore) {
				continue
			}
		}
		out = append(out, *seq)
	}
	return out, nil
}

func (s *memStore) GetSequenceByLead(_ context.Context, leadID uint) (*models.EmailSequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.EmailSequence
	for _, seq := range s.sequences {
		if seq.LeadID != leadID {
			continue
		}
		if latest == nil || seq.ID > latest.ID {
			latest = seq
		}
	}
	if latest == nil {
		return nil, ErrSequenceNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *memStore) InsertSequence(_ context.Context, seq *models.EmailSequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sequences {
		if existing.LeadID == seq.LeadID && existing.IsActive {
			return ErrSequenceExists
		}
	}
	seq.ID = s.id()
	cp := *seq
	s.sequences[cp.ID] = &cp
	return nil
}

func (s *memStore) UpdateSequence(_ context.Context, seq *models.EmailSequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sequences[seq.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *seq
	s.sequences[cp.ID] = &cp
	return nil
}

func (s *memStore) ClaimSequence(_ context.Context, sequenceID uint, expected, until time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.sequences[sequenceID]
	if !ok || !seq.IsActive || seq.NextEmailDate == nil || !seq.NextEmailDate.Equal(expected) {
		return false, nil
	}
	lease := until
	seq.NextEmailDate = &lease
	return true, nil
}

func (s *memStore) ReleaseSequence(_ context.Context, sequenceID uint, parked, restore time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.sequences[sequenceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if seq.NextEmailDate == nil || !seq.NextEmailDate.Equal(parked) {
		return nil
	}
	r := restore
	seq.NextEmailDate = &r
	return nil
}

func (s *memStore) RecordActivity(_ context.Context, activity *models.LeadActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, *activity)
	return nil
}

func (s *memStore) sequence(id uint) models.EmailSequence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.sequences[id]
}

func (s *memStore) activityTypes(leadID uint) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, a := range s.activities {
		if a.LeadID == leadID {
			out = append(out, a.ActivityType)
		}
	}
	return out
}

func (s *memStore) actionsForSequence(sequenceID uint) []models.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Action
	for _, a := range s.actions {
		if a.SequenceID != nil && *a.SequenceID == sequenceID {
			out = append(out, *a)
		}
	}
	return out
}

// memTransport records outbound sends; err fails every attempt
type memTransport struct {
	mu       sync.Mutex
	sends    []string
	subjects []string
	err      error
}

func (t *memTransport) Send(_ context.Context, toEmail, subject, _ string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.sends = append(t.sends, toEmail)
	t.subjects = append(t.subjects, subject)
	return nil
}

func (t *memTransport) sent() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.sends))
	copy(out, t.sends)
	return out
}

// memGenerator returns a canned message; err forces the fallback path
type memGenerator struct {
	err error
}

func (g *memGenerator) Personalize(_ context.Context, lead *models.Lead, day int) (string, string, error) {
	if g.err != nil {
		return "", "", g.err
	}
	return fmt.Sprintf("Suivi J+%d", day), "<p>Bonjour " + lead.Name + "</p>", nil
}

// scoreComparer ranks snapshots by a fixed per-status score
type scoreComparer struct {
	scores map[string]int
}

func (c scoreComparer) Compare(a, b LeadSnapshot) int {
	return c.scores[a.Status] - c.scores[b.Status]
}

func timePtr(t time.Time) *time.Time { return &t }

func gormModel(id uint) gorm.Model { return gorm.Model{ID: id} }

func daysAgo(now time.Time, n int) *time.Time {
	t := now.AddDate(0, 0, -n)
	return &t
}
