package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
)

// BatchSummary is what one runner invocation reports back to the
// scheduler/observability layer.
type BatchSummary struct {
	SequencesStarted int      `json:"sequences_started"`
	EmailsSent       int      `json:"emails_sent"`
	Errors           []string `json:"errors,omitempty"`
}

// BatchRunnerConfig tunes one runner instance
type BatchRunnerConfig struct {
	// CampaignID selects the drip program; zero means the default campaign.
	CampaignID uint
	// Concurrency bounds the per-sequence worker pool.
	Concurrency int
	// SendTimeout caps each transport/generation call.
	SendTimeout time.Duration
	// ClaimLease is how long a claim parks a due sequence. A runner that
	// dies holding a claim leaves the row due again once the lease
	// passes, so delivery degrades to at-least-once instead of lost.
	// Must comfortably exceed the generation and send timeouts.
	ClaimLease time.Duration
}

// BatchRunner is the periodic entry point of the drip engine: enrolls
// newly eligible leads, then claims and sends every due email. Safe to
// invoke from overlapping triggers; the conditional claim in the store
// guarantees a due sequence is processed by exactly one runner.
type BatchRunner struct {
	store     Store
	transport Transport
	generator ContentGenerator
	machine   *SequenceStateMachine
	logger    *logrus.Logger
	cfg       BatchRunnerConfig
}

func NewBatchRunner(store Store, transport Transport, generator ContentGenerator, logger *logrus.Logger, cfg BatchRunnerConfig) *BatchRunner {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if cfg.ClaimLease <= 0 {
		cfg.ClaimLease = 10 * time.Minute
	}
	return &BatchRunner{
		store:     store,
		transport: transport,
		generator: generator,
		machine:   NewSequenceStateMachine(store, logger),
		logger:    logger,
		cfg:       cfg,
	}
}

// Run performs one batch pass. Per-lead and per-sequence failures are
// logged, counted in the summary and skipped; only an unreachable store
// fails the run itself.
func (r *BatchRunner) Run(ctx context.Context, now time.Time) (*BatchSummary, error) {
	summary := &BatchSummary{}
	var mu sync.Mutex
	fail := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		r.logger.Warn(msg)
		mu.Lock()
		summary.Errors = append(summary.Errors, msg)
		mu.Unlock()
	}

	campaign, err := r.loadCampaign(ctx)
	if err != nil {
		sentry.CaptureException(err)
		return nil, err
	}

	leads, err := r.store.ListLeads(ctx, LeadFilter{Status: campaign.TargetStatus})
	if err != nil {
		sentry.CaptureException(err)
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	active, err := r.store.GetActiveSequences(ctx, nil)
	if err != nil {
		sentry.CaptureException(err)
		return nil, fmt.Errorf("failed to load active sequences: %w", err)
	}
	activeLeadIDs := make(map[uint]bool, len(active))
	for _, seq := range active {
		activeLeadIDs[seq.LeadID] = true
	}

	for _, leadID := range FindEligible(leads, campaign, activeLeadIDs, now) {
		if _, err := r.machine.Start(ctx, leadID, campaign, false, now); err != nil {
			// Typically a race lost to an overlapping run; never aborts
			// the batch.
			fail("start failed for lead %d: %v", leadID, err)
			continue
		}
		summary.SequencesStarted++
	}

	due, err := r.store.GetActiveSequences(ctx, &now)
	if err != nil {
		sentry.CaptureException(err)
		return nil, fmt.Errorf("failed to load due sequences: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i := range due {
		seq := due[i]
		g.Go(func() error {
			if sent := r.processDue(gctx, &seq, campaign, now, fail); sent {
				mu.Lock()
				summary.EmailsSent++
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	r.logger.WithFields(logrus.Fields{
		"started": summary.SequencesStarted,
		"sent":    summary.EmailsSent,
		"errors":  len(summary.Errors),
	}).Info("batch run finished")
	return summary, nil
}

// processDue claims one due sequence, sends its email and advances the
// state machine. The claim flips before the send so a concurrent runner
// skips the row; a failed send releases the claim for the next run, and a
// claim nobody releases or advances expires with its lease. Reports
// whether an email went out.
func (r *BatchRunner) processDue(ctx context.Context, seq *models.EmailSequence, campaign *models.Campaign, now time.Time, fail func(string, ...interface{})) bool {
	if seq.NextEmailDay == nil || seq.NextEmailDate == nil {
		return false
	}
	sentDay := *seq.NextEmailDay
	originalDate := *seq.NextEmailDate
	leaseUntil := now.Add(r.cfg.ClaimLease)

	claimed, err := r.store.ClaimSequence(ctx, seq.ID, originalDate, leaseUntil)
	if err != nil {
		fail("claim failed for sequence %d: %v", seq.ID, err)
		return false
	}
	if !claimed {
		// Another runner got there first.
		return false
	}

	release := func() {
		if err := r.store.ReleaseSequence(ctx, seq.ID, leaseUntil, originalDate); err != nil {
			fail("release failed for sequence %d: %v", seq.ID, err)
		}
	}

	lead, err := r.store.GetLead(ctx, seq.LeadID)
	if err != nil {
		fail("lead lookup failed for sequence %d: %v", seq.ID, err)
		release()
		return false
	}

	subject, body := r.render(ctx, lead, sentDay)

	sendCtx, cancel := context.WithTimeout(ctx, r.cfg.SendTimeout)
	err = r.transport.Send(sendCtx, lead.Email, subject, body)
	cancel()
	if err != nil {
		fail("send failed for sequence %d (lead %d): %v", seq.ID, seq.LeadID, err)
		release()
		return false
	}

	// The email is out; bookkeeping failures below are logged but the
	// send still counts.
	seqID := seq.ID
	if err := r.store.RecordActivity(ctx, &models.LeadActivity{
		LeadID:       seq.LeadID,
		SequenceID:   &seqID,
		ActivityType: "email_sent",
		ActivityAt:   now,
		Details:      fmt.Sprintf("Email Auto J+%d", sentDay),
	}); err != nil {
		fail("activity log failed for sequence %d: %v", seq.ID, err)
	}
	if err := r.store.CompleteAutomatedAction(ctx, seq.ID, sentDay, now); err != nil {
		fail("action completion failed for sequence %d: %v", seq.ID, err)
	}
	if err := r.machine.Advance(ctx, seq, campaign, sentDay, now); err != nil {
		fail("advance failed for sequence %d: %v", seq.ID, err)
	}
	return true
}

// render asks the content generator for a personalized message and falls
// back to the stock template on any failure. The fallback is mandatory: a
// generation error never skips a send.
func (r *BatchRunner) render(ctx context.Context, lead *models.Lead, day int) (string, string) {
	genCtx, cancel := context.WithTimeout(ctx, r.cfg.SendTimeout)
	defer cancel()

	subject, body, err := r.generator.Personalize(genCtx, lead, day)
	if err != nil {
		r.logger.WithError(err).WithField("lead_id", lead.ID).Warn("personalization failed, using fallback template")
		return fallbackContent(lead, day)
	}
	return subject, body
}

func fallbackContent(lead *models.Lead, day int) (string, string) {
	subject := "Votre projet immobilier - nous restons à votre écoute"
	body := fmt.Sprintf(
		"<p>Bonjour %s,</p>"+
			"<p>Nous revenons vers vous au sujet de votre projet immobilier. "+
			"Notre équipe reste à votre disposition pour vous présenter les biens "+
			"correspondant à votre recherche.</p>"+
			"<p>N'hésitez pas à nous répondre directement à ce message.</p>"+
			"<p>L'équipe Gadait International</p>"+
			"<!-- relance J+%d -->", lead.Name, day)
	return subject, body
}

func (r *BatchRunner) loadCampaign(ctx context.Context) (*models.Campaign, error) {
	if r.cfg.CampaignID != 0 {
		campaign, err := r.store.GetCampaign(ctx, r.cfg.CampaignID)
		if err != nil {
			return nil, fmt.Errorf("failed to load campaign %d: %w", r.cfg.CampaignID, err)
		}
		return campaign, nil
	}
	campaign, err := r.store.GetDefaultCampaign(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load default campaign: %w", err)
	}
	return campaign, nil
}
