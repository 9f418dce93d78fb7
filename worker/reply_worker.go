package worker

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/models"
	"github.com/pierreaxel1988/crm-gadait-international-sub002/scheduler"
)

// ReplyWorkerConfig holds the IMAP account watched for lead replies
type ReplyWorkerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Mailbox  string
	Interval time.Duration
}

// ReplyWorker polls the agency inbox and cancels the drip sequence of any
// lead who answered: a human conversation has started and automated
// relances would be noise.
type ReplyWorker struct {
	db      *gorm.DB
	machine *scheduler.SequenceStateMachine
	cfg     ReplyWorkerConfig
	logger  *logrus.Logger
}

func NewReplyWorker(db *gorm.DB, store scheduler.Store, cfg ReplyWorkerConfig, logger *logrus.Logger) *ReplyWorker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &ReplyWorker{
		db:      db,
		machine: scheduler.NewSequenceStateMachine(store, logger),
		cfg:     cfg,
		logger:  logger,
	}
}

// Start runs the poll loop until the context is cancelled
func (rw *ReplyWorker) Start(ctx context.Context) {
	if rw.cfg.Host == "" {
		rw.logger.Info("reply worker disabled: no IMAP host configured")
		return
	}

	rw.logger.Info("reply worker started")
	ticker := time.NewTicker(rw.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rw.logger.Info("reply worker shutting down")
			return
		case <-ticker.C:
			if err := rw.checkInbox(ctx); err != nil {
				rw.logger.WithError(err).Warn("inbox check failed")
			}
		}
	}
}

// checkInbox fetches unseen messages and cancels sequences for senders
// matching an actively enrolled lead.
func (rw *ReplyWorker) checkInbox(ctx context.Context) error {
	enrolled, err := rw.enrolledLeadsByEmail()
	if err != nil {
		return err
	}
	if len(enrolled) == 0 {
		return nil
	}

	c, err := client.DialTLS(fmt.Sprintf("%s:%d", rw.cfg.Host, rw.cfg.Port), nil)
	if err != nil {
		return fmt.Errorf("imap dial failed: %w", err)
	}
	defer c.Logout()

	if err := c.Login(rw.cfg.Username, rw.cfg.Password); err != nil {
		return fmt.Errorf("imap login failed: %w", err)
	}
	if _, err := c.Select(rw.cfg.Mailbox, false); err != nil {
		return fmt.Errorf("failed to select %s: %w", rw.cfg.Mailbox, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	ids, err := c.Search(criteria)
	if err != nil {
		return fmt.Errorf("imap search failed: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	section := &imap.BodySectionName{Peek: true}
	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}, messages)
	}()

	for msg := range messages {
		if msg.Envelope == nil {
			continue
		}
		for _, from := range msg.Envelope.From {
			addr := strings.ToLower(from.MailboxName + "@" + from.HostName)
			leadID, ok := enrolled[addr]
			if !ok {
				continue
			}
			rw.handleReply(ctx, leadID, addr, excerptOf(msg, section))
		}
	}
	return <-done
}

func (rw *ReplyWorker) handleReply(ctx context.Context, leadID uint, addr, excerpt string) {
	now := time.Now()
	if err := rw.machine.Stop(ctx, leadID, models.StopReasonManual, now); err != nil {
		rw.logger.WithError(err).WithField("lead_id", leadID).Warn("failed to stop sequence on reply")
		return
	}

	// The reply is the freshest contact we have.
	rw.db.Model(&models.Lead{}).Where("id = ?", leadID).
		Update("last_contacted_at", now)

	details := "reply received from " + addr
	if excerpt != "" {
		details += ": " + excerpt
	}
	rw.db.Create(&models.LeadActivity{
		LeadID:       leadID,
		ActivityType: "reply_received",
		ActivityAt:   now,
		Details:      details,
	})

	rw.logger.WithFields(logrus.Fields{
		"lead_id": leadID,
		"from":    addr,
	}).Info("cancelled sequence after reply")
}

// enrolledLeadsByEmail maps the email of every actively enrolled lead to
// its id.
func (rw *ReplyWorker) enrolledLeadsByEmail() (map[string]uint, error) {
	var rows []struct {
		ID    uint
		Email string
	}
	err := rw.db.Model(&models.Lead{}).
		Select("leads.id, leads.email").
		Joins("JOIN email_sequences ON email_sequences.lead_id = leads.id").
		Where("email_sequences.is_active = ? AND leads.email <> ''", true).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load enrolled leads: %w", err)
	}

	enrolled := make(map[string]uint, len(rows))
	for _, r := range rows {
		enrolled[strings.ToLower(r.Email)] = r.ID
	}
	return enrolled, nil
}

func excerptOf(msg *imap.Message, section *imap.BodySectionName) string {
	r := msg.GetBody(section)
	if r == nil {
		return ""
	}
	mr, err := mail.CreateReader(r)
	if err != nil {
		return ""
	}
	for {
		p, err := mr.NextPart()
		if err != nil {
			return ""
		}
		if _, ok := p.Header.(*mail.InlineHeader); ok {
			buf := make([]byte, 160)
			n, _ := io.ReadFull(p.Body, buf)
			return strings.TrimSpace(string(buf[:n]))
		}
	}
}
