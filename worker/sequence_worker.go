package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/pierreaxel1988/crm-gadait-international-sub002/scheduler"
)

// SequenceWorker drives the drip engine on a cron schedule. Overlapping
// runs are tolerated by design: the runner claims each due sequence
// atomically, so a slow run and its successor never double-send.
type SequenceWorker struct {
	cron     *cron.Cron
	runner   *scheduler.BatchRunner
	logger   *logrus.Logger
	cronSpec string
	timeout  time.Duration
}

func NewSequenceWorker(runner *scheduler.BatchRunner, cronSpec string, logger *logrus.Logger) *SequenceWorker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SequenceWorker{
		cron:     cron.New(),
		runner:   runner,
		logger:   logger,
		cronSpec: cronSpec,
		timeout:  10 * time.Minute,
	}
}

// Start registers the batch job and launches the cron scheduler
func (sw *SequenceWorker) Start() error {
	_, err := sw.cron.AddFunc(sw.cronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sw.timeout)
		defer cancel()

		summary, err := sw.runner.Run(ctx, time.Now())
		if err != nil {
			sw.logger.WithError(err).Error("batch run failed")
			return
		}
		if summary.SequencesStarted > 0 || summary.EmailsSent > 0 || len(summary.Errors) > 0 {
			sw.logger.WithFields(logrus.Fields{
				"started": summary.SequencesStarted,
				"sent":    summary.EmailsSent,
				"errors":  len(summary.Errors),
			}).Info("scheduled batch run finished")
		}
	})
	if err != nil {
		return err
	}

	sw.logger.WithField("spec", sw.cronSpec).Info("sequence worker started")
	sw.cron.Start()
	return nil
}

// Stop halts the cron scheduler; running jobs finish on their own
func (sw *SequenceWorker) Stop() {
	sw.logger.Info("sequence worker stopping")
	sw.cron.Stop()
}
