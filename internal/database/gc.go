package database

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const gcDiscardRatio = 0.5

// ScheduleValueLogGC runs badger value log GC on the given cron spec
// (seconds field included). Stop the returned scheduler on shutdown.
func ScheduleValueLogGC(store *BadgerStore, spec string, logger logrus.FieldLogger) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(spec, func() {
		if n := store.RunValueLogGC(gcDiscardRatio); n > 0 {
			logger.WithField("rewritten", n).Info("Badger value log GC completed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule value log GC: %w", err)
	}

	c.Start()
	logger.WithField("schedule", spec).Info("Scheduled badger value log GC")
	return c, nil
}
