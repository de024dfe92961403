package maintenance

import (
	"sync"
	"time"

	"github.com/guabee/multidb/log"
	"github.com/guabee/multidb/multidb"
	"github.com/robfig/cron/v3"
)

// Target is the part of multidb.DB the compactor drives.
type Target interface {
	CompactSubDB(id multidb.DBID) error
	Compact() error
}

// Compactor compacts a fixed set of sub-databases, or the whole store when
// the set is empty, on a cron schedule.
type Compactor struct {
	target   Target
	ids      []multidb.DBID
	interval time.Duration
	crontab  *cron.Cron
	logger   *log.Entry

	mu   sync.Mutex
	runs int
}

func NewCompactor(target Target, interval time.Duration, ids ...multidb.DBID) *Compactor {
	return &Compactor{
		target:   target,
		ids:      ids,
		interval: interval,
		crontab:  cron.New(cron.WithSeconds()),
		logger:   log.NewLoggerEntry("maintenance"),
	}
}

func durationToEveryString(duration time.Duration) string {
	return "@every " + duration.String()
}

// RunOnce compacts every target and returns the first failure. A failing
// sub-database does not stop the others.
func (c *Compactor) RunOnce() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	var firstErr error
	if len(c.ids) == 0 {
		firstErr = c.target.Compact()
	}
	for _, id := range c.ids {
		if err := c.target.CompactSubDB(id); err != nil {
			c.logger.Errorf("compact sub-database %d fail, err: %s", id, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	c.runs++
	c.logger.Debugf("compaction #%d done in %s", c.runs, time.Since(start))
	return firstErr
}

// Runs reports how many compaction passes have finished.
func (c *Compactor) Runs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

// Start schedules RunOnce every interval.
func (c *Compactor) Start() error {
	_, err := c.crontab.AddFunc(durationToEveryString(c.interval), func() {
		_ = c.RunOnce()
	})
	if err != nil {
		c.logger.Errorf("failed to add timer: %s", err)
		return err
	}
	c.crontab.Start()
	c.logger.Infof("compacting every %s", c.interval)
	return nil
}

// Stop stops the schedule and waits for a running pass to finish.
func (c *Compactor) Stop() {
	ctx := c.crontab.Stop()
	<-ctx.Done()
}
