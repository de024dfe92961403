package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	conf "github.com/guabee/multidb/config"
	"github.com/guabee/multidb/log"
	"github.com/guabee/multidb/maintenance"
	"github.com/guabee/multidb/multidb"
	"github.com/pkg/errors"
)

var (
	BuildVersion = "v0.0.0-build.0"
	CommitID     = "Local"
	BuildTime    = "2006-01-02 15:04:05"
	BuildName    = "MultiDB"
)

type Report struct {
	Written   int
	Found     int
	Freed     int
	Remaining int
}

func idKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

func countRecords(db *multidb.DB, subDB multidb.DBID, logger *log.Entry, label string) (int, error) {
	n := 0
	err := db.Load(subDB, func(key, _ []byte) error {
		logger.Debugf("%s: %d", label, binary.BigEndian.Uint64(key))
		n++
		return nil
	})
	return n, err
}

// runDemo writes ids 0..Records into one sub-database in batches, scans
// them, frees every id found by a seek, and scans again.
func runDemo(db *multidb.DB, demo conf.DemoConfig, logger *log.Entry) (report Report, err error) {
	batchSize := demo.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	updates := multidb.NewBatch()
	flush := func(force bool) error {
		if updates.Len() == 0 || (!force && updates.Len() < batchSize) {
			return nil
		}
		defer updates.Clear()
		return db.Write(updates)
	}

	for i := uint64(0); i <= demo.Records; i++ {
		key := idKey(i)
		if err = updates.Put(demo.SubDB, key, key); err != nil {
			return
		}
		report.Written++
		logger.Debugf("Written ID: %d", i)
		if err = flush(false); err != nil {
			return
		}
	}
	if err = flush(true); err != nil {
		return
	}

	if report.Found, err = countRecords(db, demo.SubDB, logger, "Found ID"); err != nil {
		return
	}

	for i := uint64(0); i <= demo.Records; i++ {
		var freed bool
		if freed, err = seekAndFree(db, demo.SubDB, idKey(i), updates); err != nil {
			return
		}
		if freed {
			report.Freed++
		}
		if err = flush(false); err != nil {
			return
		}
	}
	if err = flush(true); err != nil {
		return
	}

	report.Remaining, err = countRecords(db, demo.SubDB, logger, "Found ID (Remaining)")
	return
}

func seekAndFree(db *multidb.DB, subDB multidb.DBID, key []byte, updates *multidb.Batch) (bool, error) {
	c, err := db.NewCursor(subDB)
	if err != nil {
		return false, err
	}
	defer c.Close() //nolint:errcheck

	if !c.Seek(key) {
		return false, c.Error()
	}
	return true, updates.Delete(subDB, key)
}

func run(config conf.Config) error {
	logger := log.NewLoggerEntry("main")

	table, err := config.ComparatorTable()
	if err != nil {
		return err
	}
	db, err := multidb.Open(config.Path, table, config.Options())
	if err != nil {
		return errors.Wrapf(err, "cannot open database %s", config.Path)
	}
	defer db.Close() //nolint:errcheck

	report, err := runDemo(db, config.Demo, logger)
	if err != nil {
		return err
	}
	logger.Infof("written %d, found %d, freed %d, remaining %d",
		report.Written, report.Found, report.Freed, report.Remaining)

	if config.CompactInterval <= 0 {
		return nil
	}
	ids, err := config.CompactTargets()
	if err != nil {
		return err
	}
	compactor := maintenance.NewCompactor(db, config.CompactInterval, ids...)
	if err := compactor.Start(); err != nil {
		return err
	}
	defer compactor.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}

func main() {
	conf.BuildName = BuildName
	config := conf.ParseConfig()
	if config.Version {
		fmt.Printf("%s %s %s %s\n", BuildVersion, BuildName, CommitID, BuildTime)
		return
	}

	log.SetDefaultLevel(log.Level(config.LogLevel))
	for _, module := range config.DebugModules {
		log.SetLogLevel(module, log.DebugLevel)
	}

	if err := run(config); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
