package config

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/inconshreveable/log15"
)

var log = log15.New("module", "chainpay-config")

// Config serves watcher tunables out of the relational db, refreshed on
// a schedule so operator edits take effect without a restart.
type Config struct {
	wdb             *Wdb
	scanInterval    int64
	stalenessBlocks int64
	maxAttempts     int
	ipWhiteList     map[string]struct{}
	scheduler       *gocron.Scheduler
	locker          sync.RWMutex
}

func New(dsn string, sqliteDir string, useSqlite bool) *Config {
	wdb := NewWdb(dsn, sqliteDir, useSqlite)
	if err := wdb.Migrate(); err != nil {
		panic(err)
	}
	params, err := wdb.GetWatchParams()
	if err != nil {
		panic(err)
	}
	return &Config{
		wdb:             wdb,
		scanInterval:    params.ScanInterval,
		stalenessBlocks: params.StalenessBlocks,
		maxAttempts:     params.MaxAttempts,
		ipWhiteList:     make(map[string]struct{}),
		scheduler:       gocron.NewScheduler(time.UTC),
	}
}

func (c *Config) GetScanInterval() int64 {
	c.locker.RLock()
	defer c.locker.RUnlock()
	return c.scanInterval
}

func (c *Config) GetStalenessBlocks() int64 {
	c.locker.RLock()
	defer c.locker.RUnlock()
	return c.stalenessBlocks
}

func (c *Config) GetMaxAttempts() int {
	c.locker.RLock()
	defer c.locker.RUnlock()
	return c.maxAttempts
}

func (c *Config) GetIPWhiteList() *map[string]struct{} {
	c.locker.RLock()
	defer c.locker.RUnlock()
	return &c.ipWhiteList
}

func (c *Config) Run() {
	go c.runJobs()
}

func (c *Config) Close() {
	c.wdb.Close()
}
