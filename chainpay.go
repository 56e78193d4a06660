package chainpay

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/liberland/chainpay/cache"
	"github.com/liberland/chainpay/chain"
	"github.com/liberland/chainpay/common"
	"github.com/liberland/chainpay/config"
	"github.com/liberland/chainpay/indexer"
)

const spendingsCacheExpTime = 3 * time.Minute

type Chainpay struct {
	store  *Store
	engine *gin.Engine

	chain      HeadSource
	indexer    *indexer.Client
	matcher    *Matcher
	signer     *Signer
	dispatcher *Dispatcher

	wdb        *Wdb
	config     *config.Config
	scheduler  *gocron.Scheduler
	localCache *cache.Cache

	cancelWatcher context.CancelFunc
}

func New(
	boltDirPath, mysqlDsn string, sqliteDir string, useSqlite bool,
	signKeyPath string, chainUrl, indexerUrl string,
) *Chainpay {
	store, err := NewBoltStore(boltDirPath)
	if err != nil {
		panic(err)
	}

	var wdb *Wdb
	if useSqlite {
		wdb = NewSqliteDb(sqliteDir)
	} else {
		wdb = NewMysqlDb(mysqlDsn)
	}
	if err = wdb.Migrate(); err != nil {
		panic(err)
	}

	signer, err := NewSigner(signKeyPath)
	if err != nil {
		panic(err)
	}
	if !signer.HasKey() {
		log.Warn("no signing key found, webhooks will be delivered unsigned", "keyPath", signKeyPath)
	}

	cfg := config.New(mysqlDsn, sqliteDir, useSqlite)
	idx := indexer.New(indexerUrl)

	localCache, err := cache.NewLocalCache(spendingsCacheExpTime)
	if err != nil {
		panic(err)
	}

	return &Chainpay{
		store:      store,
		engine:     gin.Default(),
		chain:      chain.NewClient(chainUrl),
		indexer:    idx,
		matcher:    NewMatcher(idx),
		signer:     signer,
		dispatcher: NewDispatcher(signer, wdb, cfg.GetMaxAttempts()),
		wdb:        wdb,
		config:     cfg,
		scheduler:  gocron.NewScheduler(time.UTC),
		localCache: localCache,
	}
}

func (s *Chainpay) Run(port string) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelWatcher = cancel

	s.config.Run()
	common.NewMetricServer()
	go s.runAPI(port)
	go s.runJobs()
	go s.runWatcher(ctx)
}

func (s *Chainpay) Close() {
	if s.cancelWatcher != nil {
		s.cancelWatcher()
	}
	s.scheduler.Stop()
	s.config.Close()
	s.wdb.Close()
	if err := s.store.Close(); err != nil {
		log.Error("close kv store", "err", err)
	}
}
