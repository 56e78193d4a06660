package config

import (
	"path"

	"github.com/liberland/chainpay/config/schema"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqliteName = "chainpay-config.sqlite"

type Wdb struct {
	Db *gorm.DB
}

func NewWdb(dsn string, sqliteDir string, useSqlite bool) *Wdb {
	var db *gorm.DB
	var err error
	cfg := &gorm.Config{
		Logger:          logger.Default.LogMode(logger.Error),
		CreateBatchSize: 10,
	}
	if useSqlite {
		db, err = gorm.Open(sqlite.Open(path.Join(sqliteDir, sqliteName)), cfg)
	} else {
		db, err = gorm.Open(mysql.Open(dsn), cfg)
	}
	if err != nil {
		panic(err)
	}
	log.Info("connect config db success")
	return &Wdb{Db: db}
}

func (w *Wdb) Migrate() error {
	return w.Db.AutoMigrate(&schema.WatchParams{}, &schema.IpRateWhitelist{})
}

func (w *Wdb) GetWatchParams() (params schema.WatchParams, err error) {
	err = w.Db.First(&params).Error
	if err == gorm.ErrRecordNotFound {
		params = schema.WatchParams{
			ScanInterval:    3,
			StalenessBlocks: 10000,
			MaxAttempts:     3,
		}
		return params, nil
	}
	return
}

func (w *Wdb) GetAllAvailableIpRateWhitelist() ([]schema.IpRateWhitelist, error) {
	res := make([]schema.IpRateWhitelist, 0)
	err := w.Db.Where("available = ?", true).Find(&res).Error
	return res, err
}

func (w *Wdb) Close() {
	sql, err := w.Db.DB()
	if err == nil {
		sql.Close()
	}
}
