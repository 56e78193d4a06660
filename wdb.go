package chainpay

import (
	"path"
	"time"

	"github.com/liberland/chainpay/schema"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqliteName = "chainpay.sqlite"

// Wdb is the relational side store: delivery attempt audit trail and
// daily order statistics. The kv store stays the source of truth for
// pending orders; everything in here is observability.
type Wdb struct {
	Db *gorm.DB
}

func NewMysqlDb(dsn string) *Wdb {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:          logger.Default.LogMode(logger.Error),
		CreateBatchSize: 200,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect mysql db success")
	return &Wdb{Db: db}
}

func NewSqliteDb(dbDir string) *Wdb {
	db, err := gorm.Open(sqlite.Open(path.Join(dbDir, sqliteName)), &gorm.Config{
		Logger:          logger.Default.LogMode(logger.Error),
		CreateBatchSize: 200,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect sqlite db success")
	return &Wdb{Db: db}
}

func (w *Wdb) Migrate() error {
	return w.Db.AutoMigrate(&schema.DeliveryAttempt{}, &schema.OrderStatistic{})
}

func (w *Wdb) Close() {
	sql, err := w.Db.DB()
	if err == nil {
		sql.Close()
	}
}

func (w *Wdb) InsertDeliveryAttempt(da schema.DeliveryAttempt) error {
	return w.Db.Create(&da).Error
}

func (w *Wdb) GetDeliveryAttempts(orderId string) ([]schema.DeliveryAttempt, error) {
	res := make([]schema.DeliveryAttempt, 0)
	err := w.Db.Where("order_id = ?", orderId).Order("id asc").Find(&res).Error
	return res, err
}

var statisticColumns = map[string]string{
	"registered":                 "registered",
	schema.OutcomeDelivered:      "delivered",
	schema.OutcomeExpired:        "expired",
	schema.OutcomeDeliveryFailed: "delivery_failed",
}

// IncOrderStatistic bumps today's counter for the given outcome.
func (w *Wdb) IncOrderStatistic(outcome string) error {
	column, ok := statisticColumns[outcome]
	if !ok {
		return schema.ErrNotFound
	}
	date := time.Now().UTC().Truncate(24 * time.Hour)
	stat := schema.OrderStatistic{Date: date}
	if err := w.Db.Where("date = ?", date).FirstOrCreate(&stat).Error; err != nil {
		return err
	}
	return w.Db.Model(&schema.OrderStatistic{}).
		Where("date = ?", date).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error
}

func (w *Wdb) GetOrderStatistics(start, end time.Time) ([]schema.OrderStatistic, error) {
	res := make([]schema.OrderStatistic, 0)
	err := w.Db.Where("date >= ? and date <= ?", start, end).Order("date asc").Find(&res).Error
	return res, err
}
