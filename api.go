package chainpay

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liberland/chainpay/common"
	"github.com/liberland/chainpay/schema"
)

func (s *Chainpay) runAPI(port string) {
	r := s.engine
	r.Use(common.CORSMiddleware())
	v1 := r.Group("/")
	{
		v1.GET("/healthcheck", s.healthcheck)

		// purchase verification
		purchase := v1.Group("/")
		purchase.Use(common.LimiterMiddleware(60, "M", s.config.GetIPWhiteList()))
		{
			purchase.POST("/create-purchase", s.createPurchase)
			purchase.GET("/verify-purchase", s.verifyPurchase)
		}

		// treasury spendings export
		v1.GET("/congress/spendings", s.congressSpendings)
		v1.GET("/spendings/:userId/count", s.spendingCount)

		// operator views over the relational side store
		v1.GET("/orders/:orderId/attempts", s.deliveryAttempts)
		v1.GET("/statistics", s.orderStatistics)
	}

	if err := r.Run(port); err != nil {
		panic(err)
	}
}

func (s *Chainpay) healthcheck(c *gin.Context) {
	bn, err := s.chain.CurrentBlockNumber()
	if err != nil || bn < 1 {
		log.Error("healthcheck failed", "err", err, "blockNumber", bn)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

type createPurchaseReq struct {
	OrderId  string `json:"orderId"`
	Price    string `json:"price"`
	ToId     string `json:"toId"`
	AssetId  string `json:"assetId"`
	Callback string `json:"callback"`
}

func (s *Chainpay) createPurchase(c *gin.Context) {
	req := createPurchaseReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	if err := validatePurchaseReq(req); err != nil {
		errorResponse(c, err.Error())
		return
	}

	lastBlockNumber, err := s.chain.CurrentBlockNumber()
	if err != nil {
		log.Error("query current block", "err", err)
		errorResponse(c, schema.ErrChainQuery.Error())
		return
	}
	minBlockNumber := lastBlockNumber - schema.OldestBlockRange
	if minBlockNumber < 0 {
		minBlockNumber = 0
	}

	ord := schema.Order{
		OrderId:         req.OrderId,
		ToId:            req.ToId,
		Price:           req.Price,
		AssetId:         req.AssetId,
		MinBlockNumber:  minBlockNumber,
		LastBlockNumber: lastBlockNumber,
		Callback:        req.Callback,
	}
	if err := s.store.SaveOrder(ord); err != nil {
		log.Error("save order", "err", err, "orderId", ord.OrderId)
		errorResponse(c, err.Error())
		return
	}
	metricOrderRegistered()
	if s.wdb != nil {
		if err := s.wdb.IncOrderStatistic("registered"); err != nil {
			log.Error("update order statistic", "err", err, "outcome", "registered")
		}
	}
	c.Status(http.StatusCreated)
}

func validatePurchaseReq(req createPurchaseReq) error {
	switch {
	case len(req.OrderId) == 0:
		return schema.ErrNullOrderId
	case len(req.ToId) == 0:
		return schema.ErrNullToId
	case len(req.Price) == 0:
		return schema.ErrNullPrice
	case len(req.Callback) == 0:
		return schema.ErrNullCallback
	}
	return nil
}

// verifyPurchase is the synchronous check path: it answers whether the
// payment is visible right now, and on a hit also drives the order
// through delivery without waiting for the next scan pass.
func (s *Chainpay) verifyPurchase(c *gin.Context) {
	orderId := c.Query("orderId")
	if len(orderId) == 0 {
		errorResponse(c, schema.ErrNullOrderId.Error())
		return
	}

	lastBlockNumber, err := s.chain.CurrentBlockNumber()
	if err != nil {
		log.Error("query current block", "err", err)
		errorResponse(c, schema.ErrChainQuery.Error())
		return
	}
	minBlockNumber := lastBlockNumber - schema.OldestBlockRange
	if minBlockNumber < 0 {
		minBlockNumber = 0
	}

	paid, _, _, err := s.matcher.Verify(schema.PurchaseQuery{
		OrderId:        orderId,
		ToId:           c.Query("toId"),
		Price:          c.Query("price"),
		AssetId:        c.Query("assetId"),
		MinBlockNumber: minBlockNumber,
	})
	if err != nil {
		log.Error("verify purchase", "err", err, "orderId", orderId)
		errorResponse(c, schema.ErrIndexerQuery.Error())
		return
	}
	if paid {
		if err := s.ForceCheck(orderId); err != nil && err != schema.ErrNotFound {
			log.Error("force check", "err", err, "orderId", orderId)
		}
	}
	c.JSON(http.StatusOK, gin.H{"paid": paid})
}

func (s *Chainpay) congressSpendings(c *gin.Context) {
	data, err := s.localCache.Cache.Get(spendingsCacheKey)
	if err != nil {
		// cold cache, scrape inline once
		spendings, err := s.indexer.AllSpendings(CongressAddress)
		if err != nil {
			log.Error("fetch congress spendings", "err", err)
			errorResponse(c, schema.ErrIndexerQuery.Error())
			return
		}
		data, err = json.Marshal(spendings)
		if err != nil {
			errorResponse(c, err.Error())
			return
		}
		if err := s.localCache.Cache.Set(spendingsCacheKey, data); err != nil {
			log.Error("cache congress spendings", "err", err)
		}
	}

	spendings := make([]schema.Spending, 0)
	if err := json.Unmarshal(data, &spendings); err != nil {
		errorResponse(c, err.Error())
		return
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.WriteAll(FormatSpendings(spendings)); err != nil {
		errorResponse(c, err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="congress-spendings.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func (s *Chainpay) spendingCount(c *gin.Context) {
	userId := c.Param("userId")
	count, err := s.indexer.SpendingCount(userId)
	if err != nil {
		log.Error("count spendings", "err", err, "userId", userId)
		errorResponse(c, schema.ErrIndexerQuery.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (s *Chainpay) deliveryAttempts(c *gin.Context) {
	orderId := c.Param("orderId")
	attempts, err := s.wdb.GetDeliveryAttempts(orderId)
	if err != nil {
		log.Error("load delivery attempts", "err", err, "orderId", orderId)
		errorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, attempts)
}

// orderStatistics returns daily outcome counters for the last 30 days
// by default; start/end query params (RFC3339) narrow the range.
func (s *Chainpay) orderStatistics(c *gin.Context) {
	end := time.Now().UTC()
	start := end.Add(-30 * 24 * time.Hour)
	var err error
	if v := c.Query("start"); len(v) != 0 {
		if start, err = time.Parse(time.RFC3339, v); err != nil {
			errorResponse(c, err.Error())
			return
		}
	}
	if v := c.Query("end"); len(v) != 0 {
		if end, err = time.Parse(time.RFC3339, v); err != nil {
			errorResponse(c, err.Error())
			return
		}
	}
	stats, err := s.wdb.GetOrderStatistics(start, end)
	if err != nil {
		log.Error("load order statistics", "err", err)
		errorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, stats)
}

func errorResponse(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err})
}
