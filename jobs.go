package chainpay

import (
	"encoding/json"

	"github.com/liberland/chainpay/schema"
)

const spendingsCacheKey = "congress-spendings"

func (s *Chainpay) runJobs() {
	s.scheduler.Every(3).Minute().SingletonMode().Do(s.refreshSpendings)
	s.scheduler.Every(10).Minute().SingletonMode().Do(s.pruneExpiredOrders)

	s.scheduler.StartAsync()
}

// refreshSpendings warms the spendings export cache ahead of requests;
// the full scrape pages through the whole treasury history, so the
// export endpoint should almost never have to do it inline.
func (s *Chainpay) refreshSpendings() {
	spendings, err := s.indexer.AllSpendings(CongressAddress)
	if err != nil {
		log.Error("refresh congress spendings", "err", err)
		return
	}
	data, err := json.Marshal(spendings)
	if err != nil {
		log.Error("marshal congress spendings", "err", err)
		return
	}
	if err := s.localCache.Cache.Set(spendingsCacheKey, data); err != nil {
		log.Error("cache congress spendings", "err", err)
	}
}

// pruneExpiredOrders is a safety net behind the block watcher: if the
// subscription stalls for long enough, stale orders still get removed.
func (s *Chainpay) pruneExpiredOrders() {
	currentBlock, err := s.chain.CurrentBlockNumber()
	if err != nil {
		log.Error("query current block", "err", err)
		return
	}
	ords, err := s.store.LoadAllOrders()
	if err != nil {
		log.Error("load pending orders", "err", err)
		return
	}
	for _, ord := range ords {
		if currentBlock-ord.LastBlockNumber <= s.stalenessBlocks() {
			continue
		}
		log.Info("pruning expired order", "orderId", ord.OrderId, "registeredBlock", ord.LastBlockNumber, "currentBlock", currentBlock)
		if err := s.store.DelOrder(ord.OrderId); err != nil {
			log.Error("remove expired order", "err", err, "orderId", ord.OrderId)
			continue
		}
		s.countOutcome(schema.OutcomeExpired)
	}
}
