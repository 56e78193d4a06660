package chainpay

import (
	"context"
	"sync"
	"time"

	"github.com/liberland/chainpay/schema"
	"github.com/panjf2000/ants/v2"
)

const (
	DefaultScanInterval    = 3 // scan every Nth block
	DefaultStalenessBlocks = schema.OldestBlockRange

	scanPoolSize   = 50
	resubscribeGap = 10 * time.Second
)

// HeadSource is the chain rpc boundary the watcher depends on.
// chain.Client satisfies it; tests substitute a fixture.
type HeadSource interface {
	SubscribeNewHeads(ctx context.Context) (<-chan int64, error)
	CurrentBlockNumber() (int64, error)
}

// runWatcher is the control loop: one long-lived new-heads
// subscription drives every scan pass. The loop never exits on error,
// it resubscribes and keeps going.
func (s *Chainpay) runWatcher(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		heads, err := s.chain.SubscribeNewHeads(ctx)
		if err != nil {
			log.Error("subscribe new heads", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(resubscribeGap):
			}
			continue
		}
		for head := range heads {
			if head%s.scanInterval() == 0 {
				s.scanOrders(head)
			}
		}
	}
}

// scanOrders checks every pending order against the indexer, fanned out
// over a worker pool. Orders are independent; nothing here holds a lock
// across the pass.
func (s *Chainpay) scanOrders(currentBlock int64) {
	ords, err := s.store.LoadAllOrders()
	if err != nil {
		log.Error("load pending orders", "err", err, "currentBlock", currentBlock)
		return
	}
	metricScanPass(len(ords))
	if len(ords) == 0 {
		return
	}

	var wg sync.WaitGroup
	p, err := ants.NewPoolWithFunc(scanPoolSize, func(i interface{}) {
		defer wg.Done()
		ord := i.(schema.Order)
		s.processOrder(currentBlock, ord)
	})
	if err != nil {
		log.Error("create scan pool", "err", err)
		return
	}
	defer p.Release()

	for _, ord := range ords {
		wg.Add(1)
		_ = p.Invoke(ord)
	}
	wg.Wait()
}

// processOrder runs one order through its lifecycle step: expire it,
// match it, or leave it pending. A failed indexer query only skips this
// pass; the order is retried on the next one.
func (s *Chainpay) processOrder(currentBlock int64, ord schema.Order) {
	if currentBlock-ord.LastBlockNumber > s.stalenessBlocks() {
		log.Info("order expired unmatched", "orderId", ord.OrderId, "registeredBlock", ord.LastBlockNumber, "currentBlock", currentBlock)
		if err := s.store.DelOrder(ord.OrderId); err != nil {
			log.Error("remove expired order", "err", err, "orderId", ord.OrderId)
			return
		}
		s.countOutcome(schema.OutcomeExpired)
		return
	}

	paid, remark, fromId, err := s.matcher.Verify(schema.PurchaseQuery{
		OrderId:        ord.OrderId,
		ToId:           ord.ToId,
		Price:          ord.Price,
		AssetId:        ord.AssetId,
		MinBlockNumber: ord.MinBlockNumber,
	})
	if err != nil {
		// transient indexer failure, keep the order for the next pass
		log.Warn("order check skipped", "err", err, "orderId", ord.OrderId)
		return
	}
	if !paid {
		return
	}

	assetId := ord.AssetId
	if len(assetId) == 0 {
		assetId = schema.NativeAsset
	}
	payload := schema.WebhookPayload{
		ToId:    ord.ToId,
		Price:   ord.Price,
		OrderId: ord.OrderId,
		AssetId: assetId,
		Remark:  remark,
		FromId:  fromId,
	}

	res := s.dispatcher.Deliver(ord.OrderId, ord.Callback, payload)
	if res.Success {
		log.Info("order delivered", "orderId", ord.OrderId, "fromId", fromId, "attempts", res.Attempts)
		if err := s.store.DelOrder(ord.OrderId); err != nil {
			log.Error("remove delivered order", "err", err, "orderId", ord.OrderId)
			return
		}
		s.countOutcome(schema.OutcomeDelivered)
		return
	}

	// payment matched but the callback target was never told
	log.Error("order delivery failed after all attempts", "orderId", ord.OrderId, "fromId", fromId,
		"attempts", res.Attempts, "statusCode", res.StatusCode, "body", res.Body)
	if err := s.store.DelOrder(ord.OrderId); err != nil {
		log.Error("remove failed order", "err", err, "orderId", ord.OrderId)
		return
	}
	s.countOutcome(schema.OutcomeDeliveryFailed)
}

// ForceCheck re-evaluates one order immediately, outside the block
// cadence, for latency-sensitive callers.
func (s *Chainpay) ForceCheck(orderId string) error {
	ord, err := s.store.LoadOrder(orderId)
	if err != nil {
		if err == schema.ErrNotExist {
			return schema.ErrNotFound
		}
		return err
	}
	currentBlock, err := s.chain.CurrentBlockNumber()
	if err != nil {
		return err
	}
	s.processOrder(currentBlock, ord)
	return nil
}

func (s *Chainpay) countOutcome(outcome string) {
	metricOrderOutcome(outcome)
	if s.wdb == nil {
		return
	}
	if err := s.wdb.IncOrderStatistic(outcome); err != nil {
		log.Error("update order statistic", "err", err, "outcome", outcome)
	}
}

func (s *Chainpay) scanInterval() int64 {
	if s.config != nil {
		if v := s.config.GetScanInterval(); v > 0 {
			return v
		}
	}
	return DefaultScanInterval
}

func (s *Chainpay) stalenessBlocks() int64 {
	if s.config != nil {
		if v := s.config.GetStalenessBlocks(); v > 0 {
			return v
		}
	}
	return DefaultStalenessBlocks
}
