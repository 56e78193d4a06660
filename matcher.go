package chainpay

import (
	"strings"

	"github.com/liberland/chainpay/schema"
)

// TransferSource is the indexer boundary the matcher depends on.
// indexer.Client satisfies it; tests substitute a fixture.
type TransferSource interface {
	PurchaseTransfers(q schema.PurchaseQuery) ([]schema.Transfer, error)
}

// Matcher decides whether any indexed transfer satisfies an order.
type Matcher struct {
	idx TransferSource
}

func NewMatcher(idx TransferSource) *Matcher {
	return &Matcher{idx: idx}
}

// Verify queries candidates and scans them for one carrying the order
// id in its remark. The returned error is set only on a failed indexer
// query; "no candidate matched" is (false, "", "", nil). Callers must
// keep the two apart: a query failure means retry later, never drop
// the order.
func (m *Matcher) Verify(q schema.PurchaseQuery) (paid bool, remark string, fromId string, err error) {
	txs, err := m.idx.PurchaseTransfers(q)
	if err != nil {
		return false, "", "", err
	}

	wantId := NormalizeOrderId(q.OrderId)
	for _, tx := range txs {
		dec := DecodeRemark(tx.Remark)
		switch dec.Variant {
		case schema.VariantUser:
			if dec.User.Id == wantId {
				return true, dec.User.Description, tx.FromId, nil
			}
		case schema.VariantGov:
			// finalDestination is "<externalAddress>, <externalOrderId>"
			parts := strings.Split(dec.Gov.FinalDestination, ", ")
			if len(parts) == 2 && NormalizeOrderId(parts[1]) == wantId {
				return true, dec.Gov.Description, tx.FromId, nil
			}
		}
	}
	return false, "", "", nil
}
