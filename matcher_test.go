package chainpay

import (
	"testing"

	"github.com/liberland/chainpay/schema"
	"github.com/stretchr/testify/assert"
)

type fixtureSource struct {
	txs []schema.Transfer
	err error

	lastQuery schema.PurchaseQuery
}

func (f *fixtureSource) PurchaseTransfers(q schema.PurchaseQuery) ([]schema.Transfer, error) {
	f.lastQuery = q
	return f.txs, f.err
}

func TestVerifyUserPurchase(t *testing.T) {
	src := &fixtureSource{txs: []schema.Transfer{
		{FromId: "5XYZ", ToId: "5ABC", Value: "1000", Remark: EncodeUserRemark(41, "not ours"), BlockNumber: 104},
		{FromId: "5DEF", ToId: "5ABC", Value: "1000", Remark: EncodeUserRemark(42, "thanks"), BlockNumber: 105},
	}}
	m := NewMatcher(src)

	paid, remark, fromId, err := m.Verify(schema.PurchaseQuery{
		OrderId: "42", ToId: "5ABC", Price: "1000", MinBlockNumber: 100,
	})
	assert.NoError(t, err)
	assert.True(t, paid)
	assert.Equal(t, "thanks", remark)
	assert.Equal(t, "5DEF", fromId)
	assert.Equal(t, "5ABC", src.lastQuery.ToId)
}

func TestVerifyHexOrderId(t *testing.T) {
	src := &fixtureSource{txs: []schema.Transfer{
		{FromId: "5DEF", Remark: EncodeUserRemark(42, "thanks")},
	}}
	m := NewMatcher(src)

	paid, _, _, err := m.Verify(schema.PurchaseQuery{OrderId: "0x2a"})
	assert.NoError(t, err)
	assert.True(t, paid)
}

func TestVerifyGovDisbursement(t *testing.T) {
	remark := EncodeGovRemark(schema.RemarkInfo{
		Category:         "payroll",
		Description:      "contract 77",
		FinalDestination: "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY, 77",
		Currency:         "LLD",
	})
	src := &fixtureSource{txs: []schema.Transfer{{FromId: "5GOV", Remark: remark}}}
	m := NewMatcher(src)

	paid, note, fromId, err := m.Verify(schema.PurchaseQuery{OrderId: "77"})
	assert.NoError(t, err)
	assert.True(t, paid)
	assert.Equal(t, "contract 77", note)
	assert.Equal(t, "5GOV", fromId)

	// wrong external order id in the composite
	paid, _, _, err = m.Verify(schema.PurchaseQuery{OrderId: "78"})
	assert.NoError(t, err)
	assert.False(t, paid)
}

func TestVerifyNoMatch(t *testing.T) {
	src := &fixtureSource{txs: []schema.Transfer{
		{Remark: "0xdeadbeef"}, // undecodable, skipped
		{Remark: EncodeUserRemark(9, "other")},
	}}
	m := NewMatcher(src)

	paid, remark, fromId, err := m.Verify(schema.PurchaseQuery{OrderId: "42"})
	assert.NoError(t, err)
	assert.False(t, paid)
	assert.Empty(t, remark)
	assert.Empty(t, fromId)
}

func TestVerifyIndexerFailure(t *testing.T) {
	src := &fixtureSource{err: schema.ErrIndexerQuery}
	m := NewMatcher(src)

	paid, _, _, err := m.Verify(schema.PurchaseQuery{OrderId: "42"})
	// a failed query must stay distinguishable from "no match"
	assert.Equal(t, schema.ErrIndexerQuery, err)
	assert.False(t, paid)
}
