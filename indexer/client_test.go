package indexer

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/liberland/chainpay/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

func TestPurchaseTransfers(t *testing.T) {
	var gotReq gqlRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, `{"data":{"transfers":{"nodes":[
			{"id":"t1","fromId":"5DEF","toId":"5ABC","value":"1000","remark":"0xabcd","block":{"number":"105"}}
		]}}}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	txs, err := c.PurchaseTransfers(schema.PurchaseQuery{
		ToId: "5ABC", Price: "1000", MinBlockNumber: 100,
	})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "5DEF", txs[0].FromId)
	assert.Equal(t, "0xabcd", txs[0].Remark)
	assert.Equal(t, int64(105), txs[0].BlockNumber)

	assert.Contains(t, gotReq.Query, "transfers(")
	assert.Contains(t, gotReq.Query, "remark: { isNull: false }")
	assert.Equal(t, "5ABC", gotReq.Variables["toId"])
	assert.Equal(t, float64(100), gotReq.Variables["minBlock"])
}

func TestPurchaseTransfersAssetScoped(t *testing.T) {
	var gotReq gqlRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, `{"data":{"assetTransfers":{"nodes":[
			{"id":"a1","fromId":"5DEF","toId":"5ABC","asset":"7","value":"1000","remark":"0xabcd","block":{"number":"106"}}
		]}}}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	txs, err := c.PurchaseTransfers(schema.PurchaseQuery{
		ToId: "5ABC", Price: "1000", AssetId: "7", MinBlockNumber: 100,
	})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "7", txs[0].Asset)
	assert.Contains(t, gotReq.Query, "assetTransfers(")
	assert.Equal(t, "7", gotReq.Variables["asset"])
}

func TestQueryGraphqlError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"rate limited"}]}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.PurchaseTransfers(schema.PurchaseQuery{ToId: "5ABC"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestQueryHttpError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.PurchaseTransfers(schema.PurchaseQuery{ToId: "5ABC"})
	require.Error(t, err)
}

func TestAllSpendingsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch {
		case strings.Contains(req.Query, "assetTransfers("):
			fmt.Fprint(w, `{"data":{"assetTransfers":{"nodes":[],"pageInfo":{"hasNextPage":false}}}}`)
		case strings.Contains(req.Query, "merits("):
			fmt.Fprint(w, `{"data":{"merits":{"nodes":[
				{"id":"m1","toId":"5AAA","value":"5","remark":"","block":{"number":"90","timestamp":"ts3"}}
			],"pageInfo":{"hasNextPage":false}}}}`)
		case req.Variables["after"] == nil:
			fmt.Fprint(w, `{"data":{"transfers":{"nodes":[
				{"id":"t1","toId":"5AAA","value":"10","remark":"","block":{"number":"100","timestamp":"ts1"}}
			],"pageInfo":{"hasNextPage":true,"endCursor":"c1"}}}}`)
		default:
			assert.Equal(t, "c1", req.Variables["after"])
			fmt.Fprint(w, `{"data":{"transfers":{"nodes":[
				{"id":"t2","toId":"5BBB","value":"20","remark":"","block":{"number":"120","timestamp":"ts2"}}
			],"pageInfo":{"hasNextPage":false}}}}`)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	spendings, err := c.AllSpendings("5CONGRESS")
	require.NoError(t, err)
	require.Len(t, spendings, 3)
	// newest block first
	assert.Equal(t, "t2", spendings[0].Id)
	assert.Equal(t, "t1", spendings[1].Id)
	assert.Equal(t, "m1", spendings[2].Id)
	assert.Equal(t, "LLD", spendings[0].Asset)
	assert.Equal(t, "LLM", spendings[2].Asset)
	assert.Equal(t, "ts2", spendings[0].Timestamp)
}

func TestSpendingCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{
			"merits":{"totalCount":2},
			"transfers":{"totalCount":3},
			"assetTransfers":{"totalCount":4}
		}}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	count, err := c.SpendingCount("5CONGRESS")
	require.NoError(t, err)
	assert.Equal(t, int64(9), count)
}
