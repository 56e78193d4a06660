package indexer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/liberland/chainpay/schema"
	"github.com/tidwall/gjson"
	"gopkg.in/h2non/gentleman.v2"
)

// Client talks to the chain explorer's GraphQL endpoint. It is the only
// read path this service has into historical transfers.
type Client struct {
	GCli *gentleman.Client
}

func New(explorerUrl string) *Client {
	return &Client{
		GCli: gentleman.New().URL(explorerUrl),
	}
}

const purchaseTransfersQuery = `
query PurchaseTransfers($toId: String, $value: BigFloat, $minBlock: BigFloat) {
	transfers(
		orderBy: BLOCK_NUMBER_DESC,
		filter: {
			toId: { equalTo: $toId },
			value: { equalTo: $value },
			blockNumber: { greaterThan: $minBlock },
			remark: { isNull: false }
		}
	) {
		nodes {
			id
			fromId
			toId
			value
			remark
			block {
				number
			}
		}
	}
}
`

const purchaseAssetTransfersQuery = `
query PurchaseAssetTransfers($toId: String, $value: BigFloat, $minBlock: BigFloat, $asset: String) {
	assetTransfers(
		orderBy: BLOCK_NUMBER_DESC,
		filter: {
			asset: { equalTo: $asset },
			toId: { equalTo: $toId },
			value: { equalTo: $value },
			blockNumber: { greaterThan: $minBlock },
			remark: { isNull: false }
		}
	) {
		nodes {
			id
			fromId
			toId
			asset
			value
			remark
			block {
				number
			}
		}
	}
}
`

// PurchaseTransfers returns candidate transfers for one order check:
// exact recipient, exact value, block strictly above minBlock, non-null
// remark. Asset-scoped when q.AssetId is set, native transfers otherwise.
func (c *Client) PurchaseTransfers(q schema.PurchaseQuery) ([]schema.Transfer, error) {
	query := purchaseTransfersQuery
	entity := "transfers"
	variables := map[string]interface{}{
		"toId":     q.ToId,
		"value":    q.Price,
		"minBlock": q.MinBlockNumber,
	}
	if len(q.AssetId) != 0 {
		query = purchaseAssetTransfersQuery
		entity = "assetTransfers"
		variables["asset"] = q.AssetId
	}

	root, err := c.query(query, variables)
	if err != nil {
		return nil, err
	}
	nodes := root.Get("data." + entity + ".nodes")
	txs := make([]schema.Transfer, 0)
	nodes.ForEach(func(_, node gjson.Result) bool {
		txs = append(txs, transferFromNode(node))
		return true
	})
	return txs, nil
}

// spendings entities queried by the bulk export; merits are LLM
// transfers, transfers are native LLD.
var spendingEntities = []struct {
	entity string
	asset  string
	filter string
	fields string
}{
	{"transfers", "LLD", `filter: { fromId: { equalTo: $userId } }`, ""},
	{"merits", "LLM", `filter: { fromId: { equalTo: $userId } }`, ""},
	{"assetTransfers", "", `filter: { asset: { notEqualTo: "1" }, fromId: { equalTo: $userId } }`, "asset\n"},
}

// AllSpendings pages through every outgoing transfer of userId across
// all three asset classes, newest block first.
func (c *Client) AllSpendings(userId string) ([]schema.Spending, error) {
	all := make([]schema.Spending, 0)
	for _, se := range spendingEntities {
		query := fmt.Sprintf(`
query Spendings($after: Cursor, $userId: String) {
	%s(first: 50, after: $after, %s) {
		nodes {
			id
			toId
			%svalue
			remark
			block {
				number
				timestamp
			}
		}
		pageInfo {
			hasNextPage,
			endCursor
		}
	}
}
`, se.entity, se.filter, se.fields)
		rows, err := c.queryAllPages(query, se.entity, map[string]interface{}{"userId": userId})
		if err != nil {
			return nil, err
		}
		for _, node := range rows {
			sp := spendingFromNode(node)
			if len(sp.Asset) == 0 {
				sp.Asset = se.asset
			}
			all = append(all, sp)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].BlockNumber > all[j].BlockNumber
	})
	return all, nil
}

const spendingCountQuery = `
query SpendingCount($userId: String) {
	merits(filter: { fromId: { equalTo: $userId } }) {
		totalCount
	}
	transfers(filter: { fromId: { equalTo: $userId } }) {
		totalCount
	}
	assetTransfers(filter: { asset: { notEqualTo: "1" }, fromId: { equalTo: $userId } }) {
		totalCount
	}
}
`

// SpendingCount sums totalCount over the three spending entities.
func (c *Client) SpendingCount(userId string) (int64, error) {
	root, err := c.query(spendingCountQuery, map[string]interface{}{"userId": userId})
	if err != nil {
		return 0, err
	}
	count := int64(0)
	for _, entity := range []string{"merits", "transfers", "assetTransfers"} {
		count += root.Get("data." + entity + ".totalCount").Int()
	}
	return count, nil
}

func (c *Client) queryAllPages(query, entity string, variables map[string]interface{}) ([]gjson.Result, error) {
	rows := make([]gjson.Result, 0)
	for {
		root, err := c.query(query, variables)
		if err != nil {
			return nil, err
		}
		nodes := root.Get("data." + entity + ".nodes")
		nodes.ForEach(func(_, node gjson.Result) bool {
			rows = append(rows, node)
			return true
		})
		pageInfo := root.Get("data." + entity + ".pageInfo")
		if !pageInfo.Get("hasNextPage").Bool() {
			return rows, nil
		}
		variables["after"] = pageInfo.Get("endCursor").String()
	}
}

func (c *Client) query(query string, variables map[string]interface{}) (gjson.Result, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return gjson.Result{}, err
	}
	req := c.GCli.Post()
	req.SetHeader("Content-Type", "application/json")
	req.Body(bytes.NewReader(payload))
	resp, err := req.Send()
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Close()
	if !resp.Ok {
		return gjson.Result{}, fmt.Errorf("explorer request failed; http code: %d, errMsg: %s", resp.StatusCode, resp.String())
	}
	root := gjson.Parse(resp.String())
	if errs := root.Get("errors"); errs.Exists() && len(errs.Array()) > 0 {
		return gjson.Result{}, fmt.Errorf("explorer graphql error: %s", errs.Array()[0].Get("message").String())
	}
	return root, nil
}

func transferFromNode(node gjson.Result) schema.Transfer {
	return schema.Transfer{
		Id:          node.Get("id").String(),
		FromId:      node.Get("fromId").String(),
		ToId:        node.Get("toId").String(),
		Value:       node.Get("value").String(),
		Asset:       node.Get("asset").String(),
		Remark:      node.Get("remark").String(),
		BlockNumber: blockNumber(node),
	}
}

func spendingFromNode(node gjson.Result) schema.Spending {
	return schema.Spending{
		Id:          node.Get("id").String(),
		ToId:        node.Get("toId").String(),
		Value:       node.Get("value").String(),
		Asset:       node.Get("asset").String(),
		Remark:      node.Get("remark").String(),
		BlockNumber: blockNumber(node),
		Timestamp:   node.Get("block.timestamp").String(),
	}
}

// the indexer serialises block numbers as BigFloat strings
func blockNumber(node gjson.Result) int64 {
	raw := node.Get("block.number").String()
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return node.Get("block.number").Int()
	}
	return n
}
