package schema

const (
	// NativeAsset marks an order paid in the chain native token (LLD).
	NativeAsset = "Native"

	// an order older than OldestBlockRange blocks is discarded unmatched
	OldestBlockRange = 10000
)

// Order is a registered expectation of payment. It is stored as a JSON
// value in the kv store keyed by OrderId.
type Order struct {
	OrderId string `json:"orderId"`
	ToId    string `json:"toId"`
	// Price is the exact transferred value, kept as a string-encoded
	// integer to avoid float precision loss on chain amounts.
	Price           string `json:"price"`
	AssetId         string `json:"assetId,omitempty"` // empty means native asset
	MinBlockNumber  int64  `json:"minBlockNumber"`
	LastBlockNumber int64  `json:"lastBlockNumber"` // block height at registration
	Callback        string `json:"callback"`        // webhook target url
}

// PurchaseQuery is the filter set a verification run matches transfers against.
type PurchaseQuery struct {
	OrderId        string
	ToId           string
	Price          string
	AssetId        string
	MinBlockNumber int64
}
