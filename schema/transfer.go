package schema

// Transfer is one candidate record returned by the indexer. Transient,
// never persisted.
type Transfer struct {
	Id          string `json:"id"`
	FromId      string `json:"fromId"`
	ToId        string `json:"toId"`
	Value       string `json:"value"`
	Asset       string `json:"asset,omitempty"`
	Remark      string `json:"remark"` // raw hex remark, may be empty
	BlockNumber int64  `json:"blockNumber"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// Spending is a historical outgoing transfer row used by the bulk
// spendings export.
type Spending struct {
	Id          string `json:"id"`
	ToId        string `json:"toId"`
	Value       string `json:"value"`
	Asset       string `json:"asset"`
	Remark      string `json:"remark"`
	BlockNumber int64  `json:"blockNumber"`
	Timestamp   string `json:"timestamp"`
}
