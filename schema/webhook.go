package schema

// WebhookPayload is the JSON body delivered to the registered callback
// once a purchase is confirmed.
type WebhookPayload struct {
	ToId    string `json:"toId"`
	Price   string `json:"price"`
	OrderId string `json:"orderId"`
	AssetId string `json:"assetId"`
	Remark  string `json:"remark"`
	FromId  string `json:"fromId"`
}

// DeliveryResult is the resolved outcome of one Deliver call, after all
// attempts. Not persisted; the watcher only inspects Success.
type DeliveryResult struct {
	Success    bool
	Attempts   int
	StatusCode int    // last response status, 0 when no response was received
	Body       string // last response body, failure attempts only
}
