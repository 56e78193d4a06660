package schema

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// terminal order outcomes recorded in statistics
	OutcomeDelivered      = "delivered"
	OutcomeExpired        = "expired"
	OutcomeDeliveryFailed = "deliveryFailed"

	// delivery attempt results
	AttemptSucc   = "success"
	AttemptFailed = "failed"
)

// DeliveryAttempt is one webhook delivery attempt, kept as an audit
// trail so operators can reconstruct what the callback target was told.
type DeliveryAttempt struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	AttemptId  string         `gorm:"unique" json:"attemptId"` // uuid
	OrderId    string         `gorm:"index:idx1" json:"orderId"`
	Attempt    int            `json:"attempt"` // 1-based sequence within one Deliver call
	Callback   string         `json:"callback"`
	StatusCode int            `json:"statusCode"` // 0 when the request never got a response
	Response   datatypes.JSON `json:"response"`   // raw response body, failure attempts only
	Status     string         `json:"status"`     // "success", "failed"
	ErrMsg     string         `json:"errMsg"`
}

// OrderStatistic aggregates per-day order outcomes.
type OrderStatistic struct {
	ID   uint      `gorm:"primarykey" json:"id"`
	Date time.Time `gorm:"index:idx2,unique" json:"date"`

	Registered     int64 `json:"registered"`
	Delivered      int64 `json:"delivered"`
	Expired        int64 `json:"expired"`
	DeliveryFailed int64 `json:"deliveryFailed"`
}
