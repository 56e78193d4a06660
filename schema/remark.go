package schema

// Remark schema variants. A transfer remark decodes to exactly one of
// these, or to VariantNone when it parses under neither schema.
const (
	VariantNone = "none"
	VariantUser = "user"
	VariantGov  = "government"
)

// RemarkInfoUser is the consumer purchase remark: an order id plus a
// free-text description.
type RemarkInfoUser struct {
	Id          string `json:"id"` // decimal string, normalized
	Description string `json:"description"`
}

// RemarkInfo is the government disbursement remark. FinalDestination
// carries a secondary "<externalAddress>, <externalOrderId>" composite.
type RemarkInfo struct {
	Category                   string `json:"category"`
	Project                    string `json:"project"`
	Supplier                   string `json:"supplier"`
	Description                string `json:"description"`
	FinalDestination           string `json:"finalDestination"`
	AmountInUSDAtDateOfPayment uint64 `json:"amountInUSDAtDateOfPayment"`
	Date                       uint64 `json:"date"` // unix millis
	Currency                   string `json:"currency"`
}

// DecodedRemark is the tagged union produced by the remark codec.
// Exactly one of User/Gov is set according to Variant.
type DecodedRemark struct {
	Variant string          `json:"variant"`
	User    *RemarkInfoUser `json:"user,omitempty"`
	Gov     *RemarkInfo     `json:"government,omitempty"`
}
