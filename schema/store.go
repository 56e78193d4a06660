package schema

var (
	// bucket
	OrderBucket     = "order-bucket"     // key: orderId, val: json.Marshal(Order)
	ConstantsBucket = "constants-bucket" // key: const name, val: raw bytes
)
