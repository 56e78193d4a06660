package schema

// WatchParams are the tunables of the purchase watcher, kept in the
// relational db so operators can adjust them without a redeploy.
type WatchParams struct {
	ID              uint  `gorm:"primarykey"`
	ScanInterval    int64 // scan every Nth block
	StalenessBlocks int64 // discard unmatched orders older than this
	MaxAttempts     int   // webhook delivery attempt budget
}

type IpRateWhitelist struct {
	OriginOrIP  string // e.g "188.0.2.2"
	Available   bool   `gorm:"index:idx3"` // true means effective
	Description string
}
