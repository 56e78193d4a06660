package schema

import (
	"errors"
)

var (
	ErrNotExist = errors.New("not_exist_record")
	ErrNotFound = errors.New("not_found")

	ErrNullOrderId  = errors.New("null_order_id")
	ErrNullCallback = errors.New("null_callback")
	ErrNullToId     = errors.New("null_to_id")
	ErrNullPrice    = errors.New("null_price")

	ErrIndexerQuery = errors.New("indexer_query_failed")
	ErrChainQuery   = errors.New("chain_query_failed")
)
