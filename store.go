package chainpay

import (
	"encoding/json"

	"github.com/liberland/chainpay/rawdb"
	"github.com/liberland/chainpay/schema"
)

// Store is the durable order registry, backed by any rawdb.KeyValueDB.
// Orders are keyed by their orderId; the value is the JSON order record.
type Store struct {
	KVDb rawdb.KeyValueDB
}

func NewBoltStore(boltDirPath string) (*Store, error) {
	boltDb, err := rawdb.NewBoltDB(boltDirPath)
	if err != nil {
		return nil, err
	}
	return &Store{KVDb: boltDb}, nil
}

func NewMemStore() *Store {
	return &Store{KVDb: rawdb.NewMemDB()}
}

func (s *Store) Close() error {
	return s.KVDb.Close()
}

// SaveOrder persists the order before returning, so an acknowledged
// registration survives a crash.
func (s *Store) SaveOrder(ord schema.Order) error {
	if len(ord.OrderId) == 0 {
		return schema.ErrNullOrderId
	}
	val, err := json.Marshal(&ord)
	if err != nil {
		return err
	}
	return s.KVDb.Put(schema.OrderBucket, ord.OrderId, val)
}

func (s *Store) LoadOrder(orderId string) (ord schema.Order, err error) {
	data, err := s.KVDb.Get(schema.OrderBucket, orderId)
	if err != nil {
		return
	}
	err = json.Unmarshal(data, &ord)
	return
}

func (s *Store) ExistOrder(orderId string) bool {
	return s.KVDb.Exist(schema.OrderBucket, orderId)
}

func (s *Store) LoadAllOrderIds() ([]string, error) {
	return s.KVDb.GetAllKey(schema.OrderBucket)
}

func (s *Store) LoadAllOrders() ([]schema.Order, error) {
	ids, err := s.LoadAllOrderIds()
	if err != nil {
		return nil, err
	}
	ords := make([]schema.Order, 0, len(ids))
	for _, id := range ids {
		ord, err := s.LoadOrder(id)
		if err != nil {
			// a concurrent removal between GetAllKey and Get is not an error
			if err == schema.ErrNotExist {
				continue
			}
			return nil, err
		}
		ords = append(ords, ord)
	}
	return ords, nil
}

// DelOrder is idempotent; deleting an absent order returns nil.
func (s *Store) DelOrder(orderId string) error {
	return s.KVDb.Delete(schema.OrderBucket, orderId)
}
