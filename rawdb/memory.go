package rawdb

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/liberland/chainpay/schema"
)

const MemType = "memory"

// MemDB is an in-memory KeyValueDB used by tests and throwaway
// deployments. Not durable.
type MemDB struct {
	buckets map[string]map[string][]byte
	locker  sync.RWMutex
}

func NewMemDB() *MemDB {
	db := &MemDB{
		buckets: make(map[string]map[string][]byte),
	}
	for _, bucket := range []string{schema.OrderBucket, schema.ConstantsBucket} {
		db.buckets[bucket] = make(map[string][]byte)
	}
	return db
}

func (s *MemDB) Type() string {
	return MemType
}

func (s *MemDB) Put(bucket, key string, value interface{}) (err error) {
	data, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unknown data type: %s, db: memory db", reflect.TypeOf(value))
	}
	s.locker.Lock()
	defer s.locker.Unlock()
	bkt, ok := s.buckets[bucket]
	if !ok {
		bkt = make(map[string][]byte)
		s.buckets[bucket] = bkt
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	bkt[key] = cp
	return nil
}

func (s *MemDB) Get(bucket, key string) (data []byte, err error) {
	s.locker.RLock()
	defer s.locker.RUnlock()
	data, ok := s.buckets[bucket][key]
	if !ok {
		return nil, schema.ErrNotExist
	}
	return data, nil
}

func (s *MemDB) GetAllKey(bucket string) (keys []string, err error) {
	s.locker.RLock()
	defer s.locker.RUnlock()
	keys = make([]string, 0, len(s.buckets[bucket]))
	for k := range s.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemDB) Delete(bucket, key string) (err error) {
	s.locker.Lock()
	defer s.locker.Unlock()
	delete(s.buckets[bucket], key)
	return nil
}

func (s *MemDB) Exist(bucket, key string) bool {
	_, err := s.Get(bucket, key)
	return err == nil
}

func (s *MemDB) Close() (err error) {
	return nil
}
