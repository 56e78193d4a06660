package rawdb

import (
	"fmt"
	"sort"
	"testing"

	"github.com/liberland/chainpay/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltDB(t *testing.T) {
	db, err := NewBoltDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, BoltType, db.Type())
	runKeyValueDB(t, db)
}

func TestMemDB(t *testing.T) {
	db := NewMemDB()
	assert.Equal(t, MemType, db.Type())
	runKeyValueDB(t, db)
}

func runKeyValueDB(t *testing.T, db KeyValueDB) {
	bktName := schema.OrderBucket
	keyNum := 100
	keys := make([]string, keyNum)
	values := make([][]byte, keyNum)
	for i := 0; i < keyNum; i++ {
		keys[i] = fmt.Sprintf("key%d", i)
		values[i] = []byte(fmt.Sprintf("v%d", i))
	}

	// test Put & Get
	for i := 0; i < keyNum; i++ {
		err := db.Put(bktName, keys[i], values[i])
		assert.NoError(t, err)
	}
	for i := 0; i < keyNum; i++ {
		val, err := db.Get(bktName, keys[i])
		assert.NoError(t, err)
		assert.Equal(t, values[i], val)
	}

	// only []byte values are accepted
	err := db.Put(bktName, "bad", 42)
	assert.Error(t, err)

	// test Exist
	assert.True(t, db.Exist(bktName, keys[0]))
	assert.False(t, db.Exist(bktName, "no-such-key"))

	// test GetAllKey; return order may differ from insertion order
	allKeys, err := db.GetAllKey(bktName)
	assert.NoError(t, err)
	sort.Strings(allKeys)
	sort.Strings(keys)
	assert.Equal(t, keys, allKeys)

	// test Delete
	for i := 0; i < keyNum; i++ {
		err = db.Delete(bktName, keys[i])
		assert.NoError(t, err)
	}
	for i := 0; i < keyNum; i++ {
		_, err = db.Get(bktName, keys[i])
		assert.Equal(t, schema.ErrNotExist, err)
	}
}
