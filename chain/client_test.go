package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexNumber(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"0x0", 0, false},
		{"0x64", 100, false},
		{"0x1a2b3c", 1715004, false},
		{"64", 100, false},
		{"0x", 0, true},
		{"", 0, true},
		{"0xzz", 0, true},
	}
	for _, c := range cases {
		got, err := ParseHexNumber(c.in)
		if c.wantErr {
			assert.Error(t, err, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func wsTestServer(t *testing.T, handler func(conn *websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsUrl(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestCurrentBlockNumber(t *testing.T) {
	srv := wsTestServer(t, func(conn *websocket.Conn) {
		var req rpcRequest
		require.NoError(t, conn.ReadJSON(&req))
		assert.Equal(t, headerMethod, req.Method)
		resp := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":{"number":"0x6f"}}`, req.Id)
		conn.WriteMessage(websocket.TextMessage, []byte(resp))
	})

	c := NewClient(wsUrl(srv))
	num, err := c.CurrentBlockNumber()
	require.NoError(t, err)
	assert.Equal(t, int64(111), num)
}

func TestCurrentBlockNumberRpcError(t *testing.T) {
	srv := wsTestServer(t, func(conn *websocket.Conn) {
		var req rpcRequest
		require.NoError(t, conn.ReadJSON(&req))
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
	})

	c := NewClient(wsUrl(srv))
	_, err := c.CurrentBlockNumber()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method not found")
}

func TestSubscribeNewHeads(t *testing.T) {
	srv := wsTestServer(t, func(conn *websocket.Conn) {
		var req rpcRequest
		require.NoError(t, conn.ReadJSON(&req))
		assert.Equal(t, subscribeMethod, req.Method)
		// subscription ack, then two heads
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"jsonrpc":"2.0","id":1,"result":"sub-1"}`))
		for _, head := range []string{"0x64", "0x65"} {
			notif := map[string]interface{}{
				"jsonrpc": "2.0",
				"method":  "chain_newHead",
				"params": map[string]interface{}{
					"subscription": "sub-1",
					"result":       map[string]string{"number": head},
				},
			}
			data, _ := json.Marshal(notif)
			conn.WriteMessage(websocket.TextMessage, data)
		}
		// keep the connection open until the client goes away
		conn.ReadMessage()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := NewClient(wsUrl(srv))
	heads, err := c.SubscribeNewHeads(ctx)
	require.NoError(t, err)

	got := make([]int64, 0, 2)
	timeout := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case head := <-heads:
			got = append(got, head)
		case <-timeout:
			t.Fatalf("timed out waiting for heads, have %v", got)
		}
	}
	assert.Equal(t, []int64{100, 101}, got)
}

func TestSubscribeNewHeadsBadUrl(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/rpc")
	_, err := c.SubscribeNewHeads(context.Background())
	require.Error(t, err)
}
