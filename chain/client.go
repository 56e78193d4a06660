// Package chain is the thin boundary to the substrate node rpc: a
// new-heads subscription plus a current-height query. Everything else
// this service learns about the chain comes from the indexer.
package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

const (
	subscribeMethod = "chain_subscribeNewHeads"
	headerMethod    = "chain_getHeader"

	dialTimeout    = 10 * time.Second
	readTimeout    = 60 * time.Second
	reconnectDelay = 5 * time.Second
)

type rpcRequest struct {
	Id      int           `json:"id"`
	Jsonrpc string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type Client struct {
	wsUrl string
}

func NewClient(wsUrl string) *Client {
	return &Client{wsUrl: wsUrl}
}

// SubscribeNewHeads delivers the block number of every new head on the
// returned channel until ctx is cancelled. The connection is re-dialed
// on failure; subscription gaps across reconnects are acceptable since
// the watcher only needs a steady supply of recent heights.
func (c *Client) SubscribeNewHeads(ctx context.Context) (<-chan int64, error) {
	// dial once up front so a bad url fails fast
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}

	heads := make(chan int64, 16)
	go func() {
		defer close(heads)
		for {
			if conn == nil {
				select {
				case <-ctx.Done():
					return
				case <-time.After(reconnectDelay):
				}
				conn, err = c.dial()
				if err != nil {
					conn = nil
					continue
				}
			}
			if err := c.readHeads(ctx, conn, heads); err != nil {
				conn.Close()
				conn = nil
			}
			select {
			case <-ctx.Done():
				if conn != nil {
					conn.Close()
				}
				return
			default:
			}
		}
	}()
	return heads, nil
}

func (c *Client) dial() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(c.wsUrl, nil)
	if err != nil {
		return nil, err
	}
	req := rpcRequest{Id: 1, Jsonrpc: "2.0", Method: subscribeMethod, Params: []interface{}{}}
	if err := conn.WriteJSON(&req); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (c *Client) readHeads(ctx context.Context, conn *websocket.Conn, heads chan<- int64) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		root := gjson.ParseBytes(msg)
		numHex := root.Get("params.result.number").String()
		if len(numHex) == 0 {
			// subscription ack or unrelated response
			continue
		}
		num, err := ParseHexNumber(numHex)
		if err != nil {
			continue
		}
		select {
		case heads <- num:
		default:
			// slow consumer; drop, the next head supersedes this one
		}
	}
}

// CurrentBlockNumber asks the node for the latest header height with a
// one-shot request over a fresh connection.
func (c *Client) CurrentBlockNumber() (int64, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(c.wsUrl, nil)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	req := rpcRequest{Id: 1, Jsonrpc: "2.0", Method: headerMethod, Params: []interface{}{}}
	data, err := json.Marshal(&req)
	if err != nil {
		return 0, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return 0, err
	}

	conn.SetReadDeadline(time.Now().Add(dialTimeout))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		root := gjson.ParseBytes(msg)
		if root.Get("id").Int() != 1 {
			continue
		}
		if errMsg := root.Get("error.message"); errMsg.Exists() {
			return 0, fmt.Errorf("chain rpc error: %s", errMsg.String())
		}
		return ParseHexNumber(root.Get("result.number").String())
	}
}

// ParseHexNumber decodes substrate's 0x-prefixed hex block numbers.
func ParseHexNumber(s string) (int64, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if len(trimmed) == 0 {
		return 0, fmt.Errorf("empty block number %q", s)
	}
	n, err := strconv.ParseInt(trimmed, 16, 64)
	if err != nil {
		return 0, err
	}
	return n, nil
}
