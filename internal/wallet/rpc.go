package wallet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RPCClient talks to monero-wallet-rpc over JSON-RPC 2.0. It is the only
// concrete Client; everything else in the repo depends on the interface.
type RPCClient struct {
	url        string
	httpClient *http.Client
}

func NewRPCClient(url string) *RPCClient {
	return &RPCClient{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *RPCClient) call(method string, params, result interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: "0", Method: method, Params: params})
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(c.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("wallet rpc %s: %v", method, err)
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("wallet rpc %s: decode: %v", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("wallet rpc %s: %s (%d)", method, rpcResp.Error.Message, rpcResp.Error.Code)
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("wallet rpc %s: result: %v", method, err)
		}
	}
	return nil
}

func (c *RPCClient) GetBalance() (Balance, error) {
	var res Balance
	err := c.call("get_balance", map[string]interface{}{"account_index": 0}, &res)
	return res, err
}

func (c *RPCClient) CreateAddress() (Address, error) {
	var res Address
	err := c.call("create_address", map[string]interface{}{"account_index": 0}, &res)
	return res, err
}

type transferEntry struct {
	TxID         string `json:"txid"`
	Amount       int64  `json:"amount"`
	Height       int64  `json:"height"`
	Locked       bool   `json:"locked"`
	SubaddrIndex struct {
		Major uint64 `json:"major"`
		Minor uint64 `json:"minor"`
	} `json:"subaddr_index"`
}

func (c *RPCClient) IncomingTransfers(minHeight int64) ([]IncomingTransfer, error) {
	var res struct {
		In []transferEntry `json:"in"`
	}
	params := map[string]interface{}{
		"in":               true,
		"filter_by_height": true,
		"min_height":       minHeight,
	}
	if err := c.call("get_transfers", params, &res); err != nil {
		return nil, err
	}

	transfers := make([]IncomingTransfer, 0, len(res.In))
	for _, e := range res.In {
		transfers = append(transfers, IncomingTransfer{
			TxHash:       e.TxID,
			AddressIndex: e.SubaddrIndex.Minor,
			Amount:       e.Amount,
			BlockHeight:  e.Height,
			Unlocked:     !e.Locked,
		})
	}
	return transfers, nil
}

func (c *RPCClient) Transfer(address string, amount int64) (TransferResult, error) {
	var res struct {
		TxHash string `json:"tx_hash"`
		Fee    int64  `json:"fee"`
	}
	params := map[string]interface{}{
		"destinations": []map[string]interface{}{
			{"amount": amount, "address": address},
		},
		"get_tx_key": true,
	}
	if err := c.call("transfer", params, &res); err != nil {
		return TransferResult{}, err
	}
	return TransferResult{TxHash: res.TxHash, Fee: res.Fee}, nil
}

var _ Client = (*RPCClient)(nil)
