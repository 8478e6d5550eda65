package erc721

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/metasports/market-indexer/internal/metrics"
)

// Function selectors for the ERC-721 read-only methods.
const (
	selectorName        = "0x06fdde03" // name()
	selectorSymbol      = "0x95d89b41" // symbol()
	selectorTotalSupply = "0x18160ddd" // totalSupply()
	selectorTokenURI    = "0xc87b56dd" // tokenURI(uint256)
)

var errEmptyResult = errors.New("erc721: empty call result")

// RPCResolver performs eth_call JSON-RPC requests against an Ethereum
// node. Failures are logged, counted, and converted to fallbacks.
type RPCResolver struct {
	client *resty.Client
	url    string
}

// NewRPCResolver creates a resolver against the given JSON-RPC endpoint.
func NewRPCResolver(url string) *RPCResolver {
	client := resty.New()
	client.SetTimeout(10 * time.Second)

	return &RPCResolver{
		client: client,
		url:    url,
	}
}

func (r *RPCResolver) Name(ctx context.Context, collection string) string {
	data, err := r.call(ctx, collection, selectorName)
	if err != nil {
		r.fail("name", collection, err)
		return FallbackName
	}
	s, err := decodeABIString(data)
	if err != nil {
		r.fail("name", collection, err)
		return FallbackName
	}
	return s
}

func (r *RPCResolver) Symbol(ctx context.Context, collection string) string {
	data, err := r.call(ctx, collection, selectorSymbol)
	if err != nil {
		r.fail("symbol", collection, err)
		return FallbackName
	}
	s, err := decodeABIString(data)
	if err != nil {
		r.fail("symbol", collection, err)
		return FallbackName
	}
	return s
}

func (r *RPCResolver) TotalSupply(ctx context.Context, collection string) *big.Int {
	data, err := r.call(ctx, collection, selectorTotalSupply)
	if err != nil {
		r.fail("totalSupply", collection, err)
		return nil
	}
	v, err := decodeABIUint(data)
	if err != nil {
		r.fail("totalSupply", collection, err)
		return nil
	}
	return v
}

func (r *RPCResolver) TokenURI(ctx context.Context, collection string, tokenID *big.Int) *string {
	calldata := selectorTokenURI + fmt.Sprintf("%064x", tokenID)
	data, err := r.call(ctx, collection, calldata)
	if err != nil {
		r.fail("tokenURI", collection, err)
		return nil
	}
	s, err := decodeABIString(data)
	if err != nil {
		r.fail("tokenURI", collection, err)
		return nil
	}
	return &s
}

// --- JSON-RPC plumbing ---

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result string    `json:"result"`
	Error  *rpcError `json:"error"`
}

// call performs an eth_call against the collection contract and returns
// the decoded result bytes.
func (r *RPCResolver) call(ctx context.Context, to, calldata string) ([]byte, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_call",
		Params: []any{
			map[string]string{"to": to, "data": calldata},
			"latest",
		},
	}

	var rpcResp rpcResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&rpcResp).
		Post(r.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("erc721: rpc status %d", resp.StatusCode())
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("erc721: rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	raw := strings.TrimPrefix(rpcResp.Result, "0x")
	if raw == "" {
		return nil, errEmptyResult
	}
	return hex.DecodeString(raw)
}

func (r *RPCResolver) fail(method, collection string, err error) {
	metrics.MetadataLookupFailures.WithLabelValues(method).Inc()
	slog.Debug("metadata lookup failed",
		"method", method,
		"collection", collection,
		"err", err,
	)
}

// --- ABI decoding ---

// decodeABIString decodes a single dynamic string return value:
// 32-byte offset, then 32-byte length, then the bytes. The offset and
// length words come from an untrusted node response, so both are range
// checked before they touch uint64 arithmetic — naive `offset+32` style
// comparisons would wrap for words near 2^64.
func decodeABIString(b []byte) (string, error) {
	if len(b) < 64 {
		return "", fmt.Errorf("erc721: string result too short (%d bytes)", len(b))
	}
	offsetWord := new(big.Int).SetBytes(b[:32])
	if !offsetWord.IsUint64() || offsetWord.Uint64() > uint64(len(b))-32 {
		return "", errors.New("erc721: string offset out of range")
	}
	offset := offsetWord.Uint64()
	lengthWord := new(big.Int).SetBytes(b[offset : offset+32])
	if !lengthWord.IsUint64() || lengthWord.Uint64() > uint64(len(b))-32-offset {
		return "", errors.New("erc721: string length out of range")
	}
	length := lengthWord.Uint64()
	return string(b[offset+32 : offset+32+length]), nil
}

// decodeABIUint decodes a single uint256 return value.
func decodeABIUint(b []byte) (*big.Int, error) {
	if len(b) < 32 {
		return nil, fmt.Errorf("erc721: uint result too short (%d bytes)", len(b))
	}
	return new(big.Int).SetBytes(b[:32]), nil
}
