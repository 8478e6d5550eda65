// Package event defines the decoded marketplace events consumed by the
// projection engine, plus address and transaction-hash validation.
//
// Events are assumed already decoded, ordered, and finalized by the
// upstream delivery pipeline; this package only describes their shape.
package event

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// Event kinds, matching the marketplace contract's emissions.
const (
	TypeCollectionNew    = "CollectionNew"
	TypeCollectionClose  = "CollectionClose"
	TypeCollectionUpdate = "CollectionUpdate"
	TypeAskNew           = "AskNew"
	TypeAskCancel        = "AskCancel"
	TypeAskUpdate        = "AskUpdate"
	TypeTrade            = "Trade"
	TypeRevenueClaim     = "RevenueClaim"
)

var (
	ErrInvalidAddress = errors.New("event: invalid address")
	ErrInvalidHash    = errors.New("event: invalid transaction hash")
)

// addressRegex matches a 20-byte hex address: 0x + 40 hex chars.
var addressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// hashRegex matches a 32-byte transaction hash: 0x + 64 hex chars.
var hashRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// ParseAddress validates a hex address and normalizes it to lower case.
// Every entity key derived from an address goes through this, so two
// differently-cased spellings of one address always resolve to the same
// record.
func ParseAddress(s string) (string, error) {
	if !addressRegex.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return strings.ToLower(s), nil
}

// ParseHash validates a transaction hash and normalizes it to lower case.
func ParseHash(s string) (string, error) {
	if !hashRegex.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHash, s)
	}
	return strings.ToLower(s), nil
}

// Meta carries the fields common to every event: the emitting collection
// address and the block/transaction context.
type Meta struct {
	Collection string // lower-case hex address
	Block      int64
	Timestamp  int64 // block timestamp, unix seconds
	TxHash     string
}

// Hash returns the event's transaction hash.
func (m Meta) Hash() string { return m.TxHash }

// Event is implemented by all decoded event kinds.
type Event interface {
	Type() string
	Hash() string
}

// CollectionNew registers (or re-registers) a collection with the
// marketplace. A later CollectionNew for a known collection updates its
// terms.
type CollectionNew struct {
	Meta
	Creator          string
	TradingFee       *big.Int // basis points, scale 2
	CreatorFee       *big.Int // basis points, scale 2
	WhitelistChecker string
}

// CollectionClose delists a collection from the marketplace.
type CollectionClose struct {
	Meta
}

// CollectionUpdate changes a registered collection's terms.
type CollectionUpdate struct {
	Meta
	Creator          string
	TradingFee       *big.Int
	CreatorFee       *big.Int
	WhitelistChecker string
}

// AskNew lists a token for sale at a fixed ask price.
type AskNew struct {
	Meta
	Seller       string
	TokenID      *big.Int
	AskPrice     *big.Int // raw 18-decimal amount
	TokenAddress string
}

// AskCancel withdraws a standing listing.
type AskCancel struct {
	Meta
	Seller  string
	TokenID *big.Int
}

// AskUpdate changes the price of a standing listing.
type AskUpdate struct {
	Meta
	Seller       string
	TokenID      *big.Int
	AskPrice     *big.Int
	TokenAddress string
}

// Trade executes a listing: the buyer pays the ask price and the seller
// receives the net price after marketplace and creator fees.
type Trade struct {
	Meta
	Buyer        string
	Seller       string
	TokenID      *big.Int
	AskPrice     *big.Int // gross, raw 18-decimal amount
	NetPrice     *big.Int // after fees, raw 18-decimal amount
	TokenAddress string
}

// RevenueClaim pays out accumulated fees to a creator or treasury wallet.
type RevenueClaim struct {
	Meta
	Claimer      string
	Amount       *big.Int // raw 18-decimal amount
	TokenAddress string
}

func (CollectionNew) Type() string    { return TypeCollectionNew }
func (CollectionClose) Type() string  { return TypeCollectionClose }
func (CollectionUpdate) Type() string { return TypeCollectionUpdate }
func (AskNew) Type() string           { return TypeAskNew }
func (AskCancel) Type() string        { return TypeAskCancel }
func (AskUpdate) Type() string        { return TypeAskUpdate }
func (Trade) Type() string            { return TypeTrade }
func (RevenueClaim) Type() string     { return TypeRevenueClaim }
