// Package model defines the derived entity kinds maintained by the indexer.
// All prices, volumes, fees, and averages use shopspring/decimal — never
// float64 for money. Token ids and total supply are arbitrary-precision
// on-chain integers and use *big.Int.
package model

import (
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// ZeroAddress is the sentinel seller for tokens without an active listing.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// Ask order types recorded in the order log.
const (
	OrderTypeNew    = "New"
	OrderTypeCancel = "Cancel"
	OrderTypeModify = "Modify"
)

// Collection is the per-contract marketplace state. Keyed by the
// lower-case hex contract address.
type Collection struct {
	ID                 string          `json:"id" db:"id"`
	Name               string          `json:"name" db:"name"`
	Symbol             string          `json:"symbol" db:"symbol"`
	Active             bool            `json:"active" db:"active"`
	TotalTrades        int64           `json:"total_trades" db:"total_trades"`
	TotalSupply        *big.Int        `json:"total_supply" db:"total_supply"` // nil when the lookup failed
	TotalVolumeToken   decimal.Decimal `json:"total_volume_token" db:"total_volume_token"`
	NumberTokensListed int64           `json:"number_tokens_listed" db:"number_tokens_listed"`
	CreatorAddress     string          `json:"creator_address" db:"creator_address"`
	TradingFee         decimal.Decimal `json:"trading_fee" db:"trading_fee"` // percent
	CreatorFee         decimal.Decimal `json:"creator_fee" db:"creator_fee"` // percent
	WhitelistChecker   string          `json:"whitelist_checker" db:"whitelist_checker"`
}

// NFT is the per-token state within a collection. Keyed by
// "{collection}-{tokenID}" (see NFTID).
type NFT struct {
	ID                       string          `json:"id" db:"id"`
	TokenID                  *big.Int        `json:"token_id" db:"token_id"`
	Collection               string          `json:"collection" db:"collection"`
	TokenAddress             string          `json:"token_address" db:"token_address"`
	MetadataURL              *string         `json:"metadata_url" db:"metadata_url"` // nil when the lookup failed
	UpdatedAt                int64           `json:"updated_at" db:"updated_at"`
	CurrentAskPrice          decimal.Decimal `json:"current_ask_price" db:"current_ask_price"`
	CurrentSeller            string          `json:"current_seller" db:"current_seller"`
	LatestTradedPriceInToken decimal.Decimal `json:"latest_traded_price_in_token" db:"latest_traded_price_in_token"`
	TradeVolumeToken         decimal.Decimal `json:"trade_volume_token" db:"trade_volume_token"`
	TotalTrades              int64           `json:"total_trades" db:"total_trades"`
	IsTradable               bool            `json:"is_tradable" db:"is_tradable"`
}

// User is the per-wallet running statistics. Keyed by the lower-case hex
// wallet address. The averages are always volume/count derived from the
// two persisted totals, never accumulated independently.
type User struct {
	ID                                string          `json:"id" db:"id"`
	NumberTokensListed                int64           `json:"number_tokens_listed" db:"number_tokens_listed"`
	NumberTokensPurchased             int64           `json:"number_tokens_purchased" db:"number_tokens_purchased"`
	NumberTokensSold                  int64           `json:"number_tokens_sold" db:"number_tokens_sold"`
	TokenAddress                      string          `json:"token_address" db:"token_address"`
	TotalVolumeInTokensPurchased      decimal.Decimal `json:"total_volume_in_tokens_purchased" db:"total_volume_in_tokens_purchased"`
	TotalVolumeInTokensSold           decimal.Decimal `json:"total_volume_in_tokens_sold" db:"total_volume_in_tokens_sold"`
	TotalFeesCollectedInToken         decimal.Decimal `json:"total_fees_collected_in_token" db:"total_fees_collected_in_token"`
	AverageTokenPriceInTokenPurchased decimal.Decimal `json:"average_token_price_in_token_purchased" db:"average_token_price_in_token_purchased"`
	AverageTokenPriceInTokenSold      decimal.Decimal `json:"average_token_price_in_token_sold" db:"average_token_price_in_token_sold"`
}

// AskOrder is an immutable log record of a listing action. Keyed by the
// transaction hash; once created it is never modified or deleted.
type AskOrder struct {
	ID           string          `json:"id" db:"id"`
	Block        int64           `json:"block" db:"block"`
	Timestamp    int64           `json:"timestamp" db:"timestamp"`
	Collection   string          `json:"collection" db:"collection"`
	NFT          string          `json:"nft" db:"nft"`
	OrderType    string          `json:"order_type" db:"order_type"` // "New", "Cancel", "Modify"
	AskPrice     decimal.Decimal `json:"ask_price" db:"ask_price"`
	TokenAddress string          `json:"token_address" db:"token_address"`
	Seller       string          `json:"seller" db:"seller"`
}

// Transaction is an immutable log record of an executed trade. Keyed by
// the transaction hash; once created it is never modified or deleted.
type Transaction struct {
	ID           string          `json:"id" db:"id"`
	Block        int64           `json:"block" db:"block"`
	Timestamp    int64           `json:"timestamp" db:"timestamp"`
	Collection   string          `json:"collection" db:"collection"`
	NFT          string          `json:"nft" db:"nft"`
	AskPrice     decimal.Decimal `json:"ask_price" db:"ask_price"` // gross, paid by buyer
	NetPrice     decimal.Decimal `json:"net_price" db:"net_price"` // received by seller after fees
	Buyer        string          `json:"buyer" db:"buyer"`
	Seller       string          `json:"seller" db:"seller"`
	TokenAddress string          `json:"token_address" db:"token_address"`
}

// CollectionDayData is the daily rollup for one collection. Keyed by
// "{dayID}-{collection}" (see CollectionDayID).
type CollectionDayData struct {
	ID               string          `json:"id" db:"id"`
	Date             int64           `json:"date" db:"date"` // bucket start, unix seconds
	Collection       string          `json:"collection" db:"collection"`
	DailyVolumeToken decimal.Decimal `json:"daily_volume_token" db:"daily_volume_token"`
	DailyTrades      int64           `json:"daily_trades" db:"daily_trades"`
}

// MarketPlaceDayData is the marketplace-wide daily rollup. Keyed by the
// decimal day id.
type MarketPlaceDayData struct {
	ID               string          `json:"id" db:"id"`
	Date             int64           `json:"date" db:"date"`
	DailyVolumeToken decimal.Decimal `json:"daily_volume_token" db:"daily_volume_token"`
	DailyTrades      int64           `json:"daily_trades" db:"daily_trades"`
}

// NFTID derives the token entity key: lower-case hex collection address
// and decimal token id joined by a hyphen. The read path depends on this
// exact format.
func NFTID(collection string, tokenID *big.Int) string {
	return collection + "-" + tokenID.String()
}

// CollectionDayID derives the per-collection rollup key.
func CollectionDayID(dayID int64, collection string) string {
	return strconv.FormatInt(dayID, 10) + "-" + collection
}
