package store

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/metasports/market-indexer/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of
// truth. All monetary values are stored as NUMERIC for exact decimal
// precision; token ids and total supply are NUMERIC as well (uint256
// does not fit in BIGINT).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// --- Collections ---

func (s *PostgresStore) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	var c model.Collection
	var totalSupply *string
	var totalVolume, tradingFee, creatorFee string

	err := s.pool.QueryRow(ctx,
		`SELECT id, name, symbol, active, total_trades,
		        total_supply::TEXT, total_volume_token::TEXT,
		        number_tokens_listed, creator_address,
		        trading_fee::TEXT, creator_fee::TEXT, whitelist_checker
		 FROM collections WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Symbol, &c.Active, &c.TotalTrades,
			&totalSupply, &totalVolume,
			&c.NumberTokensListed, &c.CreatorAddress,
			&tradingFee, &creatorFee, &c.WhitelistChecker)
	if err != nil {
		return nil, wrapNotFound(fmt.Errorf("get collection %s: %w", id, err))
	}

	c.TotalSupply = parseNullBigInt(totalSupply)
	c.TotalVolumeToken = mustDecimal(totalVolume)
	c.TradingFee = mustDecimal(tradingFee)
	c.CreatorFee = mustDecimal(creatorFee)

	return &c, nil
}

func (s *PostgresStore) PutCollection(ctx context.Context, c *model.Collection) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO collections (id, name, symbol, active, total_trades, total_supply,
		                          total_volume_token, number_tokens_listed, creator_address,
		                          trading_fee, creator_fee, whitelist_checker)
		 VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7::NUMERIC, $8, $9, $10::NUMERIC, $11::NUMERIC, $12)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name, symbol = EXCLUDED.symbol, active = EXCLUDED.active,
		   total_trades = EXCLUDED.total_trades, total_supply = EXCLUDED.total_supply,
		   total_volume_token = EXCLUDED.total_volume_token,
		   number_tokens_listed = EXCLUDED.number_tokens_listed,
		   creator_address = EXCLUDED.creator_address,
		   trading_fee = EXCLUDED.trading_fee, creator_fee = EXCLUDED.creator_fee,
		   whitelist_checker = EXCLUDED.whitelist_checker`,
		c.ID, c.Name, c.Symbol, c.Active, c.TotalTrades, bigIntString(c.TotalSupply),
		c.TotalVolumeToken.String(), c.NumberTokensListed, c.CreatorAddress,
		c.TradingFee.String(), c.CreatorFee.String(), c.WhitelistChecker,
	)
	return err
}

func (s *PostgresStore) ListCollections(ctx context.Context) ([]model.Collection, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, symbol, active, total_trades,
		        total_supply::TEXT, total_volume_token::TEXT,
		        number_tokens_listed, creator_address,
		        trading_fee::TEXT, creator_fee::TEXT, whitelist_checker
		 FROM collections ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []model.Collection
	for rows.Next() {
		var c model.Collection
		var totalSupply *string
		var totalVolume, tradingFee, creatorFee string
		if err := rows.Scan(&c.ID, &c.Name, &c.Symbol, &c.Active, &c.TotalTrades,
			&totalSupply, &totalVolume,
			&c.NumberTokensListed, &c.CreatorAddress,
			&tradingFee, &creatorFee, &c.WhitelistChecker); err != nil {
			return nil, err
		}
		c.TotalSupply = parseNullBigInt(totalSupply)
		c.TotalVolumeToken = mustDecimal(totalVolume)
		c.TradingFee = mustDecimal(tradingFee)
		c.CreatorFee = mustDecimal(creatorFee)
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

// --- NFTs ---

func (s *PostgresStore) GetNFT(ctx context.Context, id string) (*model.NFT, error) {
	var n model.NFT
	var tokenID string
	var askPrice, latestPrice, tradeVolume string

	err := s.pool.QueryRow(ctx,
		`SELECT id, token_id::TEXT, collection, token_address, metadata_url, updated_at,
		        current_ask_price::TEXT, current_seller,
		        latest_traded_price_in_token::TEXT, trade_volume_token::TEXT,
		        total_trades, is_tradable
		 FROM nfts WHERE id = $1`, id).
		Scan(&n.ID, &tokenID, &n.Collection, &n.TokenAddress, &n.MetadataURL, &n.UpdatedAt,
			&askPrice, &n.CurrentSeller,
			&latestPrice, &tradeVolume,
			&n.TotalTrades, &n.IsTradable)
	if err != nil {
		return nil, wrapNotFound(fmt.Errorf("get nft %s: %w", id, err))
	}

	n.TokenID = parseNullBigInt(&tokenID)
	n.CurrentAskPrice = mustDecimal(askPrice)
	n.LatestTradedPriceInToken = mustDecimal(latestPrice)
	n.TradeVolumeToken = mustDecimal(tradeVolume)

	return &n, nil
}

func (s *PostgresStore) PutNFT(ctx context.Context, n *model.NFT) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO nfts (id, token_id, collection, token_address, metadata_url, updated_at,
		                   current_ask_price, current_seller, latest_traded_price_in_token,
		                   trade_volume_token, total_trades, is_tradable)
		 VALUES ($1, $2::NUMERIC, $3, $4, $5, $6, $7::NUMERIC, $8, $9::NUMERIC, $10::NUMERIC, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
		   token_address = EXCLUDED.token_address, metadata_url = EXCLUDED.metadata_url,
		   updated_at = EXCLUDED.updated_at, current_ask_price = EXCLUDED.current_ask_price,
		   current_seller = EXCLUDED.current_seller,
		   latest_traded_price_in_token = EXCLUDED.latest_traded_price_in_token,
		   trade_volume_token = EXCLUDED.trade_volume_token,
		   total_trades = EXCLUDED.total_trades, is_tradable = EXCLUDED.is_tradable`,
		n.ID, bigIntString(n.TokenID), n.Collection, n.TokenAddress, n.MetadataURL, n.UpdatedAt,
		n.CurrentAskPrice.String(), n.CurrentSeller, n.LatestTradedPriceInToken.String(),
		n.TradeVolumeToken.String(), n.TotalTrades, n.IsTradable,
	)
	return err
}

func (s *PostgresStore) ListNFTsByCollection(ctx context.Context, collection string) ([]model.NFT, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, token_id::TEXT, collection, token_address, metadata_url, updated_at,
		        current_ask_price::TEXT, current_seller,
		        latest_traded_price_in_token::TEXT, trade_volume_token::TEXT,
		        total_trades, is_tradable
		 FROM nfts WHERE collection = $1 ORDER BY token_id`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nfts []model.NFT
	for rows.Next() {
		var n model.NFT
		var tokenID string
		var askPrice, latestPrice, tradeVolume string
		if err := rows.Scan(&n.ID, &tokenID, &n.Collection, &n.TokenAddress, &n.MetadataURL, &n.UpdatedAt,
			&askPrice, &n.CurrentSeller,
			&latestPrice, &tradeVolume,
			&n.TotalTrades, &n.IsTradable); err != nil {
			return nil, err
		}
		n.TokenID = parseNullBigInt(&tokenID)
		n.CurrentAskPrice = mustDecimal(askPrice)
		n.LatestTradedPriceInToken = mustDecimal(latestPrice)
		n.TradeVolumeToken = mustDecimal(tradeVolume)
		nfts = append(nfts, n)
	}
	return nfts, rows.Err()
}

// --- Users ---

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	var volPurchased, volSold, fees, avgPurchased, avgSold string

	err := s.pool.QueryRow(ctx,
		`SELECT id, number_tokens_listed, number_tokens_purchased, number_tokens_sold,
		        token_address,
		        total_volume_in_tokens_purchased::TEXT, total_volume_in_tokens_sold::TEXT,
		        total_fees_collected_in_token::TEXT,
		        average_token_price_in_token_purchased::TEXT,
		        average_token_price_in_token_sold::TEXT
		 FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.NumberTokensListed, &u.NumberTokensPurchased, &u.NumberTokensSold,
			&u.TokenAddress,
			&volPurchased, &volSold, &fees, &avgPurchased, &avgSold)
	if err != nil {
		return nil, wrapNotFound(fmt.Errorf("get user %s: %w", id, err))
	}

	u.TotalVolumeInTokensPurchased = mustDecimal(volPurchased)
	u.TotalVolumeInTokensSold = mustDecimal(volSold)
	u.TotalFeesCollectedInToken = mustDecimal(fees)
	u.AverageTokenPriceInTokenPurchased = mustDecimal(avgPurchased)
	u.AverageTokenPriceInTokenSold = mustDecimal(avgSold)

	return &u, nil
}

func (s *PostgresStore) PutUser(ctx context.Context, u *model.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, number_tokens_listed, number_tokens_purchased, number_tokens_sold,
		                    token_address, total_volume_in_tokens_purchased,
		                    total_volume_in_tokens_sold, total_fees_collected_in_token,
		                    average_token_price_in_token_purchased, average_token_price_in_token_sold)
		 VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7::NUMERIC, $8::NUMERIC, $9::NUMERIC, $10::NUMERIC)
		 ON CONFLICT (id) DO UPDATE SET
		   number_tokens_listed = EXCLUDED.number_tokens_listed,
		   number_tokens_purchased = EXCLUDED.number_tokens_purchased,
		   number_tokens_sold = EXCLUDED.number_tokens_sold,
		   token_address = EXCLUDED.token_address,
		   total_volume_in_tokens_purchased = EXCLUDED.total_volume_in_tokens_purchased,
		   total_volume_in_tokens_sold = EXCLUDED.total_volume_in_tokens_sold,
		   total_fees_collected_in_token = EXCLUDED.total_fees_collected_in_token,
		   average_token_price_in_token_purchased = EXCLUDED.average_token_price_in_token_purchased,
		   average_token_price_in_token_sold = EXCLUDED.average_token_price_in_token_sold`,
		u.ID, u.NumberTokensListed, u.NumberTokensPurchased, u.NumberTokensSold,
		u.TokenAddress, u.TotalVolumeInTokensPurchased.String(),
		u.TotalVolumeInTokensSold.String(), u.TotalFeesCollectedInToken.String(),
		u.AverageTokenPriceInTokenPurchased.String(), u.AverageTokenPriceInTokenSold.String(),
	)
	return err
}

// --- Immutable logs ---

func (s *PostgresStore) InsertAskOrder(ctx context.Context, o *model.AskOrder) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ask_orders (id, block, timestamp, collection, nft, order_type,
		                         ask_price, token_address, seller)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC, $8, $9)`,
		o.ID, o.Block, o.Timestamp, o.Collection, o.NFT, o.OrderType,
		o.AskPrice.String(), o.TokenAddress, o.Seller,
	)
	return err
}

func (s *PostgresStore) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transactions (id, block, timestamp, collection, nft,
		                           ask_price, net_price, buyer, seller, token_address)
		 VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7::NUMERIC, $8, $9, $10)`,
		t.ID, t.Block, t.Timestamp, t.Collection, t.NFT,
		t.AskPrice.String(), t.NetPrice.String(), t.Buyer, t.Seller, t.TokenAddress,
	)
	return err
}

func (s *PostgresStore) ListTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, block, timestamp, collection, nft,
		        ask_price::TEXT, net_price::TEXT, buyer, seller, token_address
		 FROM transactions ORDER BY timestamp DESC, block DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var askPrice, netPrice string
		if err := rows.Scan(&t.ID, &t.Block, &t.Timestamp, &t.Collection, &t.NFT,
			&askPrice, &netPrice, &t.Buyer, &t.Seller, &t.TokenAddress); err != nil {
			return nil, err
		}
		t.AskPrice = mustDecimal(askPrice)
		t.NetPrice = mustDecimal(netPrice)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// --- Daily rollups ---

func (s *PostgresStore) GetCollectionDayData(ctx context.Context, id string) (*model.CollectionDayData, error) {
	var d model.CollectionDayData
	var volume string

	err := s.pool.QueryRow(ctx,
		`SELECT id, date, collection, daily_volume_token::TEXT, daily_trades
		 FROM collection_day_data WHERE id = $1`, id).
		Scan(&d.ID, &d.Date, &d.Collection, &volume, &d.DailyTrades)
	if err != nil {
		return nil, wrapNotFound(fmt.Errorf("get collection day data %s: %w", id, err))
	}

	d.DailyVolumeToken = mustDecimal(volume)
	return &d, nil
}

func (s *PostgresStore) PutCollectionDayData(ctx context.Context, d *model.CollectionDayData) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO collection_day_data (id, date, collection, daily_volume_token, daily_trades)
		 VALUES ($1, $2, $3, $4::NUMERIC, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   daily_volume_token = EXCLUDED.daily_volume_token,
		   daily_trades = EXCLUDED.daily_trades`,
		d.ID, d.Date, d.Collection, d.DailyVolumeToken.String(), d.DailyTrades,
	)
	return err
}

func (s *PostgresStore) ListCollectionDayData(ctx context.Context, collection string) ([]model.CollectionDayData, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, date, collection, daily_volume_token::TEXT, daily_trades
		 FROM collection_day_data WHERE collection = $1 ORDER BY date`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CollectionDayData
	for rows.Next() {
		var d model.CollectionDayData
		var volume string
		if err := rows.Scan(&d.ID, &d.Date, &d.Collection, &volume, &d.DailyTrades); err != nil {
			return nil, err
		}
		d.DailyVolumeToken = mustDecimal(volume)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetMarketPlaceDayData(ctx context.Context, id string) (*model.MarketPlaceDayData, error) {
	var d model.MarketPlaceDayData
	var volume string

	err := s.pool.QueryRow(ctx,
		`SELECT id, date, daily_volume_token::TEXT, daily_trades
		 FROM market_place_day_data WHERE id = $1`, id).
		Scan(&d.ID, &d.Date, &volume, &d.DailyTrades)
	if err != nil {
		return nil, wrapNotFound(fmt.Errorf("get marketplace day data %s: %w", id, err))
	}

	d.DailyVolumeToken = mustDecimal(volume)
	return &d, nil
}

func (s *PostgresStore) PutMarketPlaceDayData(ctx context.Context, d *model.MarketPlaceDayData) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO market_place_day_data (id, date, daily_volume_token, daily_trades)
		 VALUES ($1, $2, $3::NUMERIC, $4)
		 ON CONFLICT (id) DO UPDATE SET
		   daily_volume_token = EXCLUDED.daily_volume_token,
		   daily_trades = EXCLUDED.daily_trades`,
		d.ID, d.Date, d.DailyVolumeToken.String(), d.DailyTrades,
	)
	return err
}

func (s *PostgresStore) ListMarketPlaceDayData(ctx context.Context) ([]model.MarketPlaceDayData, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, date, daily_volume_token::TEXT, daily_trades
		 FROM market_place_day_data ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MarketPlaceDayData
	for rows.Next() {
		var d model.MarketPlaceDayData
		var volume string
		if err := rows.Scan(&d.ID, &d.Date, &volume, &d.DailyTrades); err != nil {
			return nil, err
		}
		d.DailyVolumeToken = mustDecimal(volume)
		out = append(out, d)
	}
	return out, rows.Err()
}

// --- Scan helpers ---

func mustDecimal(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func parseNullBigInt(s *string) *big.Int {
	if s == nil {
		return nil
	}
	v, ok := new(big.Int).SetString(*s, 10)
	if !ok {
		return nil
	}
	return v
}

func bigIntString(v *big.Int) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

// wrapNotFound maps pgx's missing-row error to the store sentinel.
func wrapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
