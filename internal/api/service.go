// Package api provides the HTTP handlers for event ingest and entity
// queries, plus the WebSocket trade feed.
//
// The upstream delivery pipeline POSTs decoded events in chain order;
// ordering and finality are its responsibility, not ours.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/metasports/market-indexer/internal/event"
	"github.com/metasports/market-indexer/internal/model"
	"github.com/metasports/market-indexer/internal/numeric"
	"github.com/metasports/market-indexer/internal/projection"
	"github.com/metasports/market-indexer/internal/store"
)

// Service handles event ingest and entity queries.
type Service struct {
	store  store.Store
	engine *projection.Engine
}

// NewService creates a new API service.
func NewService(st store.Store, engine *projection.Engine) *Service {
	return &Service{store: st, engine: engine}
}

// --- Ingest wire format ---

// eventEnvelope is the JSON body for POST /api/v1/events.
type eventEnvelope struct {
	Type  string          `json:"type"`
	Event json.RawMessage `json:"event"`
}

// wireMeta carries the common event fields. Amounts and token ids are
// delivered as base-10 strings — uint256 does not fit in a JSON number.
type wireMeta struct {
	Collection string `json:"collection"`
	Block      int64  `json:"block"`
	Timestamp  int64  `json:"timestamp"`
	TxHash     string `json:"tx_hash"`
}

func (w wireMeta) decode() (event.Meta, error) {
	collection, err := event.ParseAddress(w.Collection)
	if err != nil {
		return event.Meta{}, err
	}
	txHash, err := event.ParseHash(w.TxHash)
	if err != nil {
		return event.Meta{}, err
	}
	if w.Timestamp <= 0 {
		return event.Meta{}, fmt.Errorf("invalid timestamp %d", w.Timestamp)
	}
	return event.Meta{
		Collection: collection,
		Block:      w.Block,
		Timestamp:  w.Timestamp,
		TxHash:     txHash,
	}, nil
}

type wireCollectionNew struct {
	wireMeta
	Creator          string `json:"creator"`
	TradingFee       string `json:"trading_fee"`
	CreatorFee       string `json:"creator_fee"`
	WhitelistChecker string `json:"whitelist_checker"`
}

type wireCollectionUpdate = wireCollectionNew

type wireAskNew struct {
	wireMeta
	Seller       string `json:"seller"`
	TokenID      string `json:"token_id"`
	AskPrice     string `json:"ask_price"`
	TokenAddress string `json:"token_address"`
}

type wireAskUpdate = wireAskNew

type wireAskCancel struct {
	wireMeta
	Seller  string `json:"seller"`
	TokenID string `json:"token_id"`
}

type wireTrade struct {
	wireMeta
	Buyer        string `json:"buyer"`
	Seller       string `json:"seller"`
	TokenID      string `json:"token_id"`
	AskPrice     string `json:"ask_price"`
	NetPrice     string `json:"net_price"`
	TokenAddress string `json:"token_address"`
}

type wireRevenueClaim struct {
	wireMeta
	Claimer      string `json:"claimer"`
	Amount       string `json:"amount"`
	TokenAddress string `json:"token_address"`
}

// --- Ingest handler ---

// IngestEvent handles POST /api/v1/events.
// Decodes one event from the envelope and applies it through the
// projection engine.
func (s *Service) IngestEvent(w http.ResponseWriter, r *http.Request) {
	var env eventEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ev, err := decodeEvent(env)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	outcome, err := s.engine.Apply(r.Context(), ev)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, projection.ErrUnknownCollection) ||
			errors.Is(err, projection.ErrUnknownSeller) ||
			errors.Is(err, projection.ErrUnknownToken) {
			status = http.StatusConflict
		}
		writeError(w, err.Error(), status)
		return
	}

	slog.Info("event applied",
		"type", env.Type,
		"tx", ev.Hash(),
		"outcome", outcome.String(),
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"outcome": outcome.String()})
}

// decodeEvent maps an envelope to a typed event with validated,
// normalized fields.
func decodeEvent(env eventEnvelope) (event.Event, error) {
	switch env.Type {
	case event.TypeCollectionNew:
		var w wireCollectionNew
		if err := json.Unmarshal(env.Event, &w); err != nil {
			return nil, err
		}
		meta, err := w.decode()
		if err != nil {
			return nil, err
		}
		creator, err := event.ParseAddress(w.Creator)
		if err != nil {
			return nil, err
		}
		checker, err := event.ParseAddress(w.WhitelistChecker)
		if err != nil {
			return nil, err
		}
		tradingFee, err := numeric.ParseBigInt(w.TradingFee)
		if err != nil {
			return nil, err
		}
		creatorFee, err := numeric.ParseBigInt(w.CreatorFee)
		if err != nil {
			return nil, err
		}
		return event.CollectionNew{
			Meta:             meta,
			Creator:          creator,
			TradingFee:       tradingFee,
			CreatorFee:       creatorFee,
			WhitelistChecker: checker,
		}, nil

	case event.TypeCollectionClose:
		var w wireMeta
		if err := json.Unmarshal(env.Event, &w); err != nil {
			return nil, err
		}
		meta, err := w.decode()
		if err != nil {
			return nil, err
		}
		return event.CollectionClose{Meta: meta}, nil

	case event.TypeCollectionUpdate:
		var w wireCollectionUpdate
		if err := json.Unmarshal(env.Event, &w); err != nil {
			return nil, err
		}
		meta, err := w.decode()
		if err != nil {
			return nil, err
		}
		creator, err := event.ParseAddress(w.Creator)
		if err != nil {
			return nil, err
		}
		checker, err := event.ParseAddress(w.WhitelistChecker)
		if err != nil {
			return nil, err
		}
		tradingFee, err := numeric.ParseBigInt(w.TradingFee)
		if err != nil {
			return nil, err
		}
		creatorFee, err := numeric.ParseBigInt(w.CreatorFee)
		if err != nil {
			return nil, err
		}
		return event.CollectionUpdate{
			Meta:             meta,
			Creator:          creator,
			TradingFee:       tradingFee,
			CreatorFee:       creatorFee,
			WhitelistChecker: checker,
		}, nil

	case event.TypeAskNew:
		var w wireAskNew
		if err := json.Unmarshal(env.Event, &w); err != nil {
			return nil, err
		}
		meta, err := w.decode()
		if err != nil {
			return nil, err
		}
		seller, err := event.ParseAddress(w.Seller)
		if err != nil {
			return nil, err
		}
		tokenAddress, err := event.ParseAddress(w.TokenAddress)
		if err != nil {
			return nil, err
		}
		tokenID, err := numeric.ParseBigInt(w.TokenID)
		if err != nil {
			return nil, err
		}
		askPrice, err := numeric.ParseBigInt(w.AskPrice)
		if err != nil {
			return nil, err
		}
		return event.AskNew{
			Meta:         meta,
			Seller:       seller,
			TokenID:      tokenID,
			AskPrice:     askPrice,
			TokenAddress: tokenAddress,
		}, nil

	case event.TypeAskCancel:
		var w wireAskCancel
		if err := json.Unmarshal(env.Event, &w); err != nil {
			return nil, err
		}
		meta, err := w.decode()
		if err != nil {
			return nil, err
		}
		seller, err := event.ParseAddress(w.Seller)
		if err != nil {
			return nil, err
		}
		tokenID, err := numeric.ParseBigInt(w.TokenID)
		if err != nil {
			return nil, err
		}
		return event.AskCancel{Meta: meta, Seller: seller, TokenID: tokenID}, nil

	case event.TypeAskUpdate:
		var w wireAskUpdate
		if err := json.Unmarshal(env.Event, &w); err != nil {
			return nil, err
		}
		meta, err := w.decode()
		if err != nil {
			return nil, err
		}
		seller, err := event.ParseAddress(w.Seller)
		if err != nil {
			return nil, err
		}
		tokenAddress, err := event.ParseAddress(w.TokenAddress)
		if err != nil {
			return nil, err
		}
		tokenID, err := numeric.ParseBigInt(w.TokenID)
		if err != nil {
			return nil, err
		}
		askPrice, err := numeric.ParseBigInt(w.AskPrice)
		if err != nil {
			return nil, err
		}
		return event.AskUpdate{
			Meta:         meta,
			Seller:       seller,
			TokenID:      tokenID,
			AskPrice:     askPrice,
			TokenAddress: tokenAddress,
		}, nil

	case event.TypeTrade:
		var w wireTrade
		if err := json.Unmarshal(env.Event, &w); err != nil {
			return nil, err
		}
		meta, err := w.decode()
		if err != nil {
			return nil, err
		}
		buyer, err := event.ParseAddress(w.Buyer)
		if err != nil {
			return nil, err
		}
		seller, err := event.ParseAddress(w.Seller)
		if err != nil {
			return nil, err
		}
		tokenAddress, err := event.ParseAddress(w.TokenAddress)
		if err != nil {
			return nil, err
		}
		tokenID, err := numeric.ParseBigInt(w.TokenID)
		if err != nil {
			return nil, err
		}
		askPrice, err := numeric.ParseBigInt(w.AskPrice)
		if err != nil {
			return nil, err
		}
		netPrice, err := numeric.ParseBigInt(w.NetPrice)
		if err != nil {
			return nil, err
		}
		return event.Trade{
			Meta:         meta,
			Buyer:        buyer,
			Seller:       seller,
			TokenID:      tokenID,
			AskPrice:     askPrice,
			NetPrice:     netPrice,
			TokenAddress: tokenAddress,
		}, nil

	case event.TypeRevenueClaim:
		var w wireRevenueClaim
		if err := json.Unmarshal(env.Event, &w); err != nil {
			return nil, err
		}
		meta, err := w.decode()
		if err != nil {
			return nil, err
		}
		claimer, err := event.ParseAddress(w.Claimer)
		if err != nil {
			return nil, err
		}
		tokenAddress, err := event.ParseAddress(w.TokenAddress)
		if err != nil {
			return nil, err
		}
		amount, err := numeric.ParseBigInt(w.Amount)
		if err != nil {
			return nil, err
		}
		return event.RevenueClaim{
			Meta:         meta,
			Claimer:      claimer,
			Amount:       amount,
			TokenAddress: tokenAddress,
		}, nil

	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
}

// --- Query handlers ---

// ListCollections handles GET /api/v1/collections
func (s *Service) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := s.store.ListCollections(r.Context())
	if err != nil {
		writeError(w, "failed to list collections", http.StatusInternalServerError)
		return
	}
	if collections == nil {
		collections = []model.Collection{}
	}
	writeJSON(w, collections)
}

// GetCollection handles GET /api/v1/collections/{address}
func (s *Service) GetCollection(w http.ResponseWriter, r *http.Request) {
	address, err := event.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	collection, err := s.store.GetCollection(r.Context(), address)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, "collection not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, "failed to get collection", http.StatusInternalServerError)
		return
	}
	writeJSON(w, collection)
}

// ListCollectionNFTs handles GET /api/v1/collections/{address}/nfts
func (s *Service) ListCollectionNFTs(w http.ResponseWriter, r *http.Request) {
	address, err := event.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	nfts, err := s.store.ListNFTsByCollection(r.Context(), address)
	if err != nil {
		writeError(w, "failed to list nfts", http.StatusInternalServerError)
		return
	}
	if nfts == nil {
		nfts = []model.NFT{}
	}
	writeJSON(w, nfts)
}

// ListCollectionDayData handles GET /api/v1/collections/{address}/day-data
func (s *Service) ListCollectionDayData(w http.ResponseWriter, r *http.Request) {
	address, err := event.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	days, err := s.store.ListCollectionDayData(r.Context(), address)
	if err != nil {
		writeError(w, "failed to list day data", http.StatusInternalServerError)
		return
	}
	if days == nil {
		days = []model.CollectionDayData{}
	}
	writeJSON(w, days)
}

// GetUser handles GET /api/v1/users/{address}
func (s *Service) GetUser(w http.ResponseWriter, r *http.Request) {
	address, err := event.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := s.store.GetUser(r.Context(), address)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, "failed to get user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, user)
}

// ListTransactions handles GET /api/v1/transactions?limit=N
func (s *Service) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	txs, err := s.store.ListTransactions(r.Context(), limit)
	if err != nil {
		writeError(w, "failed to list transactions", http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	writeJSON(w, txs)
}

// ListMarketPlaceDayData handles GET /api/v1/day-data
func (s *Service) ListMarketPlaceDayData(w http.ResponseWriter, r *http.Request) {
	days, err := s.store.ListMarketPlaceDayData(r.Context())
	if err != nil {
		writeError(w, "failed to list day data", http.StatusInternalServerError)
		return
	}
	if days == nil {
		days = []model.MarketPlaceDayData{}
	}
	writeJSON(w, days)
}

// --- Response helpers ---

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
