package klever

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/digiko-labs/dex-price-service/internal/constants"
	"github.com/digiko-labs/dex-price-service/internal/models"
)

// Views exposed by the Digiko pair contract.
const (
	viewAllPairIDs = "getAllPairIds"
	viewPairInfo   = "getPairInfo"
)

// getPairInfo returns an 8-value tuple.
const pairInfoFields = 8

// PoolSource reads the full pool snapshot from the Digiko contract.
// A failing individual pair is logged and dropped from the snapshot; only a
// failing pair id listing aborts the fetch.
type PoolSource struct {
	client   *Client
	contract string
	logger   *logrus.Logger

	mu         sync.RWMutex
	precisions map[string]int
}

// PoolSourceConfig holds configuration for the pool source
type PoolSourceConfig struct {
	Client          *Client
	ContractAddress string
	Logger          *logrus.Logger
}

// NewPoolSource creates a pool source for the given contract
func NewPoolSource(cfg PoolSourceConfig) (*PoolSource, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("node client is nil")
	}
	if cfg.ContractAddress == "" {
		return nil, fmt.Errorf("contract address is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &PoolSource{
		client:     cfg.Client,
		contract:   cfg.ContractAddress,
		logger:     cfg.Logger,
		precisions: make(map[string]int),
	}, nil
}

// FetchPools returns the current snapshot of every registered pair
func (s *PoolSource) FetchPools(ctx context.Context) ([]models.Pool, error) {
	ids, err := s.fetchPairIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch pair ids: %w", err)
	}

	pools := make([]models.Pool, 0, len(ids))
	for _, id := range ids {
		pool, err := s.fetchPair(ctx, id)
		if err != nil {
			s.logger.WithError(err).WithField("pair_id", id).Warn("skipping pair")
			continue
		}
		pools = append(pools, *pool)
	}

	return pools, nil
}

func (s *PoolSource) fetchPairIDs(ctx context.Context) ([]uint64, error) {
	data, err := s.client.QueryContract(ctx, QueryRequest{
		ScAddress: s.contract,
		FuncName:  viewAllPairIDs,
		Arguments: []string{},
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(data.ReturnData))
	for _, entry := range data.ReturnData {
		id, err := decodeUint64(entry)
		if err != nil {
			return nil, fmt.Errorf("decode pair id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *PoolSource) fetchPair(ctx context.Context, id uint64) (*models.Pool, error) {
	data, err := s.client.QueryContract(ctx, QueryRequest{
		ScAddress: s.contract,
		FuncName:  viewPairInfo,
		Arguments: []string{encodeUint64Arg(id)},
	})
	if err != nil {
		return nil, err
	}
	if len(data.ReturnData) < pairInfoFields {
		return nil, fmt.Errorf("getPairInfo returned %d values, want %d", len(data.ReturnData), pairInfoFields)
	}

	// (tokenA, tokenB, aIsKLV, bIsKLV, reserveA, reserveB, feePercent, isActive)
	tokenA, err := decodeString(data.ReturnData[0])
	if err != nil {
		return nil, fmt.Errorf("token a: %w", err)
	}
	tokenB, err := decodeString(data.ReturnData[1])
	if err != nil {
		return nil, fmt.Errorf("token b: %w", err)
	}
	aIsKLV, err := decodeBool(data.ReturnData[2])
	if err != nil {
		return nil, fmt.Errorf("a is klv: %w", err)
	}
	bIsKLV, err := decodeBool(data.ReturnData[3])
	if err != nil {
		return nil, fmt.Errorf("b is klv: %w", err)
	}
	rawReserveA, err := decodeBigUint(data.ReturnData[4])
	if err != nil {
		return nil, fmt.Errorf("reserve a: %w", err)
	}
	rawReserveB, err := decodeBigUint(data.ReturnData[5])
	if err != nil {
		return nil, fmt.Errorf("reserve b: %w", err)
	}
	feePercent, err := decodeUint64(data.ReturnData[6])
	if err != nil {
		return nil, fmt.Errorf("fee percent: %w", err)
	}
	isActive, err := decodeBool(data.ReturnData[7])
	if err != nil {
		return nil, fmt.Errorf("is active: %w", err)
	}

	// The contract stores the native coin as the literal "KLV" token id;
	// the flags cover pairs created before that convention.
	if aIsKLV {
		tokenA = constants.AnchorSymbol
	}
	if bIsKLV {
		tokenB = constants.AnchorSymbol
	}

	return &models.Pool{
		ID:         id,
		TokenA:     tokenA,
		TokenB:     tokenB,
		ReserveA:   adjust(rawReserveA, s.precisionFor(ctx, tokenA)),
		ReserveB:   adjust(rawReserveB, s.precisionFor(ctx, tokenB)),
		FeePercent: feePercent,
		IsActive:   isActive,
	}, nil
}

// precisionFor resolves an asset's decimal precision, caching node lookups.
// Lookup failures fall back to the default precision so one flaky asset call
// cannot sink a whole snapshot.
func (s *PoolSource) precisionFor(ctx context.Context, assetID string) int {
	if assetID == constants.AnchorSymbol {
		return constants.DefaultAssetPrecision
	}

	s.mu.RLock()
	p, ok := s.precisions[assetID]
	s.mu.RUnlock()
	if ok {
		return p
	}

	asset, err := s.client.GetAsset(ctx, assetID)
	if err != nil {
		s.logger.WithError(err).WithField("asset", assetID).Warn("precision lookup failed, using default")
		return constants.DefaultAssetPrecision
	}

	s.mu.Lock()
	s.precisions[assetID] = asset.Precision
	s.mu.Unlock()
	return asset.Precision
}
