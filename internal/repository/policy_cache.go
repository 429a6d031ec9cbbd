package repository

import (
	"context"
	"errors"
	"fmt"

	"TradeSim/internal/domain/models"
	domrepo "TradeSim/internal/domain/repository"
	"TradeSim/pkg/cache"
)

// CachePolicyStore keeps policies in a cache backend and inherits its
// retention. Redis keeps them until deleted and shares them with every
// replica. The in-process cache drops them after its default expiry or under
// LRU pressure, so config only accepts this store with Redis enabled.
type CachePolicyStore struct {
	cache cache.Service
}

func NewCachePolicyStore(c cache.Service) *CachePolicyStore {
	return &CachePolicyStore{cache: c}
}

func policyKey(symbol string) string {
	return cache.GenerateKey("policy", symbol)
}

func (s *CachePolicyStore) Load(ctx context.Context, symbol string) (models.PolicySnapshot, error) {
	snapshot := models.PolicySnapshot{}
	if err := s.cache.Get(ctx, policyKey(symbol), &snapshot); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, domrepo.ErrPolicyNotFound
		}
		return nil, fmt.Errorf("load policy: %w", err)
	}
	return snapshot, nil
}

func (s *CachePolicyStore) Save(ctx context.Context, symbol string, snapshot models.PolicySnapshot) error {
	if err := s.cache.Set(ctx, policyKey(symbol), snapshot, 0); err != nil {
		return fmt.Errorf("save policy: %w", err)
	}
	return nil
}
