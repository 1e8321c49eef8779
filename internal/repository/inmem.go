package repository

import (
	"sync"

	"tradebot-backend/internal/domain"
)

type InMemoryRecommendationStore struct {
	recs []domain.Recommendation
	mu   sync.RWMutex
}

func NewInMemoryRecommendationStore() *InMemoryRecommendationStore {
	return &InMemoryRecommendationStore{
		recs: []domain.Recommendation{},
	}
}

func (r *InMemoryRecommendationStore) SaveRecommendations(recs []domain.Recommendation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Replace entire list, each scan cycle produces a full ranking
	r.recs = recs
}

func (r *InMemoryRecommendationStore) GetRecommendations() []domain.Recommendation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Recommendation, len(r.recs))
	copy(result, r.recs)
	return result
}

var _ domain.RecommendationStore = (*InMemoryRecommendationStore)(nil)
