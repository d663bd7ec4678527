package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/finanzas/backend/src/logger"
)

const rateCacheKey = "usd:sell"

// dolarRateService fetches the USD sell rate from a dolarapi-style endpoint
// returning {"venta": <number>, ...}. Successful lookups are memoized so a
// burst of expense creations does not hammer the provider.
type dolarRateService struct {
	httpClient http.Client
	url        string
	cache      *cache.Cache
	cacheTTL   time.Duration
}

func NewRateService(url string, rateCache *cache.Cache, cacheTTL time.Duration) RateService {
	return &dolarRateService{
		httpClient: http.Client{Timeout: 20 * time.Second},
		url:        url,
		cache:      rateCache,
		cacheTTL:   cacheTTL,
	}
}

func (s *dolarRateService) SellRate(ctx context.Context) (decimal.Decimal, error) {
	if cached, found := s.cache.Get(rateCacheKey); found {
		return cached.(decimal.Decimal), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.L.Error("Currency rate request failed", "url", s.url, "error", err)
		return decimal.Zero, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.L.Error("Currency rate provider returned non-OK status", "url", s.url, "status", resp.StatusCode)
		return decimal.Zero, fmt.Errorf("%w: provider returned status %d", ErrRateUnavailable, resp.StatusCode)
	}

	var body struct {
		Venta float64 `json:"venta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decoding response: %v", ErrRateUnavailable, err)
	}
	if body.Venta <= 0 {
		return decimal.Zero, fmt.Errorf("%w: provider returned sell rate %v", ErrRateUnavailable, body.Venta)
	}

	rate := decimal.NewFromFloat(body.Venta)
	s.cache.Set(rateCacheKey, rate, s.cacheTTL)
	logger.L.Debug("Fetched USD sell rate", "rate", rate.String())
	return rate, nil
}
