package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/khanglvm/food-search/internal/food"
	"github.com/khanglvm/food-search/internal/httputil"
	"github.com/khanglvm/food-search/internal/logger"
)

// FoodData Central nutrient ids.
const (
	nutrientEnergy  = 1008
	nutrientProtein = 1003
	nutrientFat     = 1004
	nutrientCarbs   = 1005
	nutrientFiber   = 1079
)

// USDAConfig configures the FoodData Central client.
type USDAConfig struct {
	BaseURL       string
	APIKey        string
	DataType      string
	PageSize      int
	Timeout       time.Duration
	MaxRetries    int
	RatePerSecond float64
}

// DefaultUSDAConfig targets the public API with Standard Reference data.
func DefaultUSDAConfig() USDAConfig {
	return USDAConfig{
		BaseURL:       "https://api.nal.usda.gov/fdc/v1",
		DataType:      "SR Legacy",
		PageSize:      50,
		Timeout:       10 * time.Second,
		MaxRetries:    3,
		RatePerSecond: 5,
	}
}

// USDA searches FoodData Central.
type USDA struct {
	cfg     USDAConfig
	client  *http.Client
	limiter *rate.Limiter
	log     *log.Logger
}

// NewUSDA creates a client. Requests are spaced by a client-side limiter
// so expanded fan-outs stay under the API quota.
func NewUSDA(cfg USDAConfig, opts ...Option) *USDA {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultUSDAConfig().PageSize
	}

	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = int(math.Max(1, math.Ceil(cfg.RatePerSecond)))
	}

	return &USDA{
		cfg:     cfg,
		client:  o.client,
		limiter: rate.NewLimiter(limit, burst),
		log:     logger.OrDefault(o.log, "usda"),
	}
}

type usdaNutrient struct {
	NutrientID int     `json:"nutrientId"`
	Value      float64 `json:"value"`
}

type usdaFood struct {
	FdcID         int            `json:"fdcId"`
	Description   string         `json:"description"`
	BrandOwner    string         `json:"brandOwner"`
	DataType      string         `json:"dataType"`
	FoodNutrients []usdaNutrient `json:"foodNutrients"`
}

type usdaSearchResponse struct {
	Foods     []usdaFood `json:"foods"`
	TotalHits int        `json:"totalHits"`
}

// Search queries /foods/search.
func (u *USDA) Search(ctx context.Context, query string, limit int) ([]food.RawRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = u.cfg.PageSize
	}

	if err := u.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("pageSize", strconv.Itoa(limit))
	if u.cfg.DataType != "" {
		params.Set("dataType", u.cfg.DataType)
	}
	if u.cfg.APIKey != "" {
		params.Set("api_key", u.cfg.APIKey)
	}
	endpoint := strings.TrimRight(u.cfg.BaseURL, "/") + "/foods/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, u.client, req, u.cfg.MaxRetries, u.log)
	if err != nil {
		return nil, fmt.Errorf("usda search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("usda search %q: %w: %d", query, ErrStatus, resp.StatusCode)
	}

	var body usdaSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding usda response: %w", err)
	}

	records := make([]food.RawRecord, 0, len(body.Foods))
	for _, f := range body.Foods {
		records = append(records, f.record())
	}
	if len(records) > limit {
		records = records[:limit]
	}
	u.log.Debug("usda search", "query", query, "hits", body.TotalHits, "returned", len(records))
	return records, nil
}

func (f usdaFood) record() food.RawRecord {
	values := make(map[int]float64, len(f.FoodNutrients))
	for _, n := range f.FoodNutrients {
		if _, ok := values[n.NutrientID]; !ok {
			values[n.NutrientID] = n.Value
		}
	}

	r := food.RawRecord{
		ID:    strconv.Itoa(f.FdcID),
		Name:  f.Description,
		Brand: f.BrandOwner,
		Nutrients: food.Nutrients{
			Calories: round2(values[nutrientEnergy]),
			Protein:  round2(values[nutrientProtein]),
			Carbs:    round2(values[nutrientCarbs]),
			Fat:      round2(values[nutrientFat]),
		},
	}
	if fiber, ok := values[nutrientFiber]; ok {
		v := round2(fiber)
		r.Nutrients.Fiber = &v
	}
	return r
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
