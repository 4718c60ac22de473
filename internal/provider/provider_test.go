package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanglvm/food-search/internal/food"
	"github.com/khanglvm/food-search/internal/httputil"
	"github.com/khanglvm/food-search/internal/logger"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const usdaBody = `{
  "totalHits": 2,
  "currentPage": 1,
  "totalPages": 1,
  "foods": [
    {
      "fdcId": 171477,
      "description": "Chicken, broilers or fryers, breast, meat only, cooked, roasted",
      "dataType": "SR Legacy",
      "foodNutrients": [
        {"nutrientId": 1008, "nutrientName": "Energy", "unitName": "KCAL", "value": 165},
        {"nutrientId": 1003, "nutrientName": "Protein", "unitName": "G", "value": 31.0234},
        {"nutrientId": 1004, "nutrientName": "Total lipid (fat)", "unitName": "G", "value": 3.57},
        {"nutrientId": 1079, "nutrientName": "Fiber, total dietary", "unitName": "G", "value": 0}
      ]
    },
    {
      "fdcId": 168878,
      "description": "Rice, white, long-grain, regular, enriched, cooked",
      "dataType": "SR Legacy",
      "foodNutrients": [
        {"nutrientId": 1008, "value": 130},
        {"nutrientId": 1005, "value": 28.17}
      ]
    }
  ]
}`

func newUSDA(t *testing.T, handler http.HandlerFunc) *USDA {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	cfg := DefaultUSDAConfig()
	cfg.BaseURL = ts.URL
	cfg.APIKey = "test-key"
	cfg.RatePerSecond = 0
	return NewUSDA(cfg, WithHTTPClient(ts.Client()), WithLogger(logger.Discard()))
}

func TestUSDA_Search(t *testing.T) {
	var got *http.Request
	u := newUSDA(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, usdaBody)
	})

	records, err := u.Search(context.Background(), "chicken breast", 0)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/foods/search", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "chicken breast", q.Get("query"))
	assert.Equal(t, "SR Legacy", q.Get("dataType"))
	assert.Equal(t, "50", q.Get("pageSize"))
	assert.Equal(t, "test-key", q.Get("api_key"))

	require.Len(t, records, 2)
	assert.Equal(t, "171477", records[0].ID)
	assert.Equal(t, "Chicken, broilers or fryers, breast, meat only, cooked, roasted", records[0].Name)
	assert.Equal(t, 165.0, records[0].Nutrients.Calories)
	assert.Equal(t, 31.02, records[0].Nutrients.Protein)
	assert.Equal(t, 3.57, records[0].Nutrients.Fat)
	assert.Equal(t, 0.0, records[0].Nutrients.Carbs, "missing nutrient counts as zero")
	require.NotNil(t, records[0].Nutrients.Fiber)
	assert.Equal(t, 0.0, *records[0].Nutrients.Fiber)

	assert.Equal(t, 28.17, records[1].Nutrients.Carbs)
	assert.Nil(t, records[1].Nutrients.Fiber)
}

func TestUSDA_LimitIsPageSize(t *testing.T) {
	var pageSize string
	u := newUSDA(t, func(w http.ResponseWriter, r *http.Request) {
		pageSize = r.URL.Query().Get("pageSize")
		fmt.Fprint(w, usdaBody)
	})

	records, err := u.Search(context.Background(), "rice", 1)
	require.NoError(t, err)
	assert.Equal(t, "1", pageSize)
	assert.Len(t, records, 1)
}

func TestUSDA_Errors(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		u := newUSDA(t, func(w http.ResponseWriter, _ *http.Request) {
			t.Error("no request expected")
		})
		_, err := u.Search(context.Background(), "  ", 10)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("bad status", func(t *testing.T) {
		u := newUSDA(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
		_, err := u.Search(context.Background(), "rice", 10)
		assert.ErrorIs(t, err, ErrStatus)
	})

	t.Run("malformed body", func(t *testing.T) {
		u := newUSDA(t, func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"foods": [`)
		})
		_, err := u.Search(context.Background(), "rice", 10)
		assert.Error(t, err)
	})
}

func TestUSDA_RetriesRateLimit(t *testing.T) {
	var calls int32
	u := newUSDA(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, usdaBody)
	})

	records, err := u.Search(context.Background(), "rice", 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestStatic_Search(t *testing.T) {
	s := NewStatic([]food.RawRecord{
		{ID: "1", Name: "Rice, white, cooked"},
		{ID: "2", Name: "Chicken, breast, raw"},
		{ID: "3", Name: "Rice, brown, cooked"},
	})
	ctx := context.Background()

	got, err := s.Search(ctx, "RICE", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	got, err = s.Search(ctx, "rice brown", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)

	got, err = s.Search(ctx, "rice", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = s.Search(ctx, "", 0)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestLoadStatic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
foods:
  - id: "a"
    name: "Oats"
    nutrients: {calories: 389, protein: 16.9, carbs: 66.3, fat: 6.9, fiber: 10.6}
`), 0o644))

	s, err := LoadStatic(path)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	got, err := s.Search(context.Background(), "oats", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Nutrients.Fiber)
	assert.Equal(t, 10.6, *got[0].Nutrients.Fiber)

	require.NoError(t, os.WriteFile(path, []byte("foods:\n  - name: nameless\n"), 0o644))
	_, err = LoadStatic(path)
	assert.Error(t, err, "entries without id are rejected")

	_, err = LoadStatic(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestBuiltin(t *testing.T) {
	s := Builtin()
	assert.Greater(t, s.Len(), 20)

	got, err := s.Search(context.Background(), "chicken breast", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestExpanding_MergesInOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	inner := Func(func(_ context.Context, q string, _ int) ([]food.RawRecord, error) {
		mu.Lock()
		seen = append(seen, q)
		mu.Unlock()
		switch q {
		case "chicken":
			return []food.RawRecord{{ID: "1", Name: "Chicken, raw"}, {ID: "2", Name: "Chicken, breast"}}, nil
		case "chicken breast":
			return []food.RawRecord{{ID: "2", Name: "Chicken, breast, dup"}, {ID: "3", Name: "Chicken, breast, roasted"}}, nil
		}
		return nil, errors.New("unavailable")
	})
	expand := func(q string) []string { return []string{q, q + " breast", q + " thigh"} }

	e := NewExpanding(inner, expand, WithLogger(logger.Discard()))
	got, err := e.Search(context.Background(), "chicken", 10)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
	assert.Equal(t, "Chicken, breast", got[1].Name, "first occurrence wins")
	assert.Equal(t, "3", got[2].ID)
	assert.ElementsMatch(t, []string{"chicken", "chicken breast", "chicken thigh"}, seen)
}

func TestExpanding_AllFail(t *testing.T) {
	inner := Func(func(context.Context, string, int) ([]food.RawRecord, error) {
		return nil, errors.New("down")
	})
	e := NewExpanding(inner, func(q string) []string { return []string{q, q + " x"} }, WithLogger(logger.Discard()))

	_, err := e.Search(context.Background(), "beef", 10)
	assert.Error(t, err)
}

func TestExpanding_SingleQueryPassesThrough(t *testing.T) {
	wantErr := errors.New("boom")
	inner := Func(func(context.Context, string, int) ([]food.RawRecord, error) {
		return nil, wantErr
	})
	e := NewExpanding(inner, func(q string) []string { return []string{q} }, WithLogger(logger.Discard()))

	_, err := e.Search(context.Background(), "rice", 10)
	assert.ErrorIs(t, err, wantErr)
}
