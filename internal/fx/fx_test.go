package fx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/stakeleague/internal/config"
)

type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) Rate(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	args := m.Called(ctx, base, quote)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func TestStaticConverter(t *testing.T) {
	conv := NewConverter(config.FXConfig{BaseCurrency: "NGN", QuoteCurrency: "USD", Rate: 0.5, CacheTTLSeconds: 60}, nil)

	got, err := conv.Convert(context.Background(), decimal.NewFromInt(300))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(got))
}

func TestCachedProviderHitsOnce(t *testing.T) {
	next := new(MockRateProvider)
	next.On("Rate", mock.Anything, "NGN", "USD").Return(decimal.RequireFromString("0.0012"), nil).Once()

	cached := NewCachedProvider(next, time.Minute)
	for i := 0; i < 3; i++ {
		rate, err := cached.Rate(context.Background(), "NGN", "USD")
		require.NoError(t, err)
		assert.Equal(t, "0.0012", rate.String())
	}

	hits, misses := cached.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(1), misses)
	next.AssertExpectations(t)
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	next := new(MockRateProvider)
	next.On("Rate", mock.Anything, "NGN", "USD").Return(decimal.Zero, errors.New("down")).Once()
	next.On("Rate", mock.Anything, "NGN", "USD").Return(decimal.NewFromInt(2), nil).Once()

	cached := NewCachedProvider(next, time.Minute)
	_, err := cached.Rate(context.Background(), "NGN", "USD")
	assert.Error(t, err)

	rate, err := cached.Rate(context.Background(), "NGN", "USD")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2).Equal(rate))
	next.AssertExpectations(t)
}

func TestHTTPProvider(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "NGN", r.URL.Query().Get("base"))
		assert.Equal(t, "USD", r.URL.Query().Get("quote"))
		_, _ = w.Write([]byte(`{"rate":"0.0025"}`))
	}))
	defer srv.Close()

	conv := NewConverter(config.FXConfig{URL: srv.URL, BaseCurrency: "NGN", QuoteCurrency: "USD", Rate: 1, CacheTTLSeconds: 60}, nil)

	for i := 0; i < 2; i++ {
		got, err := conv.Convert(context.Background(), decimal.NewFromInt(40000))
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(got))
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
