package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/index-back/pkg/config"
)

func newTestClient(baseURL string) *Client {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewClient(&config.UpstreamConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Timeout:     5 * time.Second,
		RateLimit:   0, // no throttling in tests
		MaxBodySize: 1 << 20,
	}, log)
}

func TestClient_Query_BuildsParamsAndReturnsBody(t *testing.T) {
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k, v := range r.URL.Query() {
			gotQuery[k] = v[0]
		}
		w.Write([]byte(`{"Global Quote":{"05. price":"150.00"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	body, err := c.Query(context.Background(), Request{
		Function:   "TIME_SERIES_INTRADAY",
		Symbol:     "SPY",
		Interval:   "5min",
		OutputSize: "compact",
		Extra:      map[string]string{"adjusted": "true"},
	})
	require.NoError(t, err)
	assert.Contains(t, string(body), "Global Quote")

	assert.Equal(t, "TIME_SERIES_INTRADAY", gotQuery["function"])
	assert.Equal(t, "SPY", gotQuery["symbol"])
	assert.Equal(t, "5min", gotQuery["interval"])
	assert.Equal(t, "compact", gotQuery["outputsize"])
	assert.Equal(t, "true", gotQuery["adjusted"])
	assert.Equal(t, "test-key", gotQuery["apikey"])
}

func TestClient_Query_ForexParams(t *testing.T) {
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k, v := range r.URL.Query() {
			gotQuery[k] = v[0]
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	_, err := c.Query(context.Background(), Request{
		Function:   "CURRENCY_EXCHANGE_RATE",
		FromSymbol: "EUR",
		ToSymbol:   "USD",
	})
	require.NoError(t, err)

	assert.Equal(t, "EUR", gotQuery["from_currency"])
	assert.Equal(t, "USD", gotQuery["to_currency"])
	assert.NotContains(t, gotQuery, "symbol")
}

func TestClient_Query_NonOKStatusIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	_, err := c.Query(context.Background(), Request{Function: "GLOBAL_QUOTE", Symbol: "SPY"})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusServiceUnavailable, te.Status)
}

func TestClient_Query_NetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // server gone before the request

	c := newTestClient(srv.URL)

	_, err := c.Query(context.Background(), Request{Function: "GLOBAL_QUOTE", Symbol: "SPY"})
	var te *TransportError
	require.ErrorAs(t, err, &te)
}

func TestClient_Query_InBandErrorMessageIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Upstream reports semantic errors with HTTP 200.
		w.Write([]byte(`{"Error Message": "Invalid API call for symbol NOPE"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	_, err := c.Query(context.Background(), Request{Function: "GLOBAL_QUOTE", Symbol: "NOPE"})
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Message, "NOPE")
}

func TestClient_Query_InBandNoteIsRateLimitError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using our API. Our standard API call frequency is 5 calls per minute."}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	_, err := c.Query(context.Background(), Request{Function: "GLOBAL_QUOTE", Symbol: "SPY"})
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
}

func TestClient_Query_InformationFieldIsRateLimitError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Information": "API rate limit reached"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	_, err := c.Query(context.Background(), Request{Function: "GLOBAL_QUOTE", Symbol: "SPY"})
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
}

func TestClient_Query_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Query(ctx, Request{Function: "GLOBAL_QUOTE", Symbol: "SPY"})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, errors.Is(te.Err, context.DeadlineExceeded) || te.Err != nil)
}
