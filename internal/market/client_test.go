package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFXClient_Rate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(`{"base":"USD","rates":{"USD":1,"CAD":1.3652,"EUR":0.92}}`))
	}))
	defer srv.Close()

	rate, err := NewFXClient(srv.URL).Rate(context.Background())
	require.NoError(t, err)
	assert.True(t, rate.Equal(dec("1.3652")))
}

func TestFXClient_MissingCAD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"EUR":0.92}}`))
	}))
	defer srv.Close()

	_, err := NewFXClient(srv.URL).Rate(context.Background())
	assert.True(t, errors.Is(err, ErrRateNotFound))
}

func TestFXClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewFXClient(srv.URL).Rate(context.Background())
	assert.Error(t, err)
}

func TestQuoteClient_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		w.Write([]byte(`{"c":227.52,"d":1.1,"h":229,"l":225.1,"o":226,"pc":226.42,"t":1720000000}`))
	}))
	defer srv.Close()

	price, err := NewQuoteClient(srv.URL, "secret", "").Quote(context.Background(), " aapl ")
	require.NoError(t, err)
	assert.True(t, price.Equal(dec("227.52")))
}

func TestQuoteClient_CustomPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quote":{"regularMarketPrice":"41.07"}}`))
	}))
	defer srv.Close()

	price, err := NewQuoteClient(srv.URL, "", "$.quote.regularMarketPrice").Quote(context.Background(), "XEQT.TO")
	require.NoError(t, err)
	assert.True(t, price.Equal(dec("41.07")))
}

func TestQuoteClient_ZeroPriceIsNotFound(t *testing.T) {
	// Finnhub answers unknown symbols with an all-zero quote.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c":0,"d":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`))
	}))
	defer srv.Close()

	_, err := NewQuoteClient(srv.URL, "", "").Quote(context.Background(), "NOPE")
	assert.True(t, errors.Is(err, ErrPriceNotFound))
}
