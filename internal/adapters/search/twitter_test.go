package search

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketscope/internal/adapters/config"
	"marketscope/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestTwitterClient(rt roundTripFunc) *TwitterClient {
	c := NewTwitterClient(config.TwitterConfig{
		ConsumerKey:       "ck",
		ConsumerSecret:    "cs",
		AccessToken:       "at",
		AccessTokenSecret: "ats",
	}, time.Second)
	c.httpClient = &http.Client{Transport: rt}
	c.now = func() time.Time { return time.Unix(1754042400, 0) }
	c.nonce = func() string { return "fixednonce" }
	return c
}

func TestSearchRecent_NotConfigured(t *testing.T) {
	c := NewTwitterClient(config.TwitterConfig{}, time.Second)

	_, err := c.SearchRecent(context.Background(), "iphone", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoProviderConfigured))
}

func TestSearchRecent_RequestShape(t *testing.T) {
	var captured *http.Request
	c := newTestTwitterClient(func(req *http.Request) (*http.Response, error) {
		captured = req
		return jsonResponse(http.StatusOK, `{"data":[],"meta":{"result_count":0}}`), nil
	})

	_, err := c.SearchRecent(context.Background(), "iphone 15", 10)
	require.NoError(t, err)
	require.NotNil(t, captured)

	q := captured.URL.Query()
	assert.Equal(t, "iphone 15 -is:retweet lang:en", q.Get("query"))
	assert.Equal(t, "10", q.Get("max_results"))
	assert.Equal(t, "author_id,created_at,public_metrics", q.Get("tweet.fields"))

	auth := captured.Header.Get("Authorization")
	assert.True(t, strings.HasPrefix(auth, "OAuth "))
	assert.Contains(t, auth, `oauth_consumer_key="ck"`)
	assert.Contains(t, auth, `oauth_token="at"`)
	assert.Contains(t, auth, `oauth_nonce="fixednonce"`)
	assert.Contains(t, auth, `oauth_timestamp="1754042400"`)
	assert.Contains(t, auth, `oauth_signature_method="HMAC-SHA1"`)

	// Signature in the header matches the signer over the same fixed params
	want := signHMACSHA1(http.MethodGet, twitterSearchURL, map[string]string{
		"oauth_consumer_key":     "ck",
		"oauth_nonce":            "fixednonce",
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        "1754042400",
		"oauth_token":            "at",
		"oauth_version":          "1.0",
	}, "cs", "ats")
	assert.Contains(t, auth, `oauth_signature="`+percentEncode(want)+`"`)
}

func TestSearchRecent_ParsesTweets(t *testing.T) {
	c := newTestTwitterClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{
			"data": [
				{"id":"1","text":"Love the new camera #iphone","author_id":"42",
				 "created_at":"2026-08-01T10:00:00Z",
				 "public_metrics":{"retweet_count":3,"reply_count":1,"like_count":25,"quote_count":0}}
			],
			"meta": {"result_count": 1}
		}`), nil
	})

	tweets, err := c.SearchRecent(context.Background(), "iphone", 10)
	require.NoError(t, err)
	require.Len(t, tweets, 1)
	assert.Equal(t, "Love the new camera #iphone", tweets[0].Text)
	assert.Equal(t, 25, tweets[0].PublicMetrics.LikeCount)
}

func TestSearchRecent_RateLimited(t *testing.T) {
	c := newTestTwitterClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusTooManyRequests, `{"title":"Too Many Requests"}`), nil
	})

	_, err := c.SearchRecent(context.Background(), "iphone", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRateLimitExceeded))
}

func TestSearchRecent_UpstreamError(t *testing.T) {
	c := newTestTwitterClient(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"title":"Unauthorized"}`), nil
	})

	_, err := c.SearchRecent(context.Background(), "iphone", 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExternal))
	assert.Contains(t, err.Error(), "401")
}

func TestSignHMACSHA1_Deterministic(t *testing.T) {
	params := map[string]string{
		"oauth_consumer_key": "ck",
		"oauth_nonce":        "n",
		"oauth_timestamp":    "100",
	}

	a := signHMACSHA1(http.MethodGet, twitterSearchURL, params, "cs", "ats")
	b := signHMACSHA1(http.MethodGet, twitterSearchURL, params, "cs", "ats")
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)

	other := signHMACSHA1(http.MethodGet, twitterSearchURL, params, "cs", "different")
	assert.NotEqual(t, a, other)
}

func TestPercentEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abcXYZ019-._~", "abcXYZ019-._~"},
		{"hello world", "hello%20world"},
		{"a&b=c", "a%26b%3Dc"},
		{"100%", "100%25"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, percentEncode(tt.in), "input %q", tt.in)
	}
}
