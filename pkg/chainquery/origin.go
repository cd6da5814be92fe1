package chainquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/zhwir/offline-tx-validator/pkg/common"
	"go.uber.org/zap"
)

// OriginTokenClient lists the tokens registered as origin tokens on a chain.
//
// The endpoint is queried as GET <baseURL>?chainType=<chain> and must answer with either a JSON array
// of objects carrying "tokenScAddr", or an object wrapping that array under "result":
//
//	[{"tokenScAddr": "0x...", "symbol": "USDT"}]
type OriginTokenClient struct {
	baseURL string
	logger  *zap.Logger
	client  *http.Client

	// Listings are cached per chain for the lifetime of the client.
	mu    sync.Mutex
	cache map[string][]string
}

// NewOriginTokenClient creates a client. The logger parameter is optional; pass nil if logging is not needed.
func NewOriginTokenClient(baseURL string, logger *zap.Logger) *OriginTokenClient {
	return &OriginTokenClient{
		baseURL: baseURL,
		logger:  logger,
		client:  &http.Client{Timeout: RPC_TIMEOUT},
		cache:   make(map[string][]string),
	}
}

func (c *OriginTokenClient) RegisteredOriginTokens(ctx context.Context, chain string) (tokens []string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, exists := c.cache[chain]; exists {
		return cached, nil
	}

	defer func() { observe(chain, "registeredOriginTokens", err) }()

	tokens, err = c.fetch(ctx, chain)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("failed to list registered origin tokens", zap.String("chain", chain), zap.Error(err))
		}
		return nil, errors.Join(ErrUnavailable, err)
	}
	c.cache[chain] = tokens
	return tokens, nil
}

func (c *OriginTokenClient) fetch(ctx context.Context, chain string) ([]string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid origin token url: %w", err)
	}
	q := u.Query()
	q.Set("chainType", chain)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := common.SafeRead(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	return parseOriginTokens(body)
}

func parseOriginTokens(body []byte) ([]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("origin token listing is not valid JSON")
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		doc = doc.Get("result")
		if !doc.IsArray() {
			return nil, errors.New("origin token listing has no token array")
		}
	}

	tokens := make([]string, 0)
	for _, addr := range doc.Get("#.tokenScAddr").Array() {
		if addr.String() != "" {
			tokens = append(tokens, addr.String())
		}
	}
	return tokens, nil
}
