package client

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"soltax/internal/entity"
)

// TokenListClient defines the interface for the bulk token list source.
type TokenListClient interface {
	// FetchTokenList downloads the full token registry. Called once per
	// process by the metadata resolver.
	FetchTokenList(ctx context.Context) ([]entity.TokenListEntry, error)
}

// jupiterTokenListClientImpl downloads the Jupiter verified token list.
type jupiterTokenListClientImpl struct {
	client  *fasthttp.Client
	url     string
	timeout time.Duration
	logger  *zap.Logger
}

// NewJupiterTokenListClient creates a new instance of jupiterTokenListClientImpl.
func NewJupiterTokenListClient(url string, timeout time.Duration, logger *zap.Logger) TokenListClient {
	return &jupiterTokenListClientImpl{
		client:  &fasthttp.Client{},
		url:     url,
		timeout: timeout,
		logger:  logger.Named("JupiterTokenListClient"),
	}
}

// FetchTokenList implements the TokenListClient interface.
func (c *jupiterTokenListClientImpl) FetchTokenList(ctx context.Context) ([]entity.TokenListEntry, error) {
	c.logger.Debug("Requesting token list", zap.String("url", c.url))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute token list request", zap.String("url", c.url), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s: %w", c.url, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Failed to execute token list request (with default timeout)", zap.String("url", c.url), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s with default timeout: %w", c.url, err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Token list request failed",
			zap.String("url", c.url),
			zap.Int("statusCode", resp.StatusCode()))
		return nil, fmt.Errorf("token list request to %s failed with status %d", c.url, resp.StatusCode())
	}

	var entries []entity.TokenListEntry
	if err := json.Unmarshal(resp.Body(), &entries); err != nil {
		c.logger.Error("Failed to unmarshal token list response", zap.String("url", c.url), zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal token list response from %s: %w", c.url, err)
	}

	c.logger.Info("Fetched token list", zap.Int("entryCount", len(entries)))
	return entries, nil
}
