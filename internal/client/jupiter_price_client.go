package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PriceClient defines the interface for the external price source.
type PriceClient interface {
	// GetPrices returns USD unit prices for the given mints. Mints the source
	// does not know are absent from the result, not an error.
	GetPrices(ctx context.Context, mints []string) (map[string]float64, error)
}

// jupiterPriceClientImpl queries the Jupiter price API.
type jupiterPriceClientImpl struct {
	client           *fasthttp.Client
	baseURL          string
	timeout          time.Duration
	logger           *zap.Logger
	maxMintsPerBatch int
}

// NewJupiterPriceClient creates a new instance of jupiterPriceClientImpl.
func NewJupiterPriceClient(baseURL string, timeout time.Duration, logger *zap.Logger, maxMintsPerBatch int) PriceClient {
	return &jupiterPriceClientImpl{
		client:           &fasthttp.Client{},
		baseURL:          strings.TrimRight(baseURL, "/"),
		timeout:          timeout,
		logger:           logger.Named("JupiterPriceClient"),
		maxMintsPerBatch: maxMintsPerBatch,
	}
}

type jupiterPriceEntry struct {
	ID    string `json:"id"`
	Price string `json:"price"`
}

type jupiterPriceResponse struct {
	Data map[string]*jupiterPriceEntry `json:"data"`
}

// GetPrices implements the PriceClient interface.
func (c *jupiterPriceClientImpl) GetPrices(ctx context.Context, mints []string) (map[string]float64, error) {
	if len(mints) == 0 {
		return nil, fmt.Errorf("mints cannot be empty")
	}
	if len(mints) > c.maxMintsPerBatch {
		c.logger.Warn("Number of mints exceeds maxMintsPerBatch",
			zap.Int("requestedCount", len(mints)),
			zap.Int("maxAllowed", c.maxMintsPerBatch))
		return nil, fmt.Errorf("number of mints (%d) exceeds max mints per request (%d)", len(mints), c.maxMintsPerBatch)
	}

	requestURL := fmt.Sprintf("%s/price/v2?ids=%s", c.baseURL, strings.Join(mints, ","))
	c.logger.Debug("Requesting prices from Jupiter", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute request to Jupiter", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Failed to execute request to Jupiter (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return nil, fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Jupiter price API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("Jupiter price API request to %s failed with status %d", requestURL, resp.StatusCode())
	}

	var parsed jupiterPriceResponse
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		c.logger.Error("Failed to unmarshal Jupiter price response",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal Jupiter price response from %s: %w", requestURL, err)
	}

	prices := make(map[string]float64, len(parsed.Data))
	for mint, entry := range parsed.Data {
		if entry == nil || entry.Price == "" {
			continue
		}
		price, err := strconv.ParseFloat(entry.Price, 64)
		if err != nil {
			c.logger.Warn("Failed to parse price string from Jupiter",
				zap.String("mint", mint),
				zap.String("priceStr", entry.Price),
				zap.Error(err))
			continue
		}
		prices[mint] = price
	}

	c.logger.Debug("Fetched prices from Jupiter",
		zap.Int("requested", len(mints)),
		zap.Int("resolved", len(prices)))
	return prices, nil
}
