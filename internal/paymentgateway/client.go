package paymentgateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	gatewaytypes "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/paymentgateway"
)

const (
	PathCheckoutFormInitialize = "/payment/iyzipos/checkoutform/initialize/auth/ecom"
	PathCheckoutFormRetrieve   = "/payment/iyzipos/checkoutform/auth/ecom/detail"
	PathRefund                 = "/v2/payment/refund"
	PathCancel                 = "/payment/cancel"

	headerRandom        = "x-iyzi-rnd"
	headerClientVersion = "x-iyzi-client-version"
	clientVersion       = "iyzipay-checkout-go-1.0.0"
	authPrefix          = "IYZWSv2"
)

type Config struct {
	APIKey    string
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// Client talks to the iyzipay REST API. Every call is a single blocking
// request; retries are left to the caller.
type Client struct {
	apiKey     string
	secretKey  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	randomKey  func() string
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:     config.APIKey,
		secretKey:  config.SecretKey,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		randomKey:  newRandomKey,
	}
}

func (c *Client) CreateCheckoutForm(ctx context.Context, req *gatewaytypes.CheckoutFormInitializeRequest) (*gatewaytypes.CheckoutFormInitialize, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	var resp gatewaytypes.CheckoutFormInitialize
	if err := c.post(ctx, PathCheckoutFormInitialize, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RetrieveCheckoutForm(ctx context.Context, req *gatewaytypes.RetrieveCheckoutFormRequest) (*gatewaytypes.CheckoutForm, error) {
	if req.Token == "" {
		return nil, fmt.Errorf("validation error: token is required")
	}
	var resp gatewaytypes.CheckoutForm
	if err := c.post(ctx, PathCheckoutFormRetrieve, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateRefund(ctx context.Context, req *gatewaytypes.CreateRefundRequest) (*gatewaytypes.Refund, error) {
	if req.PaymentID == "" {
		return nil, fmt.Errorf("validation error: paymentId is required")
	}
	var resp gatewaytypes.Refund
	if err := c.post(ctx, PathRefund, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateCancel(ctx context.Context, req *gatewaytypes.CreateCancelRequest) (*gatewaytypes.Cancel, error) {
	if req.PaymentID == "" {
		return nil, fmt.Errorf("validation error: paymentId is required")
	}
	var resp gatewaytypes.Cancel
	if err := c.post(ctx, PathCancel, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request creation error: %w", err)
	}

	rnd := c.randomKey()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(headerRandom, rnd)
	httpReq.Header.Set(headerClientVersion, clientVersion)
	httpReq.Header.Set("Authorization", AuthorizationHeader(c.apiKey, c.secretKey, rnd, path, body))

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("gateway request failed", "path", path, "error", err)
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("response read error: %w", err)
	}

	c.logger.Debug("gateway response received",
		"path", path,
		"http_status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	// failures arrive as {"status":"failure",...} with either 200 or 4xx
	if err := json.Unmarshal(respBody, out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("gateway API error: status %d, response: %s", resp.StatusCode, truncate(string(respBody), 256))
		}
		return fmt.Errorf("response unmarshal error: %w", err)
	}
	return nil
}

// AuthorizationHeader builds the IYZWSv2 header value for a request.
func AuthorizationHeader(apiKey, secretKey, randomKey, uriPath string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(randomKey))
	mac.Write([]byte(uriPath))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	params := "apiKey:" + apiKey + "&randomKey:" + randomKey + "&signature:" + signature
	return authPrefix + " " + base64.StdEncoding.EncodeToString([]byte(params))
}

func newRandomKey() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000))
	if err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + n.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
