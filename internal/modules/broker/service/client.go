package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const contractPrefix = "tinkoff.public.invest.api.contract.v1."

type Config struct {
	BaseURL      string
	Token        string
	Timeout      time.Duration
	RateLimitRPS float64
	RateBurst    int
}

// Client: REST-прокси Tinkoff Invest API.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	limiter *rate.Limiter

	accountID string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// AccountID: счёт, выбранный ResolveAccount.
func (c *Client) AccountID() string { return c.accountID }

// SetAccountID: только для тестов, в проде счёт выставляет ResolveAccount.
func (c *Client) SetAccountID(id string) { c.accountID = id }

// APIError: ответ API с кодом ошибки.
type APIError struct {
	HTTPStatus  int
	Code        int    `json:"code"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("http %d: code=%d message=%s %s", e.HTTPStatus, e.Code, e.Message, e.Description)
}

// call: POST {base}/<contract>.<Service>/<Method>.
func (c *Client) call(ctx context.Context, svc, method string, in, out any) error {
	rpc := svc + "/" + method
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "%s rate limit", rpc)
	}

	payload, err := sonic.Marshal(in)
	if err != nil {
		return errors.Wrapf(err, "%s marshal", rpc)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/"+contractPrefix+rpc, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrapf(err, "%s new request", rpc)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s do", rpc)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "%s read body", rpc)
	}

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{HTTPStatus: resp.StatusCode}
		if uerr := sonic.Unmarshal(data, apiErr); uerr != nil || apiErr.Message == "" {
			apiErr.Message = string(data)
		}
		return errors.Wrap(apiErr, rpc)
	}

	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "%s decode", rpc)
	}
	return nil
}
