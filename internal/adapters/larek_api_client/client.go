package larek_api_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"web-larek/internal/constants"
	"web-larek/internal/contextkeys"
	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"
)

// Ответы больше этого размера считаем ошибкой магазина.
const maxResponseBytes = 4 << 20

type Config struct {
	BaseURL string
	CDNURL  string
	Timeout time.Duration
}

// Client ходит в API магазина и всегда отвечает конвертом.
type Client struct {
	baseURL    string
	cdnURL     string
	httpClient *http.Client
}

var (
	_ port.APIPort           = (*Client)(nil)
	_ port.CatalogSourcePort = (*Client)(nil)
)

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cdnURL:     strings.TrimRight(cfg.CDNURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// newRequest - внутренний хелпер: trace_id и общие заголовки
func (c *Client) newRequest(ctx context.Context, method, uri string, body io.Reader) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(uri, "/")
	if _, err := url.ParseRequestURI(target); err != nil {
		return nil, fmt.Errorf("invalid request url %q: %w", target, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set(constants.HeaderXTraceID, traceID)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, req *http.Request) *domain.APIResponse[json.RawMessage] {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "LarekApiClient",
		"method":    req.Method,
		"url":       req.URL.String(),
	})
	logger.Debug("Sending request to shop API", nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("Failed to perform request to shop API", err, nil)
		return domain.Failed[json.RawMessage](fmt.Sprintf("request failed: %v", err))
	}

	result := c.HandleResponse(resp)
	if !result.Success {
		logger.Warn("Shop API returned failure", port.Fields{"status_code": resp.StatusCode, "error": result.Error})
	}
	return result
}

// Get выполняет GET uri относительно базового адреса.
func (c *Client) Get(ctx context.Context, uri string) (*domain.APIResponse[json.RawMessage], error) {
	req, err := c.newRequest(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req), nil
}

// Post отправляет data как JSON.
func (c *Client) Post(ctx context.Context, uri string, data any) (*domain.APIResponse[json.RawMessage], error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, uri, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req), nil
}

// HandleResponse превращает ответ магазина в конверт и закрывает тело.
// 2xx: тело целиком становится Result, если только оно само не конверт.
// Иначе: Error берется из поля error тела или из текста статуса.
func (c *Client) HandleResponse(resp *http.Response) *domain.APIResponse[json.RawMessage] {
	if resp == nil {
		return domain.Failed[json.RawMessage]("empty response")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return domain.Failed[json.RawMessage](fmt.Sprintf("failed to read response body: %v", err))
	}
	if len(body) > maxResponseBytes {
		return domain.Failed[json.RawMessage]("response body too large")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
			return domain.Failed[json.RawMessage](eb.Error)
		}
		return domain.Failed[json.RawMessage](statusText(resp))
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return domain.OK(json.RawMessage("null"))
	}
	if !json.Valid(body) {
		return domain.Failed[json.RawMessage]("malformed JSON response")
	}

	var head envelopeHead
	if json.Unmarshal(body, &head) == nil && head.Success != nil {
		if *head.Success {
			return domain.OK(head.Result)
		}
		return domain.Failed[json.RawMessage](head.Error)
	}
	return domain.OK(json.RawMessage(body))
}

func statusText(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// GetProducts загружает каталог и приводит картинки к полным адресам CDN.
func (c *Client) GetProducts(ctx context.Context) ([]domain.ProductServer, error) {
	raw, err := c.Get(ctx, "/product")
	if err != nil {
		return nil, err
	}
	list := domain.DecodeResult[domain.ProductList](raw)
	if !list.Success {
		return nil, list.Err()
	}

	items := make([]domain.ProductServer, len(list.Result.Items))
	for i, p := range list.Result.Items {
		items[i] = c.withCDN(p)
	}
	return items, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.ProductServer, error) {
	raw, err := c.Get(ctx, "/product/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	res := domain.DecodeResult[domain.ProductServer](raw)
	if !res.Success {
		if res.Error == "NotFound" {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		return nil, res.Err()
	}
	if res.Result.ID == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	p := c.withCDN(res.Result)
	return &p, nil
}

// PostOrder отправляет заказ; магазин отвечает {id, total}.
func (c *Client) PostOrder(ctx context.Context, order domain.OrderServer) (*domain.OrderResult, error) {
	raw, err := c.Post(ctx, "/order", order)
	if err != nil {
		return nil, err
	}
	res := domain.DecodeResult[domain.OrderResult](raw)
	if !res.Success {
		return nil, res.Err()
	}
	if res.Result.ID == "" {
		return nil, &domain.UpstreamError{Message: "order response has no id"}
	}
	return &res.Result, nil
}

func (c *Client) withCDN(p domain.ProductServer) domain.ProductServer {
	if c.cdnURL == "" || p.Image == "" {
		return p
	}
	if strings.HasPrefix(p.Image, "http://") || strings.HasPrefix(p.Image, "https://") {
		return p
	}
	p.Image = c.cdnURL + "/" + strings.TrimLeft(p.Image, "/")
	return p
}
