package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cloudcart-storefront/internal/config"
	"cloudcart-storefront/internal/model"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// --- INTERFACE ---

type CloudCartClient interface {
	ListCategories(ctx context.Context, params ListParams) (*model.CloudCartDocument[model.CloudCartCategoryAttributes], error)
	GetCategory(ctx context.Context, categoryID string) (*model.CloudCartResource[model.CloudCartCategoryAttributes], error)
	ListProducts(ctx context.Context, params ListParams) (*model.CloudCartDocument[model.CloudCartProductAttributes], error)
	GetProduct(ctx context.Context, productID string) (*model.CloudCartResource[model.CloudCartProductAttributes], error)
	ListVariants(ctx context.Context, productID string) ([]model.CloudCartResource[model.CloudCartVariantAttributes], error)
	UpdateVariantQuantity(ctx context.Context, variantID string, quantity int) error
	// GetImage resolves an image id to its URL; products only reference images by id.
	GetImage(ctx context.Context, imageID string) (string, error)
	// ListOrders decodes each order on its own; orders that fail to decode are returned in Rejected.
	ListOrders(ctx context.Context, filter OrderFilter) (*OrderBatch, error)
	ListOrderProducts(ctx context.Context, orderID string) ([]model.CloudCartOrderProduct, error)
}

type ListParams struct {
	Page    int
	PerPage int
	Filters map[string]string
	Sort    string
}

type OrderFilter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Status   string
	Limit    int
}

type OrderBatch struct {
	Orders   []model.CloudCartOrder
	Rejected []RejectedOrder
}

// RejectedOrder is an order that came back in the list but could not be decoded.
type RejectedOrder struct {
	ID  string // best effort, empty when even the id is unreadable
	Raw json.RawMessage
	Err error
}

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cloudcart error %d: %s", e.StatusCode, e.Body)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// --- IMPLEMENTATION ---

// upper bound for endpoints that are read to the last page
const maxListPages = 50

type cloudCartClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	apiKey     string
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

func NewCloudCartClient(cfg *config.CloudCart) CloudCartClient {
	return NewCloudCartClientWithHTTP(cfg, &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

func NewCloudCartClientWithHTTP(cfg *config.CloudCart, httpClient *http.Client) CloudCartClient {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "cloudcart",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 4xx answers mean the platform is up
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
	})

	return &cloudCartClientImpl{
		httpClient: httpClient,
		baseApiURL: strings.TrimRight(cfg.BaseApiURL, "/"),
		apiKey:     cfg.ApiKey,
		breaker:    breaker,
	}
}

func (c *cloudCartClientImpl) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		var body io.Reader
		if payload != nil {
			b, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("marshal req payload: %w", err)
			}
			body = bytes.NewReader(b)
		}

		endpoint := c.baseApiURL + "/api/v2" + path
		if len(query) > 0 {
			endpoint += "?" + query.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return nil, fmt.Errorf("http new request: %w", err)
		}
		req.Header.Set("X-CloudCart-ApiKey", c.apiKey)
		req.Header.Set("Accept", "application/vnd.api+json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/vnd.api+json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http client do: %w", err)
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		}
		return b, nil
	})
}

func (c *cloudCartClientImpl) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	b, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode cloudcart response %s: %w", path, err)
	}
	return nil
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page[number]", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("page[size]", strconv.Itoa(p.PerPage))
	}
	for key, value := range p.Filters {
		if value != "" {
			v.Set("filter["+key+"]", value)
		}
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	return v
}

func (c *cloudCartClientImpl) ListCategories(ctx context.Context, params ListParams) (*model.CloudCartDocument[model.CloudCartCategoryAttributes], error) {
	var doc model.CloudCartDocument[model.CloudCartCategoryAttributes]
	if err := c.getJSON(ctx, "/categories", params.values(), &doc); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return &doc, nil
}

func (c *cloudCartClientImpl) GetCategory(ctx context.Context, categoryID string) (*model.CloudCartResource[model.CloudCartCategoryAttributes], error) {
	var doc model.CloudCartSingle[model.CloudCartCategoryAttributes]
	if err := c.getJSON(ctx, "/categories/"+url.PathEscape(categoryID), nil, &doc); err != nil {
		return nil, fmt.Errorf("get category %s: %w", categoryID, err)
	}
	return &doc.Data, nil
}

func (c *cloudCartClientImpl) ListProducts(ctx context.Context, params ListParams) (*model.CloudCartDocument[model.CloudCartProductAttributes], error) {
	var doc model.CloudCartDocument[model.CloudCartProductAttributes]
	if err := c.getJSON(ctx, "/products", params.values(), &doc); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &doc, nil
}

func (c *cloudCartClientImpl) GetProduct(ctx context.Context, productID string) (*model.CloudCartResource[model.CloudCartProductAttributes], error) {
	var doc model.CloudCartSingle[model.CloudCartProductAttributes]
	if err := c.getJSON(ctx, "/products/"+url.PathEscape(productID), nil, &doc); err != nil {
		return nil, fmt.Errorf("get product %s: %w", productID, err)
	}
	return &doc.Data, nil
}

func (c *cloudCartClientImpl) ListVariants(ctx context.Context, productID string) ([]model.CloudCartResource[model.CloudCartVariantAttributes], error) {
	var variants []model.CloudCartResource[model.CloudCartVariantAttributes]

	for page := 1; page <= maxListPages; page++ {
		params := ListParams{
			Page:    page,
			PerPage: 100,
			Filters: map[string]string{"item_id": productID},
		}

		var doc model.CloudCartDocument[model.CloudCartVariantAttributes]
		if err := c.getJSON(ctx, "/variants", params.values(), &doc); err != nil {
			return nil, fmt.Errorf("list variants of %s: %w", productID, err)
		}
		variants = append(variants, doc.Data...)

		if doc.Meta.Page.LastPage <= page {
			break
		}
	}

	return variants, nil
}

func (c *cloudCartClientImpl) UpdateVariantQuantity(ctx context.Context, variantID string, quantity int) error {
	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"type": "variants",
			"id":   variantID,
			"attributes": map[string]interface{}{
				"quantity": quantity,
			},
		},
	}

	if _, err := c.do(ctx, http.MethodPatch, "/variants/"+url.PathEscape(variantID), nil, payload); err != nil {
		return fmt.Errorf("update variant %s quantity: %w", variantID, err)
	}
	return nil
}

func (c *cloudCartClientImpl) GetImage(ctx context.Context, imageID string) (string, error) {
	var doc model.CloudCartSingle[model.CloudCartImageAttributes]
	if err := c.getJSON(ctx, "/images/"+url.PathEscape(imageID), nil, &doc); err != nil {
		return "", fmt.Errorf("get image %s: %w", imageID, err)
	}
	if doc.Data.Attributes.URL != "" {
		return doc.Data.Attributes.URL, nil
	}
	return doc.Data.Attributes.Src, nil
}

type cloudCartOrderDocument struct {
	Data []json.RawMessage   `json:"data"`
	Meta model.CloudCartMeta `json:"meta"`
}

func (c *cloudCartClientImpl) ListOrders(ctx context.Context, filter OrderFilter) (*OrderBatch, error) {
	params := ListParams{
		Page:    1,
		PerPage: filter.Limit,
		Sort:    "-id",
		Filters: map[string]string{
			"status": filter.Status,
		},
	}
	if filter.DateFrom != nil {
		params.Filters["date_from"] = filter.DateFrom.Format("2006-01-02")
	}
	if filter.DateTo != nil {
		params.Filters["date_to"] = filter.DateTo.Format("2006-01-02")
	}

	var doc cloudCartOrderDocument
	if err := c.getJSON(ctx, "/orders", params.values(), &doc); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return DecodeOrders(doc.Data), nil
}

// DecodeOrders decodes every raw order independently so one malformed record does not
// hide the rest of the page.
func DecodeOrders(raw []json.RawMessage) *OrderBatch {
	batch := &OrderBatch{Orders: make([]model.CloudCartOrder, 0, len(raw))}
	for _, data := range raw {
		var order model.CloudCartOrder
		if err := json.Unmarshal(data, &order); err != nil {
			var ident struct {
				ID model.FlexString `json:"id"`
			}
			_ = json.Unmarshal(data, &ident)
			batch.Rejected = append(batch.Rejected, RejectedOrder{
				ID:  ident.ID.String(),
				Raw: data,
				Err: fmt.Errorf("decode cloudcart order: %w", err),
			})
			continue
		}
		batch.Orders = append(batch.Orders, order)
	}
	return batch
}

func (c *cloudCartClientImpl) ListOrderProducts(ctx context.Context, orderID string) ([]model.CloudCartOrderProduct, error) {
	var lines []model.CloudCartOrderProduct

	for page := 1; page <= maxListPages; page++ {
		params := ListParams{
			Page:    page,
			PerPage: 100,
			Filters: map[string]string{"order_id": orderID},
		}

		var doc model.CloudCartDocument[model.CloudCartOrderProductAttributes]
		if err := c.getJSON(ctx, "/order-products", params.values(), &doc); err != nil {
			return nil, fmt.Errorf("list products of order %s: %w", orderID, err)
		}
		lines = append(lines, doc.Data...)

		if doc.Meta.Page.LastPage <= page {
			break
		}
	}

	return lines, nil
}
