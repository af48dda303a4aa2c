package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cloudcart-storefront/internal/cache"
	"cloudcart-storefront/internal/client"
	"cloudcart-storefront/internal/model"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	imageLookupConcurrency = 4
	imageLookupTimeout     = 30 * time.Second
)

type CloudCartCatalog struct {
	client         client.CloudCartClient
	images         cache.ImageCache
	group          singleflight.Group
	defaultPerPage int
	logger         *slog.Logger
}

func NewCloudCartCatalog(c client.CloudCartClient, images cache.ImageCache, defaultPerPage int, logger *slog.Logger) *CloudCartCatalog {
	if images == nil {
		images = cache.NoopCache{}
	}
	return &CloudCartCatalog{
		client:         c,
		images:         images,
		defaultPerPage: defaultPerPage,
		logger:         logger,
	}
}

func (c *CloudCartCatalog) ListCategories(ctx context.Context, q Query) (*Page[Category], error) {
	q = q.Normalize(c.defaultPerPage)

	doc, err := c.client.ListCategories(ctx, client.ListParams{
		Page:    q.Page,
		PerPage: q.PerPage,
		Filters: map[string]string{"name": q.Search},
	})
	if err != nil {
		return nil, fmt.Errorf("cloudcart categories: %w", err)
	}

	ids := make([]string, 0, len(doc.Data))
	for _, r := range doc.Data {
		ids = append(ids, r.Attributes.ImageID.String())
	}
	urls := c.resolveImages(ctx, ids)

	items := make([]Category, 0, len(doc.Data))
	for _, r := range doc.Data {
		category := categoryFromCloudCart(r)
		category.ImageURL = urls[r.Attributes.ImageID.String()]
		items = append(items, category)
	}

	return &Page[Category]{Items: items, Meta: metaFromCloudCart(doc.Meta.Page, q, len(items))}, nil
}

func (c *CloudCartCatalog) GetCategory(ctx context.Context, categoryID string) (*Category, error) {
	r, err := c.client.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, notFoundOr(err)
	}

	category := categoryFromCloudCart(*r)
	category.ImageURL = c.resolveImages(ctx, []string{r.Attributes.ImageID.String()})[r.Attributes.ImageID.String()]
	return &category, nil
}

func (c *CloudCartCatalog) ListProducts(ctx context.Context, categoryID string, q Query) (*Page[Product], error) {
	q = q.Normalize(c.defaultPerPage)

	doc, err := c.client.ListProducts(ctx, client.ListParams{
		Page:    q.Page,
		PerPage: q.PerPage,
		Filters: map[string]string{
			"category_id": categoryID,
			"name":        q.Search,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cloudcart products: %w", err)
	}

	items := make([]Product, 0, len(doc.Data))
	ids := make([]string, 0, len(doc.Data))
	for _, r := range doc.Data {
		items = append(items, productFromCloudCart(r))
		ids = append(ids, r.Attributes.ImageID.String())
	}

	urls := c.resolveImages(ctx, ids)
	for i := range items {
		items[i].ImageURL = urls[items[i].ImageID]
	}

	return &Page[Product]{Items: items, Meta: metaFromCloudCart(doc.Meta.Page, q, len(items))}, nil
}

func (c *CloudCartCatalog) GetProduct(ctx context.Context, productID string) (*Product, error) {
	r, err := c.client.GetProduct(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err)
	}

	product := productFromCloudCart(*r)
	product.ImageURL = c.resolveImages(ctx, []string{product.ImageID})[product.ImageID]
	return &product, nil
}

func (c *CloudCartCatalog) ListVariants(ctx context.Context, productID string) ([]Variant, error) {
	resources, err := c.client.ListVariants(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err)
	}

	ids := make([]string, 0, len(resources))
	for _, r := range resources {
		ids = append(ids, r.Attributes.ImageID.String())
	}
	urls := c.resolveImages(ctx, ids)

	variants := make([]Variant, 0, len(resources))
	for _, r := range resources {
		price, _ := r.Attributes.Price.Float()
		quantity, _ := r.Attributes.Quantity.Float()

		owner := r.Attributes.ProductID.String()
		if owner == "" {
			owner = productID
		}

		variants = append(variants, Variant{
			ID:        r.ID,
			ProductID: owner,
			Name:      variantName(r.Attributes),
			SKU:       r.Attributes.SKU,
			Price:     price,
			Quantity:  int(quantity),
			ImageURL:  urls[r.Attributes.ImageID.String()],
			Source:    SourceCloudCart,
		})
	}
	return variants, nil
}

func (c *CloudCartCatalog) UpdateVariantStock(ctx context.Context, variantID string, quantity int) error {
	if err := c.client.UpdateVariantQuantity(ctx, variantID, quantity); err != nil {
		return notFoundOr(err)
	}
	return nil
}

// resolveImages maps image ids to URLs through the cache, fetching misses from CloudCart.
// Lookup failures leave the URL empty.
func (c *CloudCartCatalog) resolveImages(ctx context.Context, imageIDs []string) map[string]string {
	var (
		mu   sync.Mutex
		urls = make(map[string]string, len(imageIDs))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imageLookupConcurrency)

	seen := make(map[string]struct{}, len(imageIDs))
	for _, id := range imageIDs {
		if id == "" || id == "0" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		g.Go(func() error {
			url, err := c.imageURL(gctx, id)
			if err != nil {
				c.logger.WarnContext(gctx, "cloudcart image lookup failed", "image_id", id, "error", err)
				return nil
			}
			mu.Lock()
			urls[id] = url
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return urls
}

func (c *CloudCartCatalog) imageURL(ctx context.Context, imageID string) (string, error) {
	url, err := c.images.Get(ctx, imageID)
	if err == nil {
		return url, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		c.logger.WarnContext(ctx, "image cache read failed", "image_id", imageID, "error", err)
	}

	// the shared lookup outlives whichever caller started it
	ch := c.group.DoChan(imageID, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), imageLookupTimeout)
		defer cancel()

		url, err := c.client.GetImage(lookupCtx, imageID)
		if err != nil {
			return "", err
		}
		if err := c.images.Set(lookupCtx, imageID, url); err != nil {
			c.logger.WarnContext(lookupCtx, "image cache write failed", "image_id", imageID, "error", err)
		}
		return url, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func notFoundOr(err error) error {
	if client.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func metaFromCloudCart(p model.CloudCartPage, q Query, count int) PageMeta {
	if p.CurrentPage == 0 {
		// platform omitted pagination; treat the response as the whole result set
		return NewPageMeta(q.Page, q.PerPage, int64((q.Page-1)*q.PerPage+count))
	}

	meta := PageMeta{
		CurrentPage: p.CurrentPage,
		PerPage:     p.PerPage,
		From:        p.From,
		To:          p.To,
		Total:       int64(p.Total),
		LastPage:    p.LastPage,
	}
	if meta.PerPage == 0 {
		meta.PerPage = q.PerPage
	}
	if meta.LastPage == 0 {
		meta.LastPage = 1
	}
	return meta
}

func categoryFromCloudCart(r model.CloudCartResource[model.CloudCartCategoryAttributes]) Category {
	return Category{
		ID:       r.ID,
		Name:     r.Attributes.Name,
		Slug:     r.Attributes.URLHandle,
		ParentID: r.Attributes.ParentID.Ptr(),
		Position: r.Attributes.Order,
		Source:   SourceCloudCart,
	}
}

func productFromCloudCart(r model.CloudCartResource[model.CloudCartProductAttributes]) Product {
	a := r.Attributes

	price, _ := a.PriceFrom.Float()
	quantity, _ := a.Quantity.Float()

	product := Product{
		ID:          r.ID,
		CategoryID:  a.CategoryID.String(),
		Name:        a.Name,
		Slug:        a.URLHandle,
		SKU:         a.SKU,
		Description: a.Description,
		Price:       price,
		Quantity:    int(quantity),
		InStock:     quantity > 0,
		ImageID:     a.ImageID.String(),
		Source:      SourceCloudCart,
	}
	if priceTo, ok := a.PriceTo.Float(); ok && priceTo > price {
		product.PriceMax = priceTo
	}
	return product
}

func variantName(a model.CloudCartVariantAttributes) string {
	parts := make([]string, 0, 3)
	for _, v := range []string{a.V1, a.V2, a.V3} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " / ")
}
