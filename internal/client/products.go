package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/example/storefront/internal/domain/product"
)

func (c *Client) ListProducts(ctx context.Context) ([]product.Product, error) {
	var products []product.Product
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &products); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, product.ErrProductNotFound
		}
		return nil, err
	}
	for i := range products {
		products[i].Image = c.resolveImage(products[i].Image)
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	var p product.Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, productErr(id, err)
	}
	p.Image = c.resolveImage(p.Image)
	return &p, nil
}

// UpdateProductStock sets the absolute stock of a product.
func (c *Client) UpdateProductStock(ctx context.Context, id string, stock int) (*product.Product, error) {
	body := struct {
		Stock int `json:"stock"`
	}{stock}
	var p product.Product
	if err := c.do(ctx, http.MethodPatch, "/api/products/"+url.PathEscape(id), body, &p); err != nil {
		return nil, productErr(id, err)
	}
	p.Image = c.resolveImage(p.Image)
	return &p, nil
}

func (c *Client) CreateProduct(ctx context.Context, p product.Product) (*product.Product, error) {
	var created product.Product
	if err := c.do(ctx, http.MethodPost, "/api/products", p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) ReplaceProduct(ctx context.Context, p product.Product) (*product.Product, error) {
	var updated product.Product
	if err := c.do(ctx, http.MethodPut, "/api/products/"+url.PathEscape(p.ID), p, &updated); err != nil {
		return nil, productErr(p.ID, err)
	}
	return &updated, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return productErr(id, c.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, nil))
}

func productErr(id string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %s", product.ErrProductNotFound, id)
	}
	return err
}
