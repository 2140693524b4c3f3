package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ProductExtractor reads a ProductRecord from a product detail page.
type ProductExtractor struct {
	Selectors Selectors
	Timing    Timing
	Observer  Observer
	logger    *slog.Logger
}

func NewProductExtractor(sel Selectors, timing Timing, obs Observer, logger *slog.Logger) *ProductExtractor {
	if obs == nil {
		obs = nopObserver{}
	}
	return &ProductExtractor{
		Selectors: sel,
		Timing:    timing,
		Observer:  obs,
		logger:    logger.With("component", "product_extractor"),
	}
}

// Extract returns the record for productURL. On any failure it reports the
// product as failed and returns the zero record with an error; callers must
// omit the product rather than keep a partial record.
func (pe *ProductExtractor) Extract(ctx context.Context, sess Session, productURL string) (ProductRecord, error) {
	rec, err := pe.read(ctx, sess, productURL)
	if err != nil {
		pe.logger.Warn("product extraction failed", "url", productURL, "error", err)
		notify(pe.Observer, Event{Kind: EventProductFailed, URL: productURL, Err: err})
		return ProductRecord{}, err
	}

	pe.logger.Debug("product extracted", "url", productURL, "brand", rec.Brand, "code", rec.Code)
	notify(pe.Observer, Event{Kind: EventProductScraped, URL: productURL})
	return rec, nil
}

func (pe *ProductExtractor) read(ctx context.Context, sess Session, productURL string) (ProductRecord, error) {
	if err := sess.Visit(ctx, productURL); err != nil {
		return ProductRecord{}, fmt.Errorf("failed to open product page: %w", err)
	}
	if err := sess.Settle(ctx, pe.Timing.ProductSettle); err != nil {
		return ProductRecord{}, err
	}

	container, err := sess.WaitFor(ctx, pe.Selectors.ProductContainer, pe.Timing.WaitTimeout)
	if err != nil {
		return ProductRecord{}, err
	}

	brand, err := firstText(ctx, sess, pe.Selectors.ProductBrand)
	if err != nil {
		return ProductRecord{}, err
	}
	name, err := firstText(ctx, sess, pe.Selectors.ProductName)
	if err != nil {
		return ProductRecord{}, err
	}
	code, err := firstText(ctx, sess, pe.Selectors.ProductCode)
	if err != nil {
		return ProductRecord{}, err
	}
	raw, err := container.Text()
	if err != nil {
		return ProductRecord{}, fmt.Errorf("%w: %s: %v", ErrExtractionIncomplete, pe.Selectors.ProductContainer, err)
	}

	return ProductRecord{
		URL:     productURL,
		Brand:   brand,
		Name:    name,
		Code:    strings.TrimSpace(strings.ReplaceAll(code, pe.Selectors.CodePrefix, "")),
		RawText: raw,
	}, nil
}

// firstText returns the text of the first element matching selector.
func firstText(ctx context.Context, sess Session, selector string) (string, error) {
	els, err := sess.FindAll(ctx, selector)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExtractionIncomplete, selector, err)
	}
	if len(els) == 0 {
		return "", fmt.Errorf("%w: %s: %w", ErrExtractionIncomplete, selector, ErrElementNotFound)
	}
	text, err := els[0].Text()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExtractionIncomplete, selector, err)
	}
	return text, nil
}
