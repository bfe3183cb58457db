package crawler

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dealmungchi/xidmetlercrawler/logger"
)

var (
	codeRegex = regexp.MustCompile(`(\d+)`)
	dateRegex = regexp.MustCompile(`Tarix:\s*(.+)`)
)

// FetchDetail fetches and parses a listing's detail page. A failed fetch
// yields default fields tagged with the cause instead of an error
func (c *XidmetlerCrawler) FetchDetail(ctx context.Context, stub ListingStub) DetailResult {
	c.log.Info().Str("listing_id", stub.ID).Str("url", stub.URL).Msg("Fetching detail page")

	body, err := c.fetcher.Get(ctx, stub.URL)
	if err != nil {
		return DetailResult{Detail: EmptyDetail(stub.ID), Err: err}
	}

	doc, err := c.createDocument(stub.URL, body)
	if err != nil {
		return DetailResult{Detail: EmptyDetail(stub.ID), Err: err}
	}

	detail, token := c.ExtractDetail(doc, stub.ID)
	return DetailResult{Detail: detail, Token: token}
}

// ExtractDetail reads every detail field independently from doc.
// The phone is left at NotAvailable; the worker fills it via ResolvePhone
func (c *XidmetlerCrawler) ExtractDetail(doc *goquery.Document, listingID string) (ListingDetail, *AuthToken) {
	return extractDetail(doc.Selection, listingID, c.Selectors, c.ResolveURL)
}

func extractDetail(root *goquery.Selection, listingID string, sel Selectors, resolve func(string) string) (ListingDetail, *AuthToken) {
	detail := EmptyDetail(listingID)

	detail.Title = textOf(root, sel.Title).orNA()
	detail.ListingCode = matchOf(textOf(root, sel.Code), codeRegex).or(detail.ListingCode)
	detail.Categories = extractCategories(root.Find(sel.Article).First())
	detail.Price = textOf(root, sel.Price).orNA()
	detail.Description = textOf(root, sel.Description).orNA()

	// Both contact fields share one block but fall back independently
	contact := root.Find(sel.Contact).First()
	detail.ContactName = textAfter(contact, sel.ContactName).orNA()
	detail.Location = textAfter(contact, sel.ContactPlace).orNA()

	detail.Date = matchOf(textOf(root, sel.Date), dateRegex).orNA()
	detail.Images = extractImages(root.Find(sel.Gallery).First(), sel.GalleryItem, resolve)

	token := extractToken(root, sel.PhoneWidget)
	if token == nil {
		logger.ForExtractor().Debug().Str("listing_id", listingID).Msg("No phone widget on detail page")
	}

	return detail, token
}

// extractCategories keeps the first two article links pointing into a known
// category path. Breadcrumb and navigation links are skipped
func extractCategories(article *goquery.Selection) []string {
	categories := []string{}
	article.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !isCategoryPath(href) {
			return true
		}
		if text := strings.TrimSpace(a.Text()); text != "" {
			categories = append(categories, text)
		}
		return len(categories) < 2
	})
	return categories
}

func isCategoryPath(href string) bool {
	for _, p := range CategoryPaths {
		if strings.Contains(href, p) {
			return true
		}
	}
	return false
}

func extractImages(gallery *goquery.Selection, itemSelector string, resolve func(string) string) []string {
	images := []string{}
	gallery.Find(itemSelector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		if abs := resolve(href); abs != "" {
			images = append(images, abs)
		}
	})
	return images
}

// extractToken reads the hash and referrer from the hidden phone widget
func extractToken(root *goquery.Selection, selector string) *AuthToken {
	hash := attrOf(root, selector, "data-h")
	if !hash.found {
		return nil
	}
	return &AuthToken{
		Hash:         hash.value,
		ReferrerPath: attrOf(root, selector, "data-rf").or(""),
	}
}
