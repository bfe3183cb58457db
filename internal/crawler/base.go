package crawler

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dealmungchi/xidmetlercrawler/helpers"
	"github.com/dealmungchi/xidmetlercrawler/logger"
	"github.com/dealmungchi/xidmetlercrawler/pkg/errors"
)

// XidmetlerCrawler implements Crawler for xidmetler.az
type XidmetlerCrawler struct {
	BaseURL   string
	Provider  string
	Selectors Selectors

	fetcher Fetcher
	log     *logger.Logger
}

// Ensure XidmetlerCrawler implements Crawler
var _ Crawler = (*XidmetlerCrawler)(nil)

// NewXidmetlerCrawler creates a crawler that issues every request through fetcher
func NewXidmetlerCrawler(config CrawlerConfig, fetcher Fetcher) *XidmetlerCrawler {
	selectors := config.Selectors
	if selectors == (Selectors{}) {
		selectors = DefaultSelectors
	}
	provider := config.Provider
	if provider == "" {
		provider = "Xidmetler"
	}

	return &XidmetlerCrawler{
		BaseURL:   strings.TrimRight(config.BaseURL, "/"),
		Provider:  provider,
		Selectors: selectors,
		fetcher:   fetcher,
		log:       logger.ForCrawler(provider),
	}
}

// GetName returns the crawler name
func (c *XidmetlerCrawler) GetName() string {
	return c.Provider + "Crawler"
}

// ResolveURL makes a site-relative link absolute
func (c *XidmetlerCrawler) ResolveURL(ref string) string {
	return helpers.ResolveURL(c.BaseURL+"/", ref)
}

// createDocument creates a goquery document from a reader
func (c *XidmetlerCrawler) createDocument(target string, reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, errors.NewParsing(target, "failed to parse HTML", err)
	}
	return doc, nil
}
