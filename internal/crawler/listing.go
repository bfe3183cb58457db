package crawler

import (
	"context"
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/dealmungchi/xidmetlercrawler/logger"
)

var listingIDRegex = regexp.MustCompile(`-(\d+)\.html`)

// ExtractListingID returns the numeric id from a ".../<slug>-<id>.html" URL.
// ok is false when the URL carries no such suffix; the caller drops the listing
func ExtractListingID(link string) (string, bool) {
	m := listingIDRegex.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ListingPageURL returns the index page URL for a zero-based offset
func (c *XidmetlerCrawler) ListingPageURL(offset int) string {
	return fmt.Sprintf("%s/homelist/?start=%d", c.BaseURL, offset)
}

// FetchListingPage fetches one index page. Any failure comes back as a
// *PageFetchError carrying the offset; nothing is retried here
func (c *XidmetlerCrawler) FetchListingPage(ctx context.Context, offset int) (*goquery.Document, error) {
	pageURL := c.ListingPageURL(offset)
	c.log.Info().Int("offset", offset).Str("url", pageURL).Msg("Fetching listing page")

	body, err := c.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, &PageFetchError{Offset: offset, URL: pageURL, Err: err}
	}

	doc, err := c.createDocument(pageURL, body)
	if err != nil {
		return nil, &PageFetchError{Offset: offset, URL: pageURL, Err: err}
	}
	return doc, nil
}

// ExtractListings parses an index page into stubs in page order
func (c *XidmetlerCrawler) ExtractListings(doc *goquery.Document) []ListingStub {
	return extractListings(doc.Selection, c.Selectors, c.ResolveURL)
}

func extractListings(root *goquery.Selection, sel Selectors, resolve func(string) string) []ListingStub {
	log := logger.ForExtractor()
	stubs := []ListingStub{}

	container := root.Find(sel.ListContainer).First()
	if container.Length() == 0 {
		log.Warn().Str("selector", sel.ListContainer).Msg("No listing container found on page")
		return stubs
	}

	// Both class markers are required; decorative entries carry only one
	items := container.Find(sel.ListItem)
	if items.Length() == 0 {
		log.Warn().Str("selector", sel.ListItem).Msg("Listing container has no entries")
		return stubs
	}
	log.Info().Int("count", items.Length()).Msg("Found listings on page")

	items.Each(func(i int, s *goquery.Selection) {
		href := attrOf(s, sel.ItemLink, "href")
		if !href.found {
			log.Debug().Int("index", i).Msg("Skipping entry without link")
			return
		}

		link := resolve(href.value)
		id, _ := ExtractListingID(link)

		var imageURL *string
		if src := attrOf(s, sel.ItemThumbnail, "src"); src.found {
			if abs := resolve(src.value); abs != "" {
				imageURL = &abs
			}
		}

		stubs = append(stubs, ListingStub{
			ID:       id,
			Title:    textOf(s, sel.ItemTitle).orNA(),
			URL:      link,
			ImageURL: imageURL,
			Price:    textOf(s, sel.ItemPrice).orNA(),
		})
	})

	return stubs
}
