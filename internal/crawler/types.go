package crawler

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// NotAvailable is written into every string field whose source element is missing.
// Downstream CSV/JSON consumers rely on it instead of missing keys
const NotAvailable = "N/A"

// ListingStub is the minimal listing data found on an index page.
// An empty ID means the URL carried no numeric id
type ListingStub struct {
	ID       string
	Title    string
	URL      string
	ImageURL *string
	Price    string
}

// Valid reports whether the stub can be merged and deduplicated
func (s ListingStub) Valid() bool {
	return s.ID != "" && s.URL != ""
}

// ListingDetail holds the attributes extracted from a detail page
type ListingDetail struct {
	Title       string
	ListingCode string
	Categories  []string
	Price       string
	Description string
	ContactName string
	Location    string
	Phone       string
	Date        string
	Images      []string
}

// EmptyDetail returns a detail with every field at its default
func EmptyDetail(listingID string) ListingDetail {
	code := listingID
	if code == "" {
		code = NotAvailable
	}
	return ListingDetail{
		Title:       NotAvailable,
		ListingCode: code,
		Categories:  []string{},
		Price:       NotAvailable,
		Description: NotAvailable,
		ContactName: NotAvailable,
		Location:    NotAvailable,
		Phone:       NotAvailable,
		Date:        NotAvailable,
		Images:      []string{},
	}
}

// AuthToken is the phone-reveal token embedded in a detail page.
// It is used once and never persisted
type AuthToken struct {
	Hash         string
	ReferrerPath string
}

// DetailResult is the tagged outcome of a detail fetch.
// Err is set when the page could not be fetched; Detail then holds defaults
type DetailResult struct {
	Detail ListingDetail
	Token  *AuthToken
	Err    error
}

// Fetched reports whether the detail page was retrieved and parsed
func (r DetailResult) Fetched() bool {
	return r.Err == nil
}

// Record is one exported listing: a stub merged with its detail
type Record struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	ImageURL    *string  `json:"image_url"`
	Price       string   `json:"price"`
	ListingCode string   `json:"listing_code"`
	Categories  []string `json:"categories"`
	Description string   `json:"description"`
	ContactName string   `json:"contact_name"`
	Location    string   `json:"location"`
	Phone       string   `json:"phone"`
	Date        string   `json:"date"`
	Images      []string `json:"images"`
}

// Merge combines a stub with its detail result. Detail values win on title and
// price; id, url and image_url always come from the stub. A detail whose fetch
// failed keeps the stub's own title and price
func Merge(stub ListingStub, result DetailResult) Record {
	d := result.Detail

	title, price := d.Title, d.Price
	if !result.Fetched() {
		title, price = stub.Title, stub.Price
	}

	categories := d.Categories
	if categories == nil {
		categories = []string{}
	}
	images := d.Images
	if images == nil {
		images = []string{}
	}

	return Record{
		ID:          stub.ID,
		Title:       title,
		URL:         stub.URL,
		ImageURL:    stub.ImageURL,
		Price:       price,
		ListingCode: d.ListingCode,
		Categories:  categories,
		Description: d.Description,
		ContactName: d.ContactName,
		Location:    d.Location,
		Phone:       d.Phone,
		Date:        d.Date,
		Images:      images,
	}
}

// Fetcher is the HTTP session surface the crawler needs
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (io.Reader, error)
	PostForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string) ([]byte, error)
}

// Crawler interface defines the steps the worker drives for one site
type Crawler interface {
	// FetchListingPage retrieves one paginated index page
	FetchListingPage(ctx context.Context, offset int) (*goquery.Document, error)

	// ExtractListings parses an index page into stubs, in page order
	ExtractListings(doc *goquery.Document) []ListingStub

	// FetchDetail retrieves and parses a listing's detail page
	FetchDetail(ctx context.Context, stub ListingStub) DetailResult

	// ResolvePhone reveals the phone number, or returns NotAvailable
	ResolvePhone(ctx context.Context, listingID string, token AuthToken, referrer string) string

	// GetName returns the crawler's name for logging and identification
	GetName() string
}

// PageFetchError is returned when an index page cannot be retrieved
type PageFetchError struct {
	Offset int
	URL    string
	Err    error
}

// Error implements the error interface
func (e *PageFetchError) Error() string {
	return fmt.Sprintf("fetch listing page %d (%s): %v", e.Offset, e.URL, e.Err)
}

// Unwrap returns the underlying error
func (e *PageFetchError) Unwrap() error {
	return e.Err
}

// Selectors contains CSS selectors for the index and detail pages
type Selectors struct {
	// Index page
	ListContainer string
	ListItem      string
	ItemLink      string
	ItemTitle     string
	ItemThumbnail string
	ItemPrice     string

	// Detail page
	Title        string
	Code         string
	Article      string
	Price        string
	Description  string
	Contact      string
	ContactName  string
	ContactPlace string
	PhoneWidget  string
	Date         string
	Gallery      string
	GalleryItem  string
}

// DefaultSelectors matches the markup of xidmetler.az
var DefaultSelectors = Selectors{
	ListContainer: "div#prodwrap",
	ListItem:      "div.nobj.prod",
	ItemLink:      "a[href]",
	ItemTitle:     "div.prodname",
	ItemThumbnail: "img[src]",
	ItemPrice:     "span.sprice",

	Title:        "h1",
	Code:         "span.open_idshow",
	Article:      "article",
	Price:        "span.pricecolor",
	Description:  "p.infop100.fullteshow",
	Contact:      "div.infocontact",
	ContactName:  "span.glyphicon-user",
	ContactPlace: "span.glyphicon-map-marker",
	PhoneWidget:  "div#telshow",
	Date:         "span.viewsbb",
	Gallery:      "div#picsopen",
	GalleryItem:  "a[rel~=slider]",
}

// CategoryPaths are the taxonomy paths a category anchor must contain.
// When the site renames them, categories degrade to an empty list
var CategoryPaths = []string{"/usta-xidmeti", "/cam-balkon"}

// CrawlerConfig contains configuration for a crawler
type CrawlerConfig struct {
	BaseURL   string
	Provider  string
	Selectors Selectors
}
