package crawler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDetail(t *testing.T) {
	c := newTestCrawler("https://xidmetler.az")
	detail, token := c.ExtractDetail(newDocument(t, detailHTML), "101")

	assert.Equal(t, "Santexnik xidməti 24/7", detail.Title)
	assert.Equal(t, "101", detail.ListingCode)
	// Navigation links between category anchors are ignored
	assert.Equal(t, []string{"Usta xidməti", "Santexnik"}, detail.Categories)
	assert.Equal(t, "30 AZN", detail.Price)
	assert.Equal(t, "Hər növ santexnika işləri görülür.", detail.Description)
	assert.Equal(t, "Elvin", detail.ContactName)
	assert.Equal(t, "Bakı, Nəsimi r.", detail.Location)
	assert.Equal(t, NotAvailable, detail.Phone)
	assert.Equal(t, "12.03.2025", detail.Date)
	assert.Equal(t, []string{
		"https://xidmetler.az/uploads/big/101-1.jpg",
		"https://cdn.xidmetler.az/101-2.jpg",
	}, detail.Images)

	require.NotNil(t, token)
	assert.Equal(t, "a1b2c3", token.Hash)
	assert.Equal(t, "usta-xidmeti/santexnik-xidmeti-101.html", token.ReferrerPath)
}

func TestExtractDetailWithoutContactBlock(t *testing.T) {
	c := newTestCrawler("https://xidmetler.az")
	detail, token := c.ExtractDetail(newDocument(t, detailNoContactHTML), "202")

	assert.Equal(t, NotAvailable, detail.ContactName)
	assert.Equal(t, NotAvailable, detail.Location)
	assert.Nil(t, token)

	// Everything else still extracts
	assert.Equal(t, "Alüminium pəncərə", detail.Title)
	assert.Equal(t, "202", detail.ListingCode)
	assert.Equal(t, []string{"Cam balkon"}, detail.Categories)
	assert.Equal(t, "120 AZN", detail.Price)
	assert.Equal(t, "Pəncərə quraşdırılması.", detail.Description)
	assert.Equal(t, "01.02.2025", detail.Date)
	assert.Equal(t, []string{"https://xidmetler.az/uploads/big/202-1.jpg"}, detail.Images)
}

func TestExtractDetailEmptyPage(t *testing.T) {
	c := newTestCrawler("https://xidmetler.az")
	detail, token := c.ExtractDetail(newDocument(t, `<html><body></body></html>`), "303")

	assert.Nil(t, token)
	assert.Equal(t, EmptyDetail("303"), detail)
	assert.Equal(t, "303", detail.ListingCode, "listing code falls back to the stub id")
	assert.NotNil(t, detail.Categories)
	assert.Empty(t, detail.Categories)
	assert.NotNil(t, detail.Images)
	assert.Empty(t, detail.Images)
}

func TestExtractDetailPartialContact(t *testing.T) {
	markup := `<div class="infocontact">
		<span class="glyphicon glyphicon-user"></span><b>Gizli</b>
		<span class="glyphicon glyphicon-map-marker"></span> Sumqayıt
	</div>
	<span class="open_idshow">Kod yoxdur</span>
	<span class="viewsbb">Baxış: 12</span>
	<div id="telshow"></div>`

	c := newTestCrawler("https://xidmetler.az")
	detail, token := c.ExtractDetail(newDocument(t, markup), "404")

	// An element right after the icon is not a name
	assert.Equal(t, NotAvailable, detail.ContactName)
	assert.Equal(t, "Sumqayıt", detail.Location)
	assert.Equal(t, "404", detail.ListingCode, "code without digits falls back to the stub id")
	assert.Equal(t, NotAvailable, detail.Date)
	assert.Nil(t, token, "a widget without a hash carries no token")
}

func TestExtractCategoriesLimit(t *testing.T) {
	markup := `<article>
		<a href="/cam-balkon/">Bir</a>
		<a href="/usta-xidmeti/a/">İki</a>
		<a href="/usta-xidmeti/b/">Üç</a>
	</article>`

	categories := extractCategories(newDocument(t, markup).Find("article"))
	assert.Equal(t, []string{"Bir", "İki"}, categories)
}

func TestExtractCategoriesSkipsLeadingNavigation(t *testing.T) {
	// Non-category anchors ahead of the categories do not use up the two slots
	markup := `<article>
		<a href="/">Ana səhifə</a>
		<a href="/usta-xidmeti/">Usta xidməti</a>
		<a href="/usta-xidmeti/santexnik/">Santexnik</a>
	</article>`

	categories := extractCategories(newDocument(t, markup).Find("article"))
	assert.Equal(t, []string{"Usta xidməti", "Santexnik"}, categories)
}

func TestFetchDetail(t *testing.T) {
	server := newSiteServer(t, map[string]http.HandlerFunc{
		"/usta-xidmeti/santexnik-xidmeti-101.html": writeHTML(detailHTML),
	})

	c := newTestCrawler(server.URL)
	stub := ListingStub{ID: "101", URL: server.URL + "/usta-xidmeti/santexnik-xidmeti-101.html"}

	result := c.FetchDetail(context.Background(), stub)
	require.True(t, result.Fetched())
	assert.Equal(t, "Elvin", result.Detail.ContactName)
	assert.Equal(t, server.URL+"/uploads/big/101-1.jpg", result.Detail.Images[0])
	require.NotNil(t, result.Token)
}

func TestFetchDetailFailure(t *testing.T) {
	server := newSiteServer(t, map[string]http.HandlerFunc{
		"/": func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		},
	})

	c := newTestCrawler(server.URL)
	stub := ListingStub{ID: "555", URL: server.URL + "/gone-555.html"}

	result := c.FetchDetail(context.Background(), stub)
	assert.False(t, result.Fetched())
	assert.Error(t, result.Err)
	assert.Nil(t, result.Token)
	assert.Equal(t, EmptyDetail("555"), result.Detail)
}
