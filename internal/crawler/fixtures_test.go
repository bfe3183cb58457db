package crawler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/dealmungchi/xidmetlercrawler/helpers"
)

// indexHTML has two real listings, one decorative entry with a single marker,
// one listing without a numeric id and one entry without a link
const indexHTML = `<!DOCTYPE html>
<html><body>
<div id="prodwrap">
  <div class="nobj prod">
    <a href="/usta-xidmeti/santexnik-xidmeti-101.html">
      <img src="/uploads/thumb/101.jpg">
      <div class="prodname">Santexnik xidməti</div>
    </a>
    <span class="sprice">30 AZN</span>
  </div>
  <div class="nobj banner">
    <a href="/reklam/"><div class="prodname">Reklam</div></a>
  </div>
  <div class="nobj prod vip">
    <a href="https://xidmetler.az/cam-balkon/alm-pencere-202.html">
      <div class="prodname">Alüminium pəncərə</div>
    </a>
  </div>
  <div class="nobj prod">
    <a href="/usta-xidmeti/kampaniya.html"><div class="prodname">Kampaniya</div></a>
    <span class="sprice">Razılaşma</span>
  </div>
  <div class="nobj prod">
    <div class="prodname">Linksiz</div>
  </div>
</div>
</body></html>`

// detailHTML is a complete detail page for listing 101
const detailHTML = `<!DOCTYPE html>
<html><body>
<h1> Santexnik xidməti 24/7 </h1>
<span class="open_idshow">Elan kodu: 101</span>
<article>
  <a href="/">Ana səhifə</a>
  <a href="/usta-xidmeti/">Usta xidməti</a>
  <a href="/haqqimizda">Haqqımızda</a>
  <a href="/usta-xidmeti/santexnik/">Santexnik</a>
  <a href="/cam-balkon/">Cam balkon</a>
</article>
<span class="pricecolor">30 AZN</span>
<p class="infop100 fullteshow">Hər növ santexnika işləri görülür.</p>
<div class="infocontact">
  <span class="glyphicon glyphicon-user"></span> Elvin
  <br>
  <span class="glyphicon glyphicon-map-marker"></span> Bakı, Nəsimi r.
</div>
<div id="telshow" data-h="a1b2c3" data-rf="usta-xidmeti/santexnik-xidmeti-101.html">Nömrəni göstər</div>
<span class="viewsbb">Baxış: 57 Tarix: 12.03.2025</span>
<div id="picsopen">
  <a rel="slider" href="/uploads/big/101-1.jpg"><img src="/uploads/small/101-1.jpg"></a>
  <a rel="slider" href="https://cdn.xidmetler.az/101-2.jpg"></a>
  <a rel="nofollow" href="/elsewhere"></a>
</div>
</body></html>`

// detailNoContactHTML drops the contact block and the phone widget
const detailNoContactHTML = `<!DOCTYPE html>
<html><body>
<h1>Alüminium pəncərə</h1>
<span class="open_idshow">Elan kodu: 202</span>
<article><a href="/cam-balkon/">Cam balkon</a></article>
<span class="pricecolor">120 AZN</span>
<p class="infop100 fullteshow">Pəncərə quraşdırılması.</p>
<span class="viewsbb">Tarix: 01.02.2025</span>
<div id="picsopen"><a rel="slider" href="/uploads/big/202-1.jpg"></a></div>
</body></html>`

func newDocument(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func newTestCrawler(baseURL string) *XidmetlerCrawler {
	return NewXidmetlerCrawler(CrawlerConfig{BaseURL: baseURL}, helpers.NewSession(2*time.Second, "test-agent"))
}

func newSiteServer(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func writeHTML(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}
}
