package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/dealmungchi/xidmetlercrawler/helpers"
	"github.com/dealmungchi/xidmetlercrawler/logger"
	"github.com/dealmungchi/xidmetlercrawler/pkg/errors"
)

// phoneResponse is the ajax.php reply: {"ok": 0|1, "tel": "..."}
type phoneResponse struct {
	OK  okFlag `json:"ok"`
	Tel string `json:"tel"`
}

// okFlag accepts 1, "1" and true as success
type okFlag bool

func (f *okFlag) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(bytes.TrimSpace(data)), `"`) {
	case "1", "true":
		*f = true
	default:
		*f = false
	}
	return nil
}

// AjaxURL returns the phone reveal endpoint
func (c *XidmetlerCrawler) AjaxURL() string {
	return c.BaseURL + "/ajax.php"
}

// ResolvePhone asks the site to reveal the phone for a listing. It returns
// NotAvailable on any failure and never aborts the listing
func (c *XidmetlerCrawler) ResolvePhone(ctx context.Context, listingID string, token AuthToken, referrer string) string {
	log := logger.ForResolver().WithFields(logger.Fields{
		"listing_id": listingID,
		"url":        referrer,
	})

	phone, err := c.requestPhone(ctx, listingID, token, referrer)
	if err != nil {
		log.WithError(err).Warn().Msg("Phone number not available")
		return NotAvailable
	}

	log.Debug().Msg("Phone number resolved")
	return phone
}

func (c *XidmetlerCrawler) requestPhone(ctx context.Context, listingID string, token AuthToken, referrer string) (string, error) {
	rf, ok := helpers.RelativeTo(c.BaseURL, referrer)
	if !ok {
		rf = token.ReferrerPath
	}

	form := url.Values{
		"act": {"telshow"},
		"id":  {listingID},
		"t":   {"product"},
		"h":   {token.Hash},
		"rf":  {rf},
	}

	headers := map[string]string{
		"X-Requested-With": "XMLHttpRequest",
		"Accept":           "application/json, text/javascript, */*; q=0.01",
		"Origin":           c.BaseURL,
		"Referer":          referrer,
	}

	body, err := c.fetcher.PostForm(ctx, c.AjaxURL(), form, headers)
	if err != nil {
		return "", err
	}

	var resp phoneResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", errors.NewParsing(c.AjaxURL(), "invalid phone response", err)
	}

	if !resp.OK {
		return "", errors.NewPhone(listingID, "site refused to reveal phone", nil)
	}

	tel := strings.TrimSpace(resp.Tel)
	if tel == "" {
		return "", errors.NewPhone(listingID, "empty phone in successful response", nil)
	}
	return tel, nil
}
