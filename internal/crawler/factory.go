package crawler

import (
	"github.com/dealmungchi/xidmetlercrawler/config"
	"github.com/dealmungchi/xidmetlercrawler/helpers"
)

// CreateCrawler builds the site crawler and the session it owns
func CreateCrawler(cfg *config.Config) *XidmetlerCrawler {
	session := helpers.NewSession(cfg.RequestTimeout, cfg.UserAgent)

	c := NewXidmetlerCrawler(CrawlerConfig{
		BaseURL:   cfg.BaseURL,
		Provider:  "Xidmetler",
		Selectors: DefaultSelectors,
	}, session)

	c.log.Debug().
		Str("base_url", c.BaseURL).
		Dur("timeout", cfg.RequestTimeout).
		Msg("Created crawler")

	return c
}
