package internal

import (
	"github.com/dealmungchi/xidmetlercrawler/services/cache"
	"github.com/dealmungchi/xidmetlercrawler/services/exporter"
	"github.com/dealmungchi/xidmetlercrawler/services/publisher"
)

// Dependencies holds all service dependencies of one run
type Dependencies struct {
	Cache     cache.CacheService
	Dedupe    *cache.Dedupe
	Publisher publisher.Publisher
	Exporters []exporter.Exporter
}

// Close releases connections held by the dependencies
func (d *Dependencies) Close() error {
	if d.Publisher != nil {
		return d.Publisher.Close()
	}
	return nil
}
