package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dealmungchi/xidmetlercrawler/internal/crawler"
	"github.com/dealmungchi/xidmetlercrawler/logger"
	crawlerrors "github.com/dealmungchi/xidmetlercrawler/pkg/errors"
	"github.com/dealmungchi/xidmetlercrawler/services/cache"
	"github.com/dealmungchi/xidmetlercrawler/services/publisher"
)

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Result is the outcome of one crawl run
type Result struct {
	Records []crawler.Record

	PagesFetched   int
	PagesFailed    int
	StubsDropped   int
	Duplicates     int
	DetailFailures int
	PhonesResolved int
	StubFailures   int

	// Interrupted is set when the context was cancelled before the range was consumed
	Interrupted bool
	Elapsed     time.Duration
}

// Worker drives the page, listing, detail and phone sequence of a crawl
type Worker struct {
	crawler   crawler.Crawler
	dedupe    *cache.Dedupe
	publisher publisher.Publisher
	delay     time.Duration
	sleep     SleepFunc
	log       *logger.Logger
}

// NewWorker creates a new worker. pub may be nil
func NewWorker(
	c crawler.Crawler,
	dedupe *cache.Dedupe,
	pub publisher.Publisher,
	delay time.Duration,
) *Worker {
	return &Worker{
		crawler:   c,
		dedupe:    dedupe,
		publisher: pub,
		delay:     delay,
		sleep:     Sleep,
		log:       logger.ForWorker().WithField("crawler", c.GetName()),
	}
}

// WithSleep replaces the delay implementation, mainly for tests
func (w *Worker) WithSleep(sleep SleepFunc) *Worker {
	w.sleep = sleep
	return w
}

// Sleep blocks for d unless ctx is cancelled first
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run crawls offsets [start, end) sequentially and returns every record
// accumulated. Per-page and per-listing failures are logged and skipped.
// A cancelled ctx stops the run early with whatever was collected
func (w *Worker) Run(ctx context.Context, start, end int) *Result {
	began := time.Now()
	result := &Result{Records: []crawler.Record{}}

	w.log.Info().Int("start", start).Int("end", end).Dur("delay", w.delay).Msg("Starting crawl")

	for offset := start; offset < end; offset++ {
		if ctx.Err() != nil {
			result.Interrupted = true
			break
		}

		if !w.crawlPage(ctx, offset, result) {
			result.Interrupted = true
			break
		}

		if err := w.sleep(ctx, w.delay); err != nil {
			// The last page needs no trailing delay
			if offset+1 < end {
				result.Interrupted = true
			}
			break
		}
	}

	result.Elapsed = time.Since(began)
	if result.Interrupted {
		w.log.Warn().Int("records", len(result.Records)).Msg("Crawl interrupted")
	}
	w.log.Info().
		Int("records", len(result.Records)).
		Int("pages_fetched", result.PagesFetched).
		Int("pages_failed", result.PagesFailed).
		Int("duplicates", result.Duplicates).
		Int("detail_failures", result.DetailFailures).
		Int("phones_resolved", result.PhonesResolved).
		Int("stub_failures", result.StubFailures).
		Dur("elapsed", result.Elapsed).
		Msg("Crawl finished")

	return result
}

// crawlPage processes one index page. It returns false when ctx was
// cancelled during the page
func (w *Worker) crawlPage(ctx context.Context, offset int, result *Result) bool {
	log := w.log.WithField("offset", offset)

	doc, err := w.crawler.FetchListingPage(ctx, offset)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		result.PagesFailed++
		log.Error().Err(err).Bool("retryable", crawlerrors.Retryable(err)).Msg("Failed to fetch listing page")
		return true
	}
	result.PagesFetched++

	stubs := w.crawler.ExtractListings(doc)
	log.Info().Int("listings", len(stubs)).Msg("Found listings")

	for _, stub := range stubs {
		if !stub.Valid() {
			result.StubsDropped++
			log.Debug().Str("url", stub.URL).Msg("Skipping listing without id")
			continue
		}

		// Claim before fetching so a repeated listing costs no requests
		if !w.dedupe.Claim(stub.ID) {
			result.Duplicates++
			log.Debug().Str("listing_id", stub.ID).Msg("Listing already recorded in this run")
			continue
		}

		if err := w.sleep(ctx, w.delay); err != nil {
			w.dedupe.Release(stub.ID)
			return false
		}

		record, err := w.processStub(ctx, stub, result)
		if err != nil {
			w.dedupe.Release(stub.ID)
			if ctx.Err() != nil {
				return false
			}
			result.StubFailures++
			log.Error().Err(err).Str("listing_id", stub.ID).Str("url", stub.URL).Msg("Failed to process listing")
			continue
		}

		result.Records = append(result.Records, record)
		w.publish(record)

		// Show one full record per run so selector drift is visible in debug logs
		if len(result.Records) == 1 && logger.IsDebugEnabled() {
			if data, err := json.Marshal(record); err == nil {
				log.Debug().RawJSON("record", data).Msg("First record")
			}
		}

		log.Info().
			Str("listing_id", record.ID).
			Str("title", record.Title).
			Int("total", len(result.Records)).
			Msg("Processed listing")
	}

	return true
}

// processStub fetches the detail page, resolves the phone and merges the
// result. A panic in any of those steps becomes an error for this stub only
func (w *Worker) processStub(ctx context.Context, stub crawler.ListingStub, result *Result) (record crawler.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing listing %s: %v", stub.ID, r)
		}
	}()

	detail := w.crawler.FetchDetail(ctx, stub)
	if !detail.Fetched() {
		if ctx.Err() != nil {
			return crawler.Record{}, ctx.Err()
		}
		result.DetailFailures++
		w.log.Warn().
			Err(detail.Err).
			Bool("retryable", crawlerrors.Retryable(detail.Err)).
			Str("listing_id", stub.ID).
			Str("url", stub.URL).
			Msg("Detail page unavailable, keeping listing defaults")
	}

	if detail.Token != nil {
		detail.Detail.Phone = w.crawler.ResolvePhone(ctx, stub.ID, *detail.Token, stub.URL)
		if detail.Detail.Phone != crawler.NotAvailable {
			result.PhonesResolved++
		}
	}

	return crawler.Merge(stub, detail), nil
}

// publish hands a record to the optional stream sink
func (w *Worker) publish(record crawler.Record) {
	if w.publisher == nil {
		return
	}

	data, err := json.Marshal(record)
	if err != nil {
		w.log.Error().Err(err).Str("listing_id", record.ID).Msg("Failed to encode record")
		return
	}
	if err := w.publisher.Publish(record.ID, data); err != nil {
		w.log.Warn().Err(err).Str("listing_id", record.ID).Msg("Failed to publish record")
	}
}
