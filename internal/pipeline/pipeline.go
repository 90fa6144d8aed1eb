// Package pipeline wires the scan stages together: validate, cache
// lookup, fetch, extract, score, cache store. Transports (HTTP server,
// CLI) stay thin adapters over this package.
package pipeline

import (
	"context"

	"safelink-scanner/internal/cache"
	"safelink-scanner/internal/config"
	"safelink-scanner/internal/extractor"
	"safelink-scanner/internal/fetcher"
	"safelink-scanner/internal/models"
	"safelink-scanner/internal/risk"
	"safelink-scanner/internal/urlnorm"
	"safelink-scanner/pkg/logger"
)

type Pipeline struct {
	fetcher   *fetcher.Client
	extractor *extractor.Extractor
	engine    *risk.Engine
	store     cache.Store

	// Reputation is optional; nil means no external signal is folded
	// into the score.
	Reputation risk.ReputationProvider

	log *logger.Logger
}

func New(cfg config.Config, store cache.Store, log *logger.Logger) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher.New(cfg),
		extractor: extractor.New(),
		engine:    risk.NewEngine(cfg),
		store:     store,
		log:       log,
	}
}

// Validate normalizes and validates a raw URL. The returned error is
// one of the urlnorm sentinels.
func (p *Pipeline) Validate(raw string) (string, error) {
	return urlnorm.Normalize(raw)
}

// Fetch validates raw and performs the bounded HEAD+GET retrieval.
func (p *Pipeline) Fetch(ctx context.Context, raw string) (models.FetchResult, error) {
	normalized, err := urlnorm.Normalize(raw)
	if err != nil {
		return models.FetchResult{}, err
	}
	return p.fetcher.Fetch(ctx, normalized), nil
}

// Analyze runs fetch, extraction and scoring for an already-normalized
// URL. A failed GET yields empty features; scoring still proceeds over
// the degraded inputs, and a fetch failure is itself score-neutral.
func (p *Pipeline) Analyze(ctx context.Context, normalized string) *models.ScanResult {
	fetch := p.fetcher.Fetch(ctx, normalized)

	var features models.ExtractedFeatures
	if fetch.Get.Error == "" {
		features = p.extractor.Extract(fetch.Get.Content)
	} else {
		p.log.Infof("fetch degraded for %s: %s", normalized, fetch.Get.Error)
	}

	var rep *risk.ReputationSignal
	if p.Reputation != nil {
		signal, err := p.Reputation.Lookup(ctx, normalized)
		if err != nil {
			p.log.Errorf("reputation lookup failed for %s: %v", normalized, err)
		} else {
			rep = signal
		}
	}

	report := p.engine.Score(fetch, features, normalized, rep)
	return &models.ScanResult{
		URL:       normalized,
		Fetch:     fetch,
		Extracted: features,
		Risk:      report,
	}
}

// Scan is the cached entry point. The cache key is the raw input
// string, so differently-written URLs for the same resource occupy
// separate entries. The second return value reports a cache hit.
func (p *Pipeline) Scan(ctx context.Context, raw string) (*models.ScanResult, bool, error) {
	normalized, err := urlnorm.Normalize(raw)
	if err != nil {
		return nil, false, err
	}

	if p.store != nil {
		if cached, ok := p.store.Get(raw); ok {
			return cached, true, nil
		}
	}

	result := p.Analyze(ctx, normalized)

	if p.store != nil {
		if err := p.store.Set(raw, result); err != nil {
			p.log.Errorf("cache write failed for %s: %v", raw, err)
		}
	}
	return result, false, nil
}
