package monitoring

import (
	"context"

	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/GrantScope/internal/infrastructure/scraping"
)

// Source produces grant listings from some upstream catalogue.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]*grant.Grant, error)
}

// HTTPSource scrapes an HTML listing page.
type HTTPSource struct {
	name    string
	url     string
	fetcher *scraping.Fetcher
	parser  *scraping.ListingParser
}

func NewHTTPSource(name, url string, fetcher *scraping.Fetcher, log logging.Logger) *HTTPSource {
	return &HTTPSource{
		name:    name,
		url:     url,
		fetcher: fetcher,
		parser:  scraping.NewListingParser(log),
	}
}

func (s *HTTPSource) Name() string { return s.name }

func (s *HTTPSource) Fetch(ctx context.Context) ([]*grant.Grant, error) {
	page, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return nil, err
	}
	return s.parser.Parse(s.name, s.url, page)
}
