// Package opensearch indexes grant listings for full-text search.
package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"

	opensearch "github.com/opensearch-project/opensearch-go/v3"
	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	"github.com/turtacn/GrantScope/internal/config"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
)

// Client wraps the OpenSearch API client with index naming.
type Client struct {
	api         *opensearchapi.Client
	indexPrefix string
	logger      logging.Logger
}

// NewClient connects to the cluster and verifies reachability.
func NewClient(ctx context.Context, cfg config.OpenSearchConfig, log logging.Logger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, apperrors.NewValidation("opensearch addresses are required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	var transport http.RoundTripper
	if cfg.InsecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	api, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses: cfg.Addresses,
			Username:  cfg.User,
			Password:  cfg.Password,
			Transport: transport,
		},
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalService, "creating opensearch client")
	}

	if _, err := api.Ping(ctx, nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalService, "opensearch ping failed")
	}

	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = "grantscope"
	}
	log.Info("connected to opensearch",
		logging.Any("addresses", cfg.Addresses), logging.String("index_prefix", prefix))
	return &Client{api: api, indexPrefix: prefix, logger: log}, nil
}

// IndexName qualifies a logical index with the configured prefix.
func (c *Client) IndexName(name string) string {
	return c.indexPrefix + "-" + name
}
