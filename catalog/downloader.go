package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/giygas/medsafe/interfaces"
	"github.com/giygas/medsafe/logging"
)

// maxDownloadSize bounds the downloaded catalog
const maxDownloadSize = 64 * 1024 * 1024

// Compile-time check to ensure HTTPLoader implements CatalogLoader
var _ interfaces.CatalogLoader = (*HTTPLoader)(nil)

// HTTPLoader downloads the catalog file on every Load, typically the public
// drug database export
// https://base-donnees-publique.medicaments.gouv.fr/download/file/CIS_bdpm.txt
type HTTPLoader struct {
	url    string
	client *http.Client
}

// NewHTTPLoader creates a loader fetching url
func NewHTTPLoader(url string) *HTTPLoader {
	return &HTTPLoader{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Load implements interfaces.CatalogLoader
func (l *HTTPLoader) Load() ([]string, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog url %s: %w", l.url, err)
	}

	start := time.Now()
	response, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", l.url, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: unexpected status %s", l.url, response.Status)
	}

	names, err := Parse(io.LimitReader(response.Body, maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog from %s: %w", l.url, err)
	}

	logging.Debug("Catalog downloaded", "url", l.url, "names", len(names), "duration", time.Since(start).String())
	return names, nil
}
