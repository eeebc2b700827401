// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/homology-engine/pkg/types"
)

// RCSBFetcher downloads PDB-format entries from the RCSB file service.
type RCSBFetcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewRCSBFetcher creates a fetcher from the retrieval config. BaseURL must
// end in "/"; the identifier and ".pdb" are appended.
func NewRCSBFetcher(client *http.Client, cfg types.RetrievalConfig) *RCSBFetcher {
	base := cfg.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &RCSBFetcher{client: client, baseURL: base, userAgent: cfg.UserAgent}
}

// Fetch makes one GET request for id and copies the body to w.
func (f *RCSBFetcher) Fetch(ctx context.Context, id string, w io.Writer) error {
	url := f.baseURL + id + ".pdb"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "chemical/x-pdb, text/plain")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("structure %s not found at %s", id, url)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	return nil
}
