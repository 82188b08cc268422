package hfsync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// userAgent identifies this client to the registry.
const userAgent = "hf-sync/1.0"

// registryClient handles HTTP communication with the model registry.
type registryClient struct {
	// baseURL is the base URL of the registry (e.g. "https://huggingface.co").
	baseURL string

	// token is the bearer credential, or empty for anonymous access.
	token string

	// httpClient is used for HTTP requests.
	httpClient HTTPClient

	// logger receives diagnostic messages. May be nil.
	logger Logger
}

// newRegistryClient creates a new registry client.
// The baseURL is normalized by removing any trailing slashes.
func newRegistryClient(baseURL, token string, client HTTPClient, logger Logger) *registryClient {
	return &registryClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: client,
		logger:     logger,
	}
}

// newRequest builds a GET request with the standard headers attached.
func (r *registryClient) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	return req, nil
}

// fetchModelMetadata fetches the raw metadata document for a repository
// from /api/models/{repoID}. The caller persists and parses the bytes.
// A 404 or transport failure yields ErrMetadataUnavailable.
func (r *registryClient) fetchModelMetadata(ctx context.Context, repoID string) ([]byte, error) {
	url := r.baseURL + "/api/models/" + repoID

	// Metadata documents are small; bound the whole request. File
	// transfers deliberately have no such deadline.
	ctx, cancel := context.WithTimeout(ctx, DefaultMetadataTimeout)
	defer cancel()

	req, err := r.newRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching metadata for %s: %v: %w", repoID, err, ErrMetadataUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching metadata for %s: status %d: %w", repoID, resp.StatusCode, ErrMetadataUnavailable)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading metadata for %s: %w", repoID, ErrMetadataUnavailable)
	}

	return data, nil
}

// openFile issues the streamed GET for one file via the /resolve endpoint.
// When resumeFrom is positive a byte-range header is attached so the server
// can continue from that offset. The caller owns status handling and must
// close the response body.
func (r *registryClient) openFile(ctx context.Context, repoID, revision, filename string, resumeFrom int64) (*http.Response, error) {
	url := r.baseURL + "/" + repoID + "/resolve/" + revision + "/" + filename

	req, err := r.newRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	if resumeFrom > 0 {
		req.Header.Set("Range", "bytes="+strconv.FormatInt(resumeFrom, 10)+"-")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s/%s: %v: %w", repoID, filename, err, ErrTransport)
	}
	return resp, nil
}
