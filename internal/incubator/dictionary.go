package incubator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultEndpoint is the free dictionary API.
const DefaultEndpoint = "https://api.dictionaryapi.dev/api/v2/entries/en"

// DefaultTimeout bounds a single lookup.
const DefaultTimeout = 5 * time.Second

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 1 << 20

// Dictionary errors.
var (
	// ErrWordNotFound means the dictionary has no entry for the word.
	ErrWordNotFound = errors.New("word not found")

	// ErrUnavailable means the dictionary could not be consulted.
	ErrUnavailable = errors.New("dictionary unavailable")
)

// UnknownPOS is the primary usage reported when the first entry has no
// meanings.
const UnknownPOS = "unknown"

// Usage is how a dictionary says a word is used.
type Usage struct {
	// Primary is the part of speech of the first meaning of the first entry.
	Primary string
	// Parts lists every meaning's part of speech across all entries, in
	// dictionary order.
	Parts []string
}

// Has reports whether any meaning is used as pos.
func (u Usage) Has(pos string) bool {
	return slices.Contains(u.Parts, pos)
}

// Dictionary reports the parts of speech a word is used as.
type Dictionary interface {
	Lookup(ctx context.Context, word string) (Usage, error)
}

// HTTPDictionary queries a dictionaryapi.dev compatible endpoint.
type HTTPDictionary struct {
	endpoint string
	client   *http.Client
}

// NewHTTPDictionary creates a client for endpoint. An empty endpoint selects
// DefaultEndpoint and a non-positive timeout selects DefaultTimeout.
func NewHTTPDictionary(endpoint string, timeout time.Duration) *HTTPDictionary {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPDictionary{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

// Lookup implements Dictionary.
func (d *HTTPDictionary) Lookup(ctx context.Context, word string) (Usage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"/"+url.PathEscape(word), nil)
	if err != nil {
		return Usage{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return Usage{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Usage{}, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Usage{}, fmt.Errorf("%w: %q", ErrWordNotFound, word)
	case resp.StatusCode != http.StatusOK:
		return Usage{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if !gjson.ValidBytes(body) {
		return Usage{}, fmt.Errorf("%w: malformed response", ErrUnavailable)
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return Usage{}, fmt.Errorf("%w: response is not a list of entries", ErrUnavailable)
	}

	u := Usage{Primary: UnknownPOS}
	if first := root.Get("0.meanings.0.partOfSpeech"); first.Exists() {
		u.Primary = strings.ToLower(first.String())
	}
	for _, entry := range root.Array() {
		for _, p := range entry.Get("meanings.#.partOfSpeech").Array() {
			if s := strings.ToLower(p.String()); s != "" {
				u.Parts = append(u.Parts, s)
			}
		}
	}
	return u, nil
}
