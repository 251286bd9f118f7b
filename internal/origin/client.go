// Package origin speaks to the video host: its token and content-listing
// API, and the direct resource URLs that demand a bearer credential and
// honor Range requests.
package origin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vidlink/vidlink/internal/domain/model"
	"github.com/vidlink/vidlink/internal/domain/repository"
	"github.com/vidlink/vidlink/internal/infrastructure/metrics"
)

// ClientConfig holds the knobs for outbound origin traffic. Every call is
// bounded: API and chunk fetches by RequestTimeout, live streams by
// StreamHeaderTimeout (the body itself may flow for as long as the client
// keeps reading).
type ClientConfig struct {
	APIBaseURL          string
	RequestTimeout      time.Duration
	StreamHeaderTimeout time.Duration
	MaxRedirects        int
	TokenTTL            time.Duration
}

// Client implements repository.OriginGateway and repository.ChunkFetcher
// against the origin's HTTP surface. A guest token is cached in-process
// and concurrent issuance collapses onto one request.
type Client struct {
	apiURL       string
	httpClient   *http.Client
	streamClient *http.Client

	tokenTTL time.Duration
	sf       singleflight.Group

	mu       sync.Mutex
	token    string
	tokenExp time.Time
	now      func() time.Time
}

// NewClient creates an origin client from cfg.
func NewClient(cfg ClientConfig) *Client {
	redirect := redirectPolicy(cfg.MaxRedirects)

	streamTransport := http.DefaultTransport.(*http.Transport).Clone()
	streamTransport.ResponseHeaderTimeout = cfg.StreamHeaderTimeout

	return &Client{
		apiURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		httpClient: &http.Client{
			Timeout:       cfg.RequestTimeout,
			CheckRedirect: redirect,
		},
		streamClient: &http.Client{
			Transport:     streamTransport,
			CheckRedirect: redirect,
		},
		tokenTTL: cfg.TokenTTL,
		now:      time.Now,
	}
}

// redirectPolicy follows at most max redirects. Origin edges bounce
// between hosts, but an unbounded chain is always a misbehaving origin.
func redirectPolicy(max int) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) > max {
			return fmt.Errorf("stopped after %d redirects", max)
		}
		return nil
	}
}

// contentFile is one entry of an origin content listing.
type contentFile struct {
	Name         string `json:"name"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	DirectURL    string `json:"directUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

type contentListing struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Files []contentFile `json:"files"`
}

// videoFile returns the first playable video entry of the listing.
func (c *contentListing) videoFile() (*contentFile, bool) {
	for i := range c.Files {
		f := &c.Files[i]
		if strings.HasPrefix(f.MimeType, "video/") && f.DirectURL != "" {
			return f, true
		}
	}
	return nil, false
}

// Resolve turns a user-supplied content reference into a playable video
// source carrying the credential later fetches must present.
func (c *Client) Resolve(ctx context.Context, ref string) (*model.VideoSource, error) {
	contentID, err := ParseContentRef(ref)
	if err != nil {
		return nil, err
	}

	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	listing, err := c.fetchContent(ctx, contentID, token)
	if err != nil {
		return nil, err
	}

	file, ok := listing.videoFile()
	if !ok {
		return nil, repository.ErrContentNotFound
	}

	name := file.Name
	if name == "" {
		name = listing.Name
	}

	return &model.VideoSource{
		OriginURL:    file.DirectURL,
		AccessToken:  token,
		DisplayName:  name,
		ThumbnailURL: file.ThumbnailURL,
		Width:        file.Width,
		Height:       file.Height,
	}, nil
}

// Token returns a live guest token, issuing one when the cache is empty or
// stale. Concurrent callers share a single issuance via singleflight.
func (c *Client) Token(ctx context.Context) (string, error) {
	if tok, ok := c.cachedToken(); ok {
		metrics.TokenRequestsTotal.WithLabelValues(metrics.TokenCached).Inc()
		return tok, nil
	}

	v, err, shared := c.sf.Do("token", func() (any, error) {
		tok, exp, err := c.issueToken(ctx)
		if err != nil {
			return nil, err
		}
		c.setToken(tok, exp)
		return tok, nil
	})

	if shared {
		metrics.TokenRequestsTotal.WithLabelValues(metrics.TokenShared).Inc()
	} else {
		metrics.TokenRequestsTotal.WithLabelValues(metrics.TokenIssued).Inc()
	}

	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) issueToken(ctx context.Context) (string, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/accounts", nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: issue token: %v", repository.ErrOriginUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", time.Time{}, fmt.Errorf("%w: issue token: unexpected status %d", repository.ErrOriginUnavailable, resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
		Data   struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: decode token response: %v", repository.ErrOriginUnavailable, err)
	}
	if body.Data.Token == "" {
		return "", time.Time{}, fmt.Errorf("%w: issue token: empty token in response", repository.ErrOriginUnavailable)
	}

	return body.Data.Token, c.now().Add(c.tokenTTL), nil
}

func (c *Client) fetchContent(ctx context.Context, contentID, token string) (*contentListing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/contents/"+contentID, nil)
	if err != nil {
		return nil, fmt.Errorf("build content request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch content: %v", repository.ErrOriginUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, repository.ErrContentNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		c.clearToken()
		return nil, fmt.Errorf("%w: fetch content: origin rejected token", repository.ErrOriginUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: fetch content: unexpected status %d", repository.ErrOriginUnavailable, resp.StatusCode)
	}

	var body struct {
		Status string         `json:"status"`
		Data   contentListing `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode content response: %v", repository.ErrOriginUnavailable, err)
	}

	return &body.Data, nil
}

// FetchChunk retrieves bytes [0, size) of originURL. The origin normally
// answers 206; a 200 carrying the full body is accepted and read up to
// size bytes.
func (c *Client) FetchChunk(ctx context.Context, originURL, credential string, size int64) (*model.Chunk, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, originURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build chunk request: %w", err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", size-1))
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch chunk: %v", repository.ErrOriginUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			c.clearToken()
		}
		return nil, fmt.Errorf("%w: fetch chunk: unexpected status %d", repository.ErrOriginUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, size))
	if err != nil {
		return nil, fmt.Errorf("%w: read chunk: %v", repository.ErrOriginUnavailable, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: fetch chunk: empty body", repository.ErrOriginUnavailable)
	}

	return &model.Chunk{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		TotalSize:   totalSizeFrom(resp),
	}, nil
}

// OpenStream opens a live fetch of originURL. rangeHeader is forwarded
// verbatim; empty means the client sent none. Every obtained response is
// returned for mirroring regardless of status; an error means no response
// at all.
func (c *Client) OpenStream(ctx context.Context, method, originURL, credential, rangeHeader string) (*repository.Stream, error) {
	req, err := http.NewRequestWithContext(ctx, method, originURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: open stream: %v", repository.ErrOriginUnavailable, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.clearToken()
	}

	return &repository.Stream{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   resp.Body,
	}, nil
}

// totalSizeFrom extracts the full resource size the origin disclosed: the
// Content-Range total on a 206, Content-Length on a 200. Returns 0 when
// neither is usable.
func totalSizeFrom(resp *http.Response) int64 {
	if resp.StatusCode == http.StatusOK {
		if resp.ContentLength > 0 {
			return resp.ContentLength
		}
		return 0
	}

	cr := resp.Header.Get("Content-Range") // e.g. "bytes 0-2097151/4194304"
	idx := strings.LastIndexByte(cr, '/')
	if idx < 0 {
		return 0
	}
	total, err := strconv.ParseInt(cr[idx+1:], 10, 64)
	if err != nil || total <= 0 {
		return 0 // "*" or malformed
	}
	return total
}

func (c *Client) cachedToken() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || !c.now().Before(c.tokenExp) {
		return "", false
	}
	return c.token, true
}

func (c *Client) setToken(tok string, exp time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = tok
	c.tokenExp = exp
}

// clearToken drops the cached token after the origin rejects it. The next
// call issues a fresh one; there is no in-request retry.
func (c *Client) clearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}
