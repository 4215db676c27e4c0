// Package timing is the client of the timing-source results site. It lists
// events per year, classes per event and per-runner speed and miss rate.
//
// Requests are strictly sequential and spaced by a configurable delay.
// Failures are reported as ErrFetch; a page without the expected table
// yields an empty result rather than an error.
package timing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/okian/olrank/internal/domain/model"
	"github.com/okian/olrank/pkg/metrics"
)

// Source is the metrics label of the timing-source.
const Source = "timing"

// Page paths relative to the base URL.
const (
	eventsPath  = "index.jsp"
	classesPath = "lapcombat2/index.jsp"
	runnersPath = "lapcombat2/split-list.jsp"
)

const maxBody = 8 << 20

// Client fetches timing-source pages.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	pacer     *pacer
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, baseURL)
	}
	c := &Client{
		base:      base,
		http:      &http.Client{Timeout: 20 * time.Second},
		userAgent: "olrank/1.0",
		pacer:     &pacer{delay: 1500 * time.Millisecond},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// EventURL returns the public page of an event.
func (c *Client) EventURL(eventID int64) string {
	return c.resolve(classesPath, url.Values{"event": {strconv.FormatInt(eventID, 10)}})
}

// Events lists the events held in year.
func (c *Client) Events(ctx context.Context, year int) ([]model.TimingEvent, error) {
	doc, err := c.get(ctx, "events", c.resolve(eventsPath, url.Values{"year": {strconv.Itoa(year)}}))
	if err != nil {
		return nil, err
	}
	return parseEvents(doc), nil
}

// Classes lists the classes of one event.
func (c *Client) Classes(ctx context.Context, eventID int64) ([]model.TimingClass, error) {
	doc, err := c.get(ctx, "classes", c.EventURL(eventID))
	if err != nil {
		return nil, err
	}
	return parseClasses(doc), nil
}

// Runners lists the runners of one class. The second value counts rows
// dropped for lacking numeric speed or miss rate.
func (c *Client) Runners(ctx context.Context, eventID int64, classID string) ([]model.TimingRunner, int, error) {
	ref := c.resolve(runnersPath, url.Values{
		"event": {strconv.FormatInt(eventID, 10)},
		"class": {classID},
	})
	doc, err := c.get(ctx, "runners", ref)
	if err != nil {
		return nil, 0, err
	}
	runners, skipped := parseRunners(doc)
	return runners, skipped, nil
}

func (c *Client) resolve(path string, q url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: path})
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) get(ctx context.Context, kind, target string) (*html.Node, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, target, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.RecordFetch(Source, kind, time.Since(start))
	if err != nil {
		metrics.RecordFetchError(Source, kind)
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.RecordFetchError(Source, kind)
		return nil, fmt.Errorf("%w: %s: status %d", ErrFetch, target, resp.StatusCode)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBody), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, target, err)
	}
	doc, err := html.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, target, err)
	}
	return doc, nil
}
