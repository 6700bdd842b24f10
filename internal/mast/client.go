// Package mast fetches stellar light curves from the archive's JSON API and
// caches stitched curves on disk so repeat runs skip the network.
package mast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/transitscope/transitscope/internal/lightcurve"
)

// DefaultBaseURL is the archive endpoint serving light curve products.
const DefaultBaseURL = "https://mast.stsci.edu/api/v0.1/timeseries"

// DataAcquisitionError reports a failed archive search or download. It is
// fatal for the analysis run; the pipelines do not retry.
type DataAcquisitionError struct {
	Target string
	Op     string
	Err    error
}

func (e *DataAcquisitionError) Error() string {
	return fmt.Sprintf("data acquisition failed for %q during %s: %v", e.Target, e.Op, e.Err)
}

func (e *DataAcquisitionError) Unwrap() error { return e.Err }

// ClientConfig holds archive client settings.
type ClientConfig struct {
	// BaseURL overrides DefaultBaseURL, mainly for tests.
	BaseURL string

	// Timeout bounds each HTTP request. Defaults to 60s; archive downloads
	// for multi-sector targets are large.
	Timeout time.Duration

	// CacheDir, when set, enables the on-disk stitched-curve cache.
	CacheDir string
}

// Client talks to the archive.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *Cache
	logger     *zap.SugaredLogger
}

// NewClient creates an archive client.
func NewClient(cfg ClientConfig, logger *zap.SugaredLogger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	var cache *Cache
	if cfg.CacheDir != "" {
		cache = NewCache(cfg.CacheDir, logger)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		logger:     logger,
	}
}

// Product describes one downloadable observation (typically one sector).
type Product struct {
	ObsID   string `json:"obs_id"`
	Target  string `json:"target"`
	Mission string `json:"mission"`
	Author  string `json:"author"`
	Sector  int    `json:"sector"`
	DataURL string `json:"data_url"`
	Points  int    `json:"points"`
}

type searchResponse struct {
	Status   string    `json:"status"`
	Error    string    `json:"error"`
	Products []Product `json:"products"`
}

type curveResponse struct {
	Status string    `json:"status"`
	Error  string    `json:"error"`
	Time   []float64 `json:"time"`
	Flux   []float64 `json:"flux"`
}

// Search queries the archive for light curve products of a target.
// Returning zero products is an error: the pipelines cannot proceed
// without observations.
func (c *Client) Search(ctx context.Context, target, author, mission string) ([]Product, error) {
	q := url.Values{}
	q.Set("target", target)
	if author != "" {
		q.Set("author", author)
	}
	if mission != "" {
		q.Set("mission", mission)
	}

	var resp searchResponse
	if err := c.getJSON(ctx, c.baseURL+"/search?"+q.Encode(), &resp); err != nil {
		return nil, &DataAcquisitionError{Target: target, Op: "search", Err: err}
	}
	if resp.Error != "" {
		return nil, &DataAcquisitionError{Target: target, Op: "search", Err: fmt.Errorf("archive error: %s", resp.Error)}
	}
	if len(resp.Products) == 0 {
		return nil, &DataAcquisitionError{Target: target, Op: "search", Err: fmt.Errorf("no observations found")}
	}

	c.logger.Infof("found %d observations for %s", len(resp.Products), target)
	return resp.Products, nil
}

// Download fetches one product's time/flux arrays.
func (c *Client) Download(ctx context.Context, product Product) (lightcurve.LightCurve, error) {
	dataURL := product.DataURL
	if strings.HasPrefix(dataURL, "/") {
		dataURL = c.baseURL + dataURL
	}

	var resp curveResponse
	if err := c.getJSON(ctx, dataURL, &resp); err != nil {
		return lightcurve.LightCurve{}, &DataAcquisitionError{Target: product.Target, Op: "download", Err: err}
	}
	if resp.Error != "" {
		return lightcurve.LightCurve{}, &DataAcquisitionError{Target: product.Target, Op: "download", Err: fmt.Errorf("archive error: %s", resp.Error)}
	}

	lc, err := lightcurve.New(resp.Time, resp.Flux)
	if err != nil {
		return lightcurve.LightCurve{}, &DataAcquisitionError{Target: product.Target, Op: "download", Err: err}
	}
	return lc, nil
}

// DownloadAll fetches every product in order.
func (c *Client) DownloadAll(ctx context.Context, products []Product) ([]lightcurve.LightCurve, error) {
	curves := make([]lightcurve.LightCurve, 0, len(products))
	for _, p := range products {
		lc, err := c.Download(ctx, p)
		if err != nil {
			return nil, err
		}
		c.logger.Debugf("downloaded %s sector %d: %d points", p.Target, p.Sector, lc.Len())
		curves = append(curves, lc)
	}
	return curves, nil
}

// FetchStitched is the common acquisition path: cache hit, or
// search + download all sectors + stitch + cache store.
func (c *Client) FetchStitched(ctx context.Context, target, author, mission string) (lightcurve.LightCurve, error) {
	if c.cache != nil {
		if lc, ok := c.cache.Get(target, author, mission); ok {
			c.logger.Infof("using cached light curve for %s (%d points)", target, lc.Len())
			return lc, nil
		}
	}

	products, err := c.Search(ctx, target, author, mission)
	if err != nil {
		return lightcurve.LightCurve{}, err
	}
	curves, err := c.DownloadAll(ctx, products)
	if err != nil {
		return lightcurve.LightCurve{}, err
	}
	lc, err := Stitch(curves)
	if err != nil {
		return lightcurve.LightCurve{}, &DataAcquisitionError{Target: target, Op: "stitch", Err: err}
	}

	if c.cache != nil {
		if err := c.cache.Put(target, author, mission, lc); err != nil {
			c.logger.Warnf("could not cache light curve for %s: %v", target, err)
		}
	}
	return lc, nil
}

// Stitch merges per-sector curves into one time-ordered curve. Duplicate
// timestamps across sector boundaries are dropped, keeping the first.
func Stitch(curves []lightcurve.LightCurve) (lightcurve.LightCurve, error) {
	type sample struct{ t, f float64 }
	var all []sample
	for _, lc := range curves {
		for i := range lc.Time {
			all = append(all, sample{lc.Time[i], lc.Flux[i]})
		}
	}
	if len(all) == 0 {
		return lightcurve.LightCurve{}, fmt.Errorf("no samples to stitch")
	}

	sort.Slice(all, func(i, j int) bool { return all[i].t < all[j].t })

	times := make([]float64, 0, len(all))
	flux := make([]float64, 0, len(all))
	for _, s := range all {
		if len(times) > 0 && s.t == times[len(times)-1] {
			continue
		}
		times = append(times, s.t)
		flux = append(flux, s.f)
	}
	return lightcurve.New(times, flux)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
