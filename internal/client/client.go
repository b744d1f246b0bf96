// Package client is a typed HTTP client for the watershed API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/watershed/internal/domain/model"
	"github.com/okian/watershed/internal/domain/types"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	defaultTimeout      = 2 * time.Minute
	defaultPollInterval = 500 * time.Millisecond
	maxErrorBody        = 64 << 10
)

// Client talks to one watershed server.
type Client struct {
	base *url.URL
	http *http.Client
	poll time.Duration
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q needs a scheme and host", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: defaultTimeout},
		poll: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Query parameters. Zero values are left out so the server default applies.
type params url.Values

func point(lat, lon float64) params {
	return params{
		"lat": {ftoa(lat)},
		"lon": {ftoa(lon)},
	}
}

func box(b orb.Bound) params {
	return params{
		"minx": {ftoa(b.Min[0])},
		"miny": {ftoa(b.Min[1])},
		"maxx": {ftoa(b.Max[0])},
		"maxy": {ftoa(b.Max[1])},
	}
}

func (p params) opt(name string, v float64) params {
	if v != 0 {
		p[name] = []string{ftoa(v)}
	}
	return p
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// do sends one request and returns the body of a 2xx answer.
func (c *Client) do(ctx context.Context, method, path string, q params) ([]byte, error) {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = url.Values(q).Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Code != "" {
			apiErr.Code, apiErr.Message = payload.Code, payload.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return nil, apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q params, v any) error {
	body, err := c.do(ctx, http.MethodGet, path, q)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) feature(ctx context.Context, path string, q params) (*geojson.Feature, error) {
	body, err := c.do(ctx, http.MethodGet, path, q)
	if err != nil {
		return nil, err
	}
	f, err := geojson.UnmarshalFeature(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return f, nil
}

func (c *Client) collection(ctx context.Context, path string, q params) (*geojson.FeatureCollection, error) {
	body, err := c.do(ctx, http.MethodGet, path, q)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return fc, nil
}

// Health calls /healthz.
func (c *Client) Health(ctx context.Context) (types.Health, error) {
	var h types.Health
	err := c.getJSON(ctx, "/healthz", nil, &h)
	return h, err
}

// Stats calls /stats.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	err := c.getJSON(ctx, "/stats", nil, &out)
	return out, err
}

// FlowPath returns the downhill path from a point.
func (c *Client) FlowPath(ctx context.Context, lat, lon float64) (*geojson.Feature, error) {
	return c.feature(ctx, "/api/hydrology/flow-direction", point(lat, lon))
}

// Watershed returns the basin polygon draining to a point.
func (c *Client) Watershed(ctx context.Context, lat, lon, radiusM float64) (*geojson.Feature, error) {
	return c.feature(ctx, "/api/hydrology/watershed", point(lat, lon).opt("radius_m", radiusM))
}

// WatershedContours returns contours clipped to the basin at a point.
func (c *Client) WatershedContours(ctx context.Context, lat, lon, radiusM, intervalM float64) (*geojson.FeatureCollection, error) {
	q := point(lat, lon).opt("radius_m", radiusM).opt("interval_m", intervalM)
	return c.collection(ctx, "/api/hydrology/watershed/contours", q)
}

// Contours returns contour lines around a point.
func (c *Client) Contours(ctx context.Context, lat, lon, radiusM, intervalM float64) (*geojson.FeatureCollection, error) {
	q := point(lat, lon).opt("radius_m", radiusM).opt("interval_m", intervalM)
	return c.collection(ctx, "/api/elevation/contours", q)
}

// BBoxContours returns contour lines clipped to b.
func (c *Client) BBoxContours(ctx context.Context, b orb.Bound, intervalM float64) (*geojson.FeatureCollection, error) {
	return c.collection(ctx, "/api/elevation/contours/bbox", box(b).opt("interval_m", intervalM))
}

// Grid computes a heatmap synchronously.
func (c *Client) Grid(ctx context.Context, b orb.Bound, spacingM float64) (*geojson.FeatureCollection, error) {
	return c.collection(ctx, "/api/hydrology/watershed/grid", box(b).opt("grid_spacing_m", spacingM))
}

// Rivers returns river lines crossing b.
func (c *Client) Rivers(ctx context.Context, b orb.Bound) (*geojson.FeatureCollection, error) {
	return c.collection(ctx, "/api/hydrology/rivers", box(b))
}

// FloodZones returns flood polygons crossing b.
func (c *Client) FloodZones(ctx context.Context, b orb.Bound) (*geojson.FeatureCollection, error) {
	return c.collection(ctx, "/api/flood/zones", box(b))
}

// FloodPoint returns the flood zone at a point.
func (c *Client) FloodPoint(ctx context.Context, lat, lon float64) (types.FloodPoint, error) {
	var fp types.FloodPoint
	err := c.getJSON(ctx, "/api/flood/point", point(lat, lon), &fp)
	return fp, err
}

// Buildability returns the verdict for a point.
func (c *Client) Buildability(ctx context.Context, lat, lon float64) (types.Buildability, error) {
	var b types.Buildability
	err := c.getJSON(ctx, "/api/analysis/buildability", point(lat, lon), &b)
	return b, err
}

// Placement asks for up to n building sites within radiusM of a point.
func (c *Client) Placement(ctx context.Context, lat, lon, radiusM float64, n int) (types.Suggestions, error) {
	q := point(lat, lon).opt("radius_m", radiusM).opt("num_suggestions", float64(n))
	body, err := c.do(ctx, http.MethodPost, "/api/analysis/optimal-placement", q)
	if err != nil {
		return types.Suggestions{}, err
	}
	var out types.Suggestions
	if err := json.Unmarshal(body, &out); err != nil {
		return types.Suggestions{}, fmt.Errorf("decode placement: %w", err)
	}
	return out, nil
}

// SubmitGridJob queues a heatmap. A full queue yields ErrBackpressure.
func (c *Client) SubmitGridJob(ctx context.Context, b orb.Bound, spacingM float64) (types.JobAccepted, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/hydrology/watershed/grid/jobs", box(b).opt("grid_spacing_m", spacingM))
	if err != nil {
		return types.JobAccepted{}, err
	}
	var acc types.JobAccepted
	if err := json.Unmarshal(body, &acc); err != nil {
		return types.JobAccepted{}, fmt.Errorf("decode job: %w", err)
	}
	return acc, nil
}

// Job fetches the state of a grid job.
func (c *Client) Job(ctx context.Context, id string) (types.JobStatus, error) {
	var st types.JobStatus
	err := c.getJSON(ctx, "/api/hydrology/watershed/grid/jobs/"+url.PathEscape(id), nil, &st)
	return st, err
}

// WaitJob polls until the job succeeds or fails, or ctx ends.
func (c *Client) WaitJob(ctx context.Context, id string) (types.JobStatus, error) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()
	for {
		st, err := c.Job(ctx, id)
		if err != nil {
			return st, err
		}
		if model.JobState(st.State).Terminal() {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ticker.C:
		}
	}
}
