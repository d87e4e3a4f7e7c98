package lookup

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

	"github.com/dmitrijs2005/canvasser/internal/common"
	"github.com/dmitrijs2005/canvasser/internal/logging"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	DefaultOverpassURL  = "https://overpass-api.de/api/interpreter"
	DefaultRadius       = 2000.0
	DefaultUserAgent    = "canvasser/1.0"

	overpassTimeoutSec = 30
)

// Options configure NominatimLookup. Zero values take the defaults above.
type Options struct {
	NominatimURL string
	OverpassURL  string
	UserAgent    string
	// Radius of the street search around the city center, in meters.
	Radius float64
	// RequestsPerSecond shared by both services; public instances ask for 1.
	RequestsPerSecond float64
	Timeout           time.Duration
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type overpassResponse struct {
	Elements []struct {
		Tags     map[string]string    `json:"tags"`
		Geometry []models.Coordinates `json:"geometry"`
	} `json:"elements"`
}

// NominatimLookup talks to Nominatim for geocoding and to Overpass for street
// lists. Outbound requests are rate limited and concurrent resolves of the
// same query share one request.
type NominatimLookup struct {
	http        *http.Client
	searchURL   string
	overpassURL string
	userAgent   string
	radius      float64
	timeout     time.Duration
	limiter     *rate.Limiter
	group       singleflight.Group
	logger      logging.Logger
}

func NewNominatimLookup(opts Options, logger logging.Logger) *NominatimLookup {
	if opts.NominatimURL == "" {
		opts.NominatimURL = DefaultNominatimURL
	}
	if opts.OverpassURL == "" {
		opts.OverpassURL = DefaultOverpassURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Radius <= 0 {
		opts.Radius = DefaultRadius
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = (overpassTimeoutSec + 5) * time.Second
	}

	return &NominatimLookup{
		http:        &http.Client{Timeout: opts.Timeout},
		searchURL:   strings.TrimRight(opts.NominatimURL, "/") + "/search",
		overpassURL: opts.OverpassURL,
		userAgent:   opts.UserAgent,
		radius:      opts.Radius,
		timeout:     opts.Timeout,
		limiter:     rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		logger:      logger.With("module", "lookup"),
	}
}

// Resolve returns the center of the best match for query. A shared resolve
// outlives the caller that started it; each caller stops waiting when its own
// ctx is done.
func (l *NominatimLookup) Resolve(ctx context.Context, query string) (models.Coordinates, error) {
	ch := l.group.DoChan(strings.ToLower(strings.TrimSpace(query)), func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()
		return l.resolve(rctx, query)
	})

	select {
	case <-ctx.Done():
		return models.Coordinates{}, fmt.Errorf("%w: %w", common.ErrNetwork, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return models.Coordinates{}, r.Err
		}
		if r.Shared {
			l.logger.Debug(ctx, "resolve coalesced", "query", query)
		}
		return r.Val.(models.Coordinates), nil
	}
}

func (l *NominatimLookup) resolve(ctx context.Context, query string) (models.Coordinates, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("limit", "1")
	params.Add("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return models.Coordinates{}, err
	}

	var places []nominatimPlace
	if err := l.do(ctx, req, &places); err != nil {
		return models.Coordinates{}, err
	}
	if len(places) == 0 {
		return models.Coordinates{}, fmt.Errorf("%w: %s", common.ErrCityNotFound, query)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("bad latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("bad longitude %q: %w", places[0].Lon, err)
	}

	l.logger.Debug(ctx, "city resolved", "query", query, "place", places[0].DisplayName, "lat", lat, "lon", lon)
	return models.Coordinates{Lat: lat, Lon: lon}, nil
}

// StreetsNear lists the cleaned names of roads passing within the configured
// radius of at. The bounding box narrows the query; ways whose geometry never
// comes within the radius are dropped.
func (l *NominatimLookup) StreetsNear(ctx context.Context, at models.Coordinates) ([]string, error) {
	q := streetsQuery(SearchArea(at, l.radius), overpassTimeoutSec)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.overpassURL, strings.NewReader(q))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain")

	var resp overpassResponse
	if err := l.do(ctx, req, &resp); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.Elements))
	for _, e := range resp.Elements {
		n := e.Tags["name"]
		if n == "" || !WithinRadius(at, l.radius, e.Geometry) {
			continue
		}
		names = append(names, n)
	}
	streets := CleanStreetNames(names)
	l.logger.Debug(ctx, "streets fetched", "lat", at.Lat, "lon", at.Lon, "streets", len(streets))
	return streets, nil
}

// do waits for the limiter, sends req and decodes a 200 JSON body into out.
// Transport failures and non-200 answers wrap common.ErrNetwork.
func (l *NominatimLookup) do(ctx context.Context, req *http.Request, out any) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", common.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := l.http.Do(req)
	if err != nil {
		l.logger.Warn(ctx, "lookup request failed", "url", req.URL.Host, "error", err)
		return fmt.Errorf("%w: %w", common.ErrNetwork, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		l.logger.Warn(ctx, "lookup upstream error", "url", req.URL.Host, "status", resp.StatusCode)
		return fmt.Errorf("%w: upstream status %d", common.ErrNetwork, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.URL.Host, err)
	}
	return nil
}
