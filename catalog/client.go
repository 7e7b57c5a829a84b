package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pipocanota/models"
	"pipocanota/utils"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	DefaultLanguage     = "pt-BR"
	DefaultTimeout      = 10 * time.Second
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	APIKey            string
	AuthMode          string // "bearer", "query" or "" to guess from the key
	BaseURL           string
	ImageBaseURL      string
	Language          string
	IncludeAdult      bool
	Timeout           time.Duration
	CacheTTL          time.Duration // 0 disables the search cache
	RequestsPerSecond float64       // 0 disables client-side throttling
}

// Client talks to the TMDB v3 API. Search and GetDetails never fail: any
// problem yields an empty result and a log line. SearchResult and Details
// expose the underlying error for callers that need to tell "no matches"
// from "could not ask".
type Client struct {
	opts    Options
	http    *fasthttp.Client
	limiter *rate.Limiter
	cache   *utils.MemoryCache
	log     *utils.Logger
}

// NewClient creates a catalog client
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.ImageBaseURL == "" {
		opts.ImageBaseURL = DefaultImageBaseURL
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	opts.APIKey = strings.TrimSpace(opts.APIKey)

	c := &Client{
		opts: opts,
		http: &fasthttp.Client{
			Name:                "pipocanota",
			ReadTimeout:         opts.Timeout,
			WriteTimeout:        opts.Timeout,
			MaxIdleConnDuration: time.Minute,
		},
		log: utils.Log.WithField("component", "catalog"),
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	if opts.CacheTTL > 0 {
		c.cache = utils.NewMemoryCache(opts.CacheTTL)
	}
	if opts.APIKey == "" {
		c.log.Warn("TMDB API key not found; search will return no results")
	}
	return c
}

// Close releases the cache sweeper
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// Configured reports whether a credential is present
func (c *Client) Configured() bool {
	return c.opts.APIKey != ""
}

// PosterURL turns a TMDB poster path into an absolute image URL
func (c *Client) PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return c.opts.ImageBaseURL + path
}

type searchResponse struct {
	Results []movieJSON `json:"results"`
}

type movieJSON struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  *string `json:"poster_path"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
}

func (m movieJSON) summary() models.MovieSummary {
	s := models.MovieSummary{
		ID:          m.ID,
		Title:       utils.CleanText(m.Title),
		Overview:    utils.CleanText(m.Overview),
		ReleaseDate: m.ReleaseDate,
	}
	if m.PosterPath != nil {
		s.PosterPath = *m.PosterPath
	}
	return s
}

type detailsResponse struct {
	movieJSON
	Tagline      string  `json:"tagline"`
	BackdropPath *string `json:"backdrop_path"`
	Runtime      *int    `json:"runtime"`
	VoteAverage  float64 `json:"vote_average"`
	Genres       []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// Search is the fail-soft search: errors are logged and an empty slice returned
func (c *Client) Search(ctx context.Context, query string) []models.MovieSummary {
	movies, err := c.SearchResult(ctx, query)
	if err != nil {
		c.logFailure(c.log.WithField("query", query), "Search", err)
		return []models.MovieSummary{}
	}
	return movies
}

// SearchResult searches movies by title. A blank query returns an empty
// result without touching the network.
func (c *Client) SearchResult(ctx context.Context, query string) ([]models.MovieSummary, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []models.MovieSummary{}, nil
	}
	if !c.Configured() {
		return []models.MovieSummary{}, ErrMissingAPIKey
	}

	cacheKey := c.opts.Language + "|" + strings.ToLower(q)
	if c.cache != nil {
		if v, ok := c.cache.Get(cacheKey); ok {
			return append([]models.MovieSummary(nil), v.([]models.MovieSummary)...), nil
		}
	}

	params := url.Values{}
	params.Set("query", q)
	params.Set("include_adult", strconv.FormatBool(c.opts.IncludeAdult))
	params.Set("page", "1")

	var res searchResponse
	if err := c.get(ctx, "/search/movie", params, &res); err != nil {
		return []models.MovieSummary{}, err
	}

	movies := make([]models.MovieSummary, 0, len(res.Results))
	for _, r := range res.Results {
		movies = append(movies, r.summary())
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, movies, c.opts.CacheTTL)
	}
	return append([]models.MovieSummary(nil), movies...), nil
}

// GetDetails is the fail-soft details lookup: nil on any failure
func (c *Client) GetDetails(ctx context.Context, movieID int) *models.MovieDetails {
	details, err := c.Details(ctx, movieID)
	if err != nil {
		c.logFailure(c.log.WithField("movie", movieID), "Details", err)
		return nil
	}
	return details
}

// logFailure keeps the expected misses (no key, unknown id) out of the warnings
func (c *Client) logFailure(l *utils.Logger, op string, err error) {
	if errors.Is(err, ErrMissingAPIKey) || errors.Is(err, ErrNotFound) {
		l.Debug("%s skipped: %v", op, err)
		return
	}
	l.Warn("%s failed: %v", op, err)
}

// Details fetches one movie, including runtime and genres
func (c *Client) Details(ctx context.Context, movieID int) (*models.MovieDetails, error) {
	if movieID <= 0 {
		return nil, ErrNotFound
	}
	if !c.Configured() {
		return nil, ErrMissingAPIKey
	}

	var d detailsResponse
	if err := c.get(ctx, "/movie/"+strconv.Itoa(movieID), url.Values{}, &d); err != nil {
		return nil, err
	}

	details := &models.MovieDetails{
		MovieSummary: d.summary(),
		Tagline:      utils.CleanText(d.Tagline),
		VoteAverage:  d.VoteAverage,
	}
	if d.BackdropPath != nil {
		details.BackdropPath = *d.BackdropPath
	}
	if d.Runtime != nil {
		details.Runtime = *d.Runtime
	}
	for _, g := range d.Genres {
		details.Genres = append(details.Genres, g.Name)
	}
	return details, nil
}

// useBearer decides where the credential goes. v4 read tokens are JWTs and
// must be sent as a bearer header; v3 keys go in the query string.
func (c *Client) useBearer() bool {
	switch strings.ToLower(c.opts.AuthMode) {
	case "bearer":
		return true
	case "query":
		return false
	default:
		return strings.HasPrefix(c.opts.APIKey, "eyJ")
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	params.Set("language", c.opts.Language)
	bearer := c.useBearer()
	if !bearer {
		params.Set("api_key", c.opts.APIKey)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.opts.BaseURL + path + "?" + params.Encode())
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if bearer {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	deadline := time.Now().Add(c.opts.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("tmdb %s: %w", path, err)
	}

	status := resp.StatusCode()
	c.log.Debug("GET %s -> %d in %s", path, status, time.Since(start))

	switch {
	case status == fasthttp.StatusNotFound:
		return ErrNotFound
	case status < 200 || status > 299:
		return fmt.Errorf("%w: %s returned %d", ErrUpstream, path, status)
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("tmdb %s: decode: %w", path, err)
	}
	return nil
}
