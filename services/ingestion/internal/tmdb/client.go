package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/catalog-graph/services/ingestion/internal/ratelimit"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"

	maxBodyBytes = 8 << 20
	userAgent    = "catalog-graph-ingestion/1.0"
)

// Client is the rate-limited TMDB v3 client. Every request, including
// concurrent ones, is admitted through the same ratelimit.Queue.
type Client struct {
	baseURL    string
	apiKey     string
	bearer     string
	language   string
	httpClient *http.Client
	queue      *ratelimit.Queue
	log        *zap.Logger
}

var _ Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithQueue shares an existing rate-limit queue.
func WithQueue(q *ratelimit.Queue) Option {
	return func(c *Client) {
		if q != nil {
			c.queue = q
		}
	}
}

// WithLogger sets the logger used for failed fetches.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithLanguage sets the language query parameter, e.g. "en-US".
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = strings.TrimSpace(lang)
	}
}

// WithBearerToken authenticates with a v4 read access token instead of api_key.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.bearer = strings.TrimSpace(token)
	}
}

// New creates a TMDB client. Either apiKey or WithBearerToken is required.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		queue:      ratelimit.New(40, 10*time.Second),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiKey == "" && c.bearer == "" {
		return nil, errors.New("tmdb api key or bearer token required")
	}
	return c, nil
}

// Pending reports queued plus in-flight requests.
func (c *Client) Pending() int {
	return c.queue.Pending()
}

// PopularMovies returns one page of /movie/popular.
func (c *Client) PopularMovies(ctx context.Context, page int) (*Page[MovieStub], error) {
	var out Page[MovieStub]
	if err := c.get(ctx, "popular_movies", "/movie/popular", pageParams(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PopularShows returns one page of /tv/popular.
func (c *Client) PopularShows(ctx context.Context, page int) (*Page[ShowStub], error) {
	var out Page[ShowStub]
	if err := c.get(ctx, "popular_shows", "/tv/popular", pageParams(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MovieDetail fetches a movie with credits, companies and collection.
func (c *Client) MovieDetail(ctx context.Context, movieID int64) (*MovieDetail, error) {
	path := fmt.Sprintf("/movie/%d", movieID)
	if movieID <= 0 {
		return nil, &FetchError{Op: "movie_detail", Path: path, Err: errors.New("movie id must be positive")}
	}
	var out MovieDetail
	if err := c.get(ctx, "movie_detail", path, url.Values{"append_to_response": {"credits"}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ShowDetail fetches a show with credits, companies, networks and season summaries.
func (c *Client) ShowDetail(ctx context.Context, showID int64) (*ShowDetail, error) {
	path := fmt.Sprintf("/tv/%d", showID)
	if showID <= 0 {
		return nil, &FetchError{Op: "show_detail", Path: path, Err: errors.New("show id must be positive")}
	}
	var out ShowDetail
	if err := c.get(ctx, "show_detail", path, url.Values{"append_to_response": {"credits"}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SeasonDetail fetches one season; episodes carry their guest stars and crew.
func (c *Client) SeasonDetail(ctx context.Context, showID int64, seasonNumber int) (*SeasonDetail, error) {
	path := fmt.Sprintf("/tv/%d/season/%d", showID, seasonNumber)
	if showID <= 0 || seasonNumber < 0 {
		return nil, &FetchError{Op: "season_detail", Path: path, Err: errors.New("invalid show id or season number")}
	}
	var out SeasonDetail
	if err := c.get(ctx, "season_detail", path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Genres fetches the movie and TV vocabularies concurrently and merges them
// by id, movie entries first.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	var movie, tv genreList
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.get(gctx, "movie_genres", "/genre/movie/list", nil, &movie) })
	g.Go(func() error { return c.get(gctx, "tv_genres", "/genre/tv/list", nil, &tv) })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(movie.Genres)+len(tv.Genres))
	out := make([]Genre, 0, len(movie.Genres)+len(tv.Genres))
	for _, list := range [][]Genre{movie.Genres, tv.Genres} {
		for _, gen := range list {
			if _, ok := seen[gen.ID]; ok {
				continue
			}
			seen[gen.ID] = struct{}{}
			out = append(out, gen)
		}
	}
	return out, nil
}

func pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

// get admits one request through the queue and decodes the body into out.
// Failures are logged and returned as *FetchError.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) error {
	start := time.Now()
	_, err := ratelimit.Do(ctx, c.queue, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.do(ctx, op, path, params, out)
	})
	if err == nil {
		return nil
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		fe = &FetchError{Op: op, Path: path, Err: err}
	}
	c.log.Warn("tmdb fetch failed",
		zap.String("op", op),
		zap.String("path", path),
		zap.Int("status", fe.Status),
		zap.Duration("latency", time.Since(start)),
		zap.Error(fe.Err),
	)
	return fe
}

func (c *Client) do(ctx context.Context, op, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return &FetchError{Op: op, Path: path, Err: fmt.Errorf("parse tmdb url: %w", err)}
	}
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	if c.bearer == "" {
		q.Set("api_key", c.apiKey)
	}
	if c.language != "" {
		q.Set("language", c.language)
	}
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return &FetchError{Op: op, Path: path, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{Op: op, Path: path, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &FetchError{Op: op, Path: path, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{Op: op, Path: path, Status: resp.StatusCode,
			Err: fmt.Errorf("body=%q", string(b[:min(len(b), 200)]))}
	}
	if err := json.Unmarshal(b, out); err != nil {
		return &FetchError{Op: op, Path: path, Status: resp.StatusCode,
			Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
