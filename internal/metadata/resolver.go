// Package metadata resolves descriptive video information from a YouTube URL.
//
// Resolution is tiered: a deterministic placeholder built from the video id
// is always available, and a best-effort scrape of the watch page overrides
// whichever fields it can find. The watch page belongs to an uncontrolled
// third party that actively blocks non-browser clients, so every enrichment
// failure degrades to the placeholder instead of failing the caller.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/logging"
)

// ErrInvalidSource reports a URL no video id can be extracted from.
var ErrInvalidSource = errors.New("invalid YouTube URL")

// Metadata is read-only descriptive info for a video.
type Metadata struct {
	VideoID       string `json:"videoId"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	LengthSeconds int    `json:"lengthSeconds"`
	Thumbnail     string `json:"thumbnail"`
}

var (
	// urlPattern matches watch-page, short-link, embed and legacy /v/ forms.
	urlPattern = regexp.MustCompile(`^.*((youtu\.be/)|(v/)|(/u/\w/)|(embed/)|(watch\?))\??v?=?([^#&?]*).*`)
	idPattern  = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

	titleRe    = regexp.MustCompile(`<title>([^<]*)</title>`)
	authorRe   = regexp.MustCompile(`"ownerChannelName":"([^"]*)"`)
	durationRe = regexp.MustCompile(`"lengthSeconds":"([^"]*)"`)
)

// ExtractVideoID pulls the canonical 11-character video id out of a URL.
func ExtractVideoID(rawURL string) (string, error) {
	m := urlPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if len(m) < 8 || !idPattern.MatchString(m[7]) {
		return "", ErrInvalidSource
	}
	return m[7], nil
}

// Thumbnail returns the highest quality thumbnail URL for a video id.
func Thumbnail(videoID string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", videoID)
}

// placeholder is the guaranteed-available floor for a resolved id.
func placeholder(videoID string) Metadata {
	return Metadata{
		VideoID:       videoID,
		Title:         fmt.Sprintf("YouTube Video %s", videoID),
		Author:        "YouTube Channel",
		LengthSeconds: 180,
		Thumbnail:     Thumbnail(videoID),
	}
}

const (
	defaultFetchTimeout = 15 * time.Second
	minPageSize         = 1000
)

// Resolver resolves Metadata with bounded, circuit-broken page scraping.
type Resolver struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
	baseURL string // overridable in tests
}

// NewResolver creates a resolver. A zero timeout uses the 15s default.
func NewResolver(timeout time.Duration, log *logging.Logger) *Resolver {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if log == nil {
		log = logging.StdLogger()
	}
	return &Resolver{
		client: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "youtube-page-fetch",
			Timeout: time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		logger:  log,
		baseURL: "https://www.youtube.com",
	}
}

// Resolve returns metadata for the URL. The only error it can return is
// ErrInvalidSource; every enrichment failure yields the placeholder.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (Metadata, error) {
	videoID, err := ExtractVideoID(rawURL)
	if err != nil {
		return Metadata{}, err
	}

	meta := placeholder(videoID)

	body, err := r.fetchWatchPage(ctx, videoID)
	if err != nil {
		r.logger.Debug(ctx, "metadata enrichment skipped", "video_id", videoID, "error", err)
		return meta, nil
	}

	// Partial enrichment is expected; override only the fields that matched.
	if m := titleRe.FindStringSubmatch(body); len(m) == 2 && m[1] != "" {
		meta.Title = strings.TrimSpace(strings.TrimSuffix(m[1], " - YouTube"))
	}
	if m := authorRe.FindStringSubmatch(body); len(m) == 2 && m[1] != "" {
		meta.Author = m[1]
	}
	if m := durationRe.FindStringSubmatch(body); len(m) == 2 {
		if secs, err := strconv.Atoi(m[1]); err == nil && secs > 0 {
			meta.LengthSeconds = secs
		}
	}

	return meta, nil
}

func (r *Resolver) fetchWatchPage(ctx context.Context, videoID string) (string, error) {
	result, err := r.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/watch?v=%s", r.baseURL, videoID), nil)
		if err != nil {
			return nil, err
		}
		setBrowserHeaders(req)

		res, err := r.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("watch page returned status %d", res.StatusCode)
		}

		body, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, err
		}
		if len(body) < minPageSize {
			return nil, fmt.Errorf("watch page payload too small: %d bytes", len(body))
		}
		return string(body), nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// setBrowserHeaders applies a realistic browser request signature; YouTube
// rejects obviously non-browser clients.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}
