// /internal/music/resolver/youtube.go
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	youtube "github.com/kkdai/youtube/v2"

	"shizu/internal/music/stream"
	"shizu/pkg/retrylimit"
)

var (
	videoPattern    = regexp.MustCompile(`"url":"/watch\?v=([a-zA-Z0-9_-]{11})`)
	ErrNoVideoMatch = errors.New("no video found for the given query")
)

// YouTube resolves tracks against YouTube: direct links through the youtube
// client, free text through a first-result search.
type YouTube struct {
	BaseURL string
	Client  *http.Client

	yt  youtube.Client
	lim *retrylimit.AdaptiveLimiter
}

func NewYouTube() *YouTube {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return &YouTube{
		BaseURL: "https://www.youtube.com",
		Client:  httpClient,
		yt:      youtube.Client{HTTPClient: httpClient},
		lim:     retrylimit.NewAdaptiveLimiter(2, 1, 10, 1, 0.5),
	}
}

// ResolveURL fetches metadata for a direct link. Non-YouTube links are passed
// through with the raw URL as the source reference and no display metadata;
// yt-dlp sorts them out at playback time.
func (y *YouTube) ResolveURL(ctx context.Context, input string) (*Track, error) {
	if err := y.lim.Wait(ctx); err != nil {
		return nil, err
	}

	video, err := y.yt.GetVideoContext(ctx, input)
	if err != nil {
		if errors.Is(err, youtube.ErrInvalidCharactersInVideoID) || errors.Is(err, youtube.ErrVideoIDMinLength) {
			return &Track{
				Meta:   Metadata{SourceURL: input},
				Source: &stream.Source{URL: input},
			}, nil
		}
		y.lim.Failure()
		return nil, fmt.Errorf("failed to fetch video: %w", err)
	}
	y.lim.Success()

	canonical := y.BaseURL + "/watch?v=" + video.ID

	var thumbnail string
	if len(video.Thumbnails) > 0 {
		thumbnail = video.Thumbnails[0].URL
	}

	return &Track{
		Meta: Metadata{
			Title:     video.Title,
			Thumbnail: thumbnail,
			SourceURL: canonical,
		},
		Source: &stream.Source{URL: canonical},
	}, nil
}

// ResolveQuery searches YouTube for the query and resolves the first hit.
func (y *YouTube) ResolveQuery(ctx context.Context, input string) (*Track, error) {
	videoURL, err := y.searchFirstVideoURL(ctx, input)
	if err != nil {
		return nil, err
	}
	return y.ResolveURL(ctx, videoURL)
}

// searchFirstVideoURL scrapes the search results page for the first video URL.
func (y *YouTube) searchFirstVideoURL(ctx context.Context, query string) (string, error) {
	searchURL := fmt.Sprintf("%s/results?search_query=%s", y.BaseURL, url.QueryEscape(query))

	var body []byte
	err := retrylimit.WithRetry(ctx, y.lim, 3, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
		if err != nil {
			return err
		}

		resp, err := y.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("search failed with status code %v", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return "", err
	}

	matches := videoPattern.FindStringSubmatch(string(body))
	if len(matches) > 1 {
		return fmt.Sprintf("%s/watch?v=%s", y.BaseURL, matches[1]), nil
	}

	return "", ErrNoVideoMatch
}
