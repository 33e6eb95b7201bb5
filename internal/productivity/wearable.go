package productivity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/balkashynov/pulse/internal/models"
)

var ErrExternalFetchFailed = errors.New("wearable fetch failed")

// WearableFeed supplies same-day wearable samples. ok is false whenever no
// sample could be obtained, for any reason.
type WearableFeed interface {
	TryFetch(ctx context.Context, day time.Time) (models.WearableSample, bool)
}

// HTTPWearableFeed fetches samples from GET {BaseURL}/samples/{YYYY-MM-DD}
type HTTPWearableFeed struct {
	BaseURL string
	Client  *http.Client
	Logger  *slog.Logger
}

// NewHTTPWearableFeed returns a feed for baseURL. An empty baseURL yields nil.
func NewHTTPWearableFeed(baseURL string, logger *slog.Logger) *HTTPWearableFeed {
	if baseURL == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPWearableFeed{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{},
		Logger:  logger,
	}
}

// TryFetch never returns an error; failures are logged and reported as !ok
func (f *HTTPWearableFeed) TryFetch(ctx context.Context, day time.Time) (models.WearableSample, bool) {
	sample, err := f.fetch(ctx, day)
	if err != nil {
		f.Logger.Warn("wearable sample unavailable",
			slog.String("date", models.DayKey(day)),
			slog.String("error", err.Error()))
		return models.WearableSample{}, false
	}
	return sample, true
}

func (f *HTTPWearableFeed) fetch(ctx context.Context, day time.Time) (models.WearableSample, error) {
	var sample models.WearableSample

	url := fmt.Sprintf("%s/samples/%s", f.BaseURL, models.DayKey(day))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return sample, fmt.Errorf("%w: %v", ErrExternalFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return sample, fmt.Errorf("%w: %v", ErrExternalFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return sample, fmt.Errorf("%w: status %d", ErrExternalFetchFailed, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&sample); err != nil {
		return sample, fmt.Errorf("%w: decoding sample: %v", ErrExternalFetchFailed, err)
	}
	return sample, nil
}
