// Package refresher keeps dynamic content fresh: on every cycle it refetches
// each dynamic item whose update interval has elapsed and stores the response.
package refresher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

const maxBodyBytes = 1 << 20

var (
	ErrRunInProgress = errors.New("refresher: a refresh cycle is already running")
	ErrUpstreamFetch = errors.New("refresher: upstream fetch failed")
	ErrNotDynamic    = errors.New("refresher: content is not dynamic")
)

// Notifier receives a message for every refreshed item.
type Notifier interface {
	Publish(ctx context.Context, topic string, payload any) error
}

type Options struct {
	Concurrency  int
	FetchTimeout time.Duration
	HTTPClient   *http.Client
}

type Refresher struct {
	store    db.Store
	notifier Notifier
	client   *http.Client
	opts     Options
	now      func() time.Time
	running  atomic.Bool
}

func New(store db.Store, notifier Notifier, opts Options) *Refresher {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Refresher{store: store, notifier: notifier, client: client, opts: opts, now: time.Now}
}

// Summary describes one refresh cycle.
type Summary struct {
	Checked   int `json:"checked"`
	Stale     int `json:"stale"`
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}

// Run performs one refresh cycle. Per-item failures are logged and counted,
// never returned; the item keeps its previous data and is retried next cycle.
func (r *Refresher) Run(ctx context.Context) (Summary, error) {
	if !r.running.CompareAndSwap(false, true) {
		return Summary{}, ErrRunInProgress
	}
	defer r.running.Store(false)

	start := r.now()
	items, err := r.store.ListContent(ctx, db.ContentFilter{Type: model.ContentDynamic})
	if err != nil {
		return Summary{}, fmt.Errorf("list dynamic content: %w", err)
	}

	var refreshed, failed atomic.Int32
	summary := Summary{Checked: len(items)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i := range items {
		item := items[i]
		if !item.IsStale(start) {
			continue
		}
		summary.Stale++
		g.Go(func() error {
			if err := r.refresh(gctx, &item); err != nil {
				failed.Add(1)
				log.Error().Err(err).Int("content_id", item.ID).Str("api_url", apiURL(&item)).
					Msg("failed to refresh dynamic content")
				return nil
			}
			refreshed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	summary.Refreshed = int(refreshed.Load())
	summary.Failed = int(failed.Load())
	log.Info().Int("checked", summary.Checked).Int("stale", summary.Stale).
		Int("refreshed", summary.Refreshed).Int("failed", summary.Failed).
		Dur("took", time.Since(start)).Msg("dynamic content refresh finished")
	return summary, nil
}

// RefreshOne fetches a single dynamic item regardless of its interval.
func (r *Refresher) RefreshOne(ctx context.Context, id int) (*model.Content, error) {
	item, err := r.store.GetContentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Type != model.ContentDynamic {
		return nil, ErrNotDynamic
	}
	if err := r.refresh(ctx, item); err != nil {
		return nil, err
	}
	return r.store.GetContentByID(ctx, id)
}

func (r *Refresher) refresh(ctx context.Context, item *model.Content) error {
	url := apiURL(item)
	if url == "" {
		return fmt.Errorf("%w: content %d has no api url", ErrUpstreamFetch, item.ID)
	}
	data, err := r.fetch(ctx, url)
	if err != nil {
		return err
	}

	fetchedAt := r.now()
	if err := r.store.UpdateContentData(ctx, item.ID, data, fetchedAt); err != nil {
		return fmt.Errorf("store refreshed data: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Int("content_id", item.ID).Msg("dynamic content refreshed")
	if r.notifier != nil {
		topic := fmt.Sprintf("signage/content/%d/refreshed", item.ID)
		payload := map[string]any{"id": item.ID, "lastFetched": fetchedAt}
		if err := r.notifier.Publish(ctx, topic, payload); err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("failed to publish refresh event")
		}
	}
	return nil
}

func apiURL(c *model.Content) string {
	if c.APIURL == nil {
		return ""
	}
	return *c.APIURL
}

// fetch GETs url and returns a JSON document. Bodies that are not valid JSON
// are wrapped as a JSON string.
func (r *Refresher) fetch(ctx context.Context, url string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUpstreamFetch, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstreamFetch, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: %s response exceeds %d bytes", ErrUpstreamFetch, url, maxBodyBytes)
	}

	if json.Valid(body) {
		return body, nil
	}
	wrapped, err := json.Marshal(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}
	return wrapped, nil
}
