package options_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/options"
)

func TestStaticFilters(t *testing.T) {
	src := options.Static{{Label: "Gulu Hub", Value: "gulu"}, {Label: "Lira Hub", Value: "lira"}, {Label: "Mbale", Value: "mbale"}}
	got, err := src.Options(context.Background(), " hub")
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	want := []model.Option{{Label: "Gulu Hub", Value: "gulu"}, {Label: "Lira Hub", Value: "lira"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	all, _ := src.Options(context.Background(), "")
	if len(all) != 3 {
		t.Fatalf("expected all options for empty query, got %d", len(all))
	}
}

func TestRemoteFetchesAndRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if got := r.URL.Query().Get("search"); got != "gu" {
			t.Errorf("expected search=gu, got %q", got)
		}
		if got := r.URL.Query().Get("region"); got != "north" {
			t.Errorf("expected region=north, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"items": [
			{"id": 7, "attributes": {"name": "Gulu Hub"}},
			{"id": 8},
			{"attributes": {"name": "missing id"}}
		]}}`))
	}))
	defer server.Close()

	remote, ok := options.RemoteFromMetadata(map[string]string{
		options.MetaEndpointURL:           server.URL,
		options.MetaResultsPath:           "data.items",
		options.MetaLabelField:            "attributes.name",
		options.MetaValueField:            "id",
		options.MetaQueryParam:            "search",
		"options.endpoint.params.region": "north",
	}, options.WithRetry(3, time.Millisecond))
	if !ok {
		t.Fatalf("expected remote config")
	}

	got, err := remote.Options(context.Background(), "gu")
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	want := []model.Option{{Label: "Gulu Hub", Value: "7"}, {Label: "8", Value: "8"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected one retry, got %d calls", calls.Load())
	}
}

func TestRemoteDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := options.NewRemote(server.URL, options.WithRetry(5, time.Millisecond)).Options(context.Background(), "")
	var status *options.StatusError
	if !errors.As(err, &status) || status.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 status error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestForField(t *testing.T) {
	if _, ok := options.ForField(model.Field{Name: "notes", UIType: model.UITypeTextarea}); ok {
		t.Fatalf("text field should have no source")
	}
	src, ok := options.ForField(model.Field{Name: "hub", UIType: model.UITypeSelect, Options: []model.Option{{Label: "A", Value: "a"}}})
	if !ok {
		t.Fatalf("expected static source")
	}
	if _, isStatic := src.(options.Static); !isStatic {
		t.Fatalf("expected Static, got %T", src)
	}
	src, _ = options.ForField(model.Field{Name: "hub", SearchURL: "http://example.invalid/hubs"})
	if _, isRemote := src.(*options.Remote); !isRemote {
		t.Fatalf("expected Remote, got %T", src)
	}
}

func TestRemoteBaseURL(t *testing.T) {
	cases := []struct {
		endpoint string
		base     string
		want     string
	}{
		{endpoint: "/api/regions", base: "http://backend:9000/", want: "http://backend:9000/api/regions"},
		{endpoint: "api/regions", base: "http://backend:9000", want: "http://backend:9000/api/regions"},
		{endpoint: "https://other/regions", base: "http://backend:9000", want: "https://other/regions"},
		{endpoint: "/api/regions", base: "", want: "/api/regions"},
	}
	for _, tc := range cases {
		got := options.NewRemote(tc.endpoint, options.WithBaseURL(tc.base)).URL
		if got != tc.want {
			t.Errorf("NewRemote(%q) with base %q = %q, want %q", tc.endpoint, tc.base, got, tc.want)
		}
	}
}

func TestSearcherDiscardsStaleResponses(t *testing.T) {
	release := make(chan struct{})
	slowStarted := make(chan struct{})
	src := options.SourceFunc(func(ctx context.Context, query string) ([]model.Option, error) {
		if query == "slow" {
			close(slowStarted)
			<-release
			return []model.Option{{Label: "stale", Value: "stale"}}, nil
		}
		return []model.Option{{Label: query, Value: query}}, nil
	})

	var outcomes []options.Outcome
	outcomeCh := make(chan options.Outcome, 4)
	searcher := options.NewSearcher("hub", src, func(_ string, outcome options.Outcome, _ time.Duration) {
		outcomeCh <- outcome
	})

	errCh := make(chan error, 1)
	go func() {
		_, err := searcher.Search(context.Background(), "slow")
		errCh <- err
	}()
	<-slowStarted

	got, err := searcher.Search(context.Background(), "gulu")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if diff := cmp.Diff([]model.Option{{Label: "gulu", Value: "gulu"}}, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	close(release)
	if err := <-errCh; !errors.Is(err, options.ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	latest, seq := searcher.Latest()
	if seq != 2 || latest[0].Value != "gulu" {
		t.Fatalf("latest should be the newest result, got %v (seq %d)", latest, seq)
	}

	outcomes = append(outcomes, <-outcomeCh, <-outcomeCh)
	if diff := cmp.Diff([]options.Outcome{options.OutcomeOK, options.OutcomeStale}, outcomes); diff != "" {
		t.Fatalf("outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestSearcherCloseCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	src := options.SourceFunc(func(ctx context.Context, _ string) ([]model.Option, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	group := options.NewGroup(nil)
	group.Add("hub", src)

	errCh := make(chan error, 1)
	go func() {
		_, err := group.Search(context.Background(), "hub", "g")
		errCh <- err
	}()
	<-started
	group.Close()

	if err := <-errCh; !errors.Is(err, options.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := group.Search(context.Background(), "hub", "g"); !errors.Is(err, options.ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
	if _, err := group.Search(context.Background(), "missing", "g"); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}
