package evidence

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okarpov/claimlens/internal/model"
	"github.com/okarpov/claimlens/internal/worker"
)

func testKnowledgeClient(baseURL string) *KnowledgeClient {
	return NewKnowledgeClient(
		model.KnowledgeConfig{BaseURL: baseURL, Timeout: 2 * time.Second, CacheTTL: time.Minute},
		model.HTTPConfig{UserAgent: "test-agent"},
		worker.NewHostLimiter(1000, 10),
		nil,
	)
}

func TestKnowledgeLookup_DirectHit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/page/summary/") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("unexpected user agent: %q", ua)
		}
		fmt.Fprint(w, `{
			"title": "Eiffel Tower",
			"extract": "The Eiffel Tower is a wrought-iron lattice tower in Paris, France.",
			"content_urls": {"desktop": {"page": "https://en.wikipedia.org/wiki/Eiffel_Tower"}}
		}`)
	}))
	defer srv.Close()

	c := testKnowledgeClient(srv.URL)
	ev, err := c.Lookup(context.Background(), "Eiffel Tower")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence, got nil")
	}
	if ev.Source != "Eiffel Tower" {
		t.Errorf("source = %q", ev.Source)
	}
	if ev.Kind != model.EvidenceKindKnowledgeBase {
		t.Errorf("kind = %s", ev.Kind)
	}
	if ev.Authority != model.TierSecondary {
		t.Errorf("authority = %s", ev.Authority)
	}
	if !strings.Contains(ev.VerdictNote, "wrought-iron") {
		t.Errorf("verdict note = %q", ev.VerdictNote)
	}
}

func TestKnowledgeLookup_SearchFallback(t *testing.T) {
	var summaryCalls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/page/summary/"):
			// Direct title misses, the resolved title hits
			if atomic.AddInt32(&summaryCalls, 1) == 1 {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprint(w, `{"title": "Marie Curie", "extract": "Marie Curie was a physicist and chemist."}`)
		case r.URL.Path == "/w/api.php":
			if r.URL.Query().Get("action") != "opensearch" {
				t.Errorf("unexpected action: %s", r.URL.Query().Get("action"))
			}
			fmt.Fprint(w, `["marie curie", ["Marie Curie"], [""], ["https://en.wikipedia.org/wiki/Marie_Curie"]]`)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := testKnowledgeClient(srv.URL)
	ev, err := c.Lookup(context.Background(), "marie curie physicist")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence via search fallback, got nil")
	}
	if ev.Source != "Marie Curie" {
		t.Errorf("source = %q", ev.Source)
	}
}

func TestKnowledgeLookup_MissIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/page/summary/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		// Opensearch finds nothing
		fmt.Fprint(w, `["nonsense", [], [], []]`)
	}))
	defer srv.Close()

	c := testKnowledgeClient(srv.URL)
	ev, err := c.Lookup(context.Background(), "nonsense entity xyz")
	if err != nil {
		t.Fatalf("a miss must not be an error: %v", err)
	}
	if ev != nil {
		t.Errorf("expected nil evidence on miss, got %+v", ev)
	}
}

func TestKnowledgeLookup_ServerErrorIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testKnowledgeClient(srv.URL)
	ev, err := c.Lookup(context.Background(), "anything")
	if err != nil {
		t.Fatalf("lookup failure must degrade to a miss: %v", err)
	}
	if ev != nil {
		t.Errorf("expected nil evidence, got %+v", ev)
	}
}

func TestKnowledgeLookup_CachesHits(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"title": "Paris", "extract": "Paris is the capital of France."}`)
	}))
	defer srv.Close()

	c := testKnowledgeClient(srv.URL)
	for i := 0; i < 3; i++ {
		if ev, _ := c.Lookup(context.Background(), "Paris"); ev == nil {
			t.Fatal("expected evidence")
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 upstream call, got %d", got)
	}
}

func TestKnowledgeLookup_EmptyEntity(t *testing.T) {
	c := testKnowledgeClient("http://127.0.0.1:0")
	ev, err := c.Lookup(context.Background(), "   ")
	if err != nil || ev != nil {
		t.Errorf("empty entity: expected (nil, nil), got (%+v, %v)", ev, err)
	}
}
