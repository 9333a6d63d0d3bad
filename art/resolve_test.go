package art

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fetchResult struct {
	data []byte
	err  error
}

// gatedFetcher holds every fetch until the test releases it.
type gatedFetcher struct {
	mu      sync.Mutex
	gates   map[string]chan fetchResult
	started chan string
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{gates: map[string]chan fetchResult{}, started: make(chan string, 8)}
}

func (f *gatedFetcher) gate(url string) chan fetchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gates[url] == nil {
		f.gates[url] = make(chan fetchResult, 1)
	}
	return f.gates[url]
}

// Fetch ignores cancellation so that stale results really do arrive late.
func (f *gatedFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.started <- url
	res := <-f.gate(url)
	return res.data, res.err
}

func TestResolver_BlankAndEmbedded(t *testing.T) {
	r := NewResolver(stillFetcher, nil)
	defer r.Close()

	var statuses []FetchStatus
	r.OnStatus(func(s FetchStatus) { statuses = append(statuses, s) })

	r.Resolve(ImageDataBackground(encodePNG(t, 3, 2)))
	img := r.Image()
	if img == nil || img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Fatalf("unexpected image %v", img)
	}
	r.Resolve(ImageDataBackground([]byte("garbage")))
	if r.Image() != nil {
		t.Errorf("undecodable bytes should resolve to no image")
	}
	r.Resolve(Blank())
	if r.Image() != nil || r.Status().State != FetchIdle {
		t.Errorf("blank should clear the image and be idle")
	}
	if len(statuses) != 3 {
		t.Errorf("expected 3 status notifications, got %v", statuses)
	}
}

func TestResolver_StaleFetchIsDiscarded(t *testing.T) {
	testCases := []struct {
		name  string
		stale fetchResult
	}{
		{name: "stale success"},
		{name: "stale failure", stale: fetchResult{err: errors.New("timeout")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newGatedFetcher()
			r := NewResolver(f, nil)
			defer r.Close()

			a, b := "https://example.com/a.png", "https://example.com/b.png"
			stale := tc.stale
			if stale.err == nil {
				stale.data = encodePNG(t, 9, 9)
			}

			r.Resolve(URLBackground(a))
			<-f.started
			r.Resolve(URLBackground(b))
			<-f.started
			if st := r.Status(); st.State != FetchFetching {
				t.Fatalf("expected fetching, got %+v", st)
			}

			f.gate(b) <- fetchResult{data: encodePNG(t, 4, 4)}
			f.gate(a) <- stale
			r.Wait()

			img := r.Image()
			if img == nil || img.Bounds().Dx() != 4 {
				t.Fatalf("expected b's image, got %v", img)
			}
			if st := r.Status(); st.State != FetchIdle {
				t.Errorf("expected idle, got %+v", st)
			}
		})
	}
}

func TestResolver_StaleSuccessDoesNotMaskFailure(t *testing.T) {
	f := newGatedFetcher()
	r := NewResolver(f, nil)
	defer r.Close()

	a, b := "https://example.com/a.png", "https://example.com/b.png"
	r.Resolve(URLBackground(a))
	<-f.started
	r.Resolve(URLBackground(b))
	<-f.started

	f.gate(b) <- fetchResult{data: []byte("<html>not found</html>")}
	f.gate(a) <- fetchResult{data: encodePNG(t, 2, 2)}
	r.Wait()

	if r.Image() != nil {
		t.Errorf("a's image must not be shown for b")
	}
	if st := r.Status(); st.State != FetchFailed || st.URL != b {
		t.Errorf("expected failed(%s), got %+v", b, st)
	}
}

func TestResolver_ChangeAwayFromURLDiscardsFetch(t *testing.T) {
	f := newGatedFetcher()
	r := NewResolver(f, nil)
	defer r.Close()

	r.Resolve(URLBackground("https://example.com/a.png"))
	<-f.started
	r.Resolve(Blank())
	f.gate("https://example.com/a.png") <- fetchResult{data: encodePNG(t, 2, 2)}
	r.Wait()

	if r.Image() != nil || r.Status().State != FetchIdle {
		t.Errorf("stale fetch changed state: image=%v status=%+v", r.Image(), r.Status())
	}
}

func TestResolver_CancelsPreviousFetch(t *testing.T) {
	cancelled := make(chan string, 1)
	f := FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		<-ctx.Done()
		cancelled <- url
		return nil, ctx.Err()
	})
	r := NewResolver(f, nil)
	defer r.Close()

	r.Resolve(URLBackground("https://example.com/a.png"))
	r.Resolve(URLBackground("https://example.com/b.png"))
	if got := <-cancelled; got != "https://example.com/a.png" {
		t.Errorf("expected a's fetch to be cancelled, got %s", got)
	}
	if st := r.Status(); st.State != FetchFetching {
		t.Errorf("expected b to still be fetching, got %+v", st)
	}
}

func TestResolver_ReleasesFinishedFetchContext(t *testing.T) {
	var fetchCtx context.Context
	f := FetcherFunc(func(ctx context.Context, _ string) ([]byte, error) {
		fetchCtx = ctx
		return nil, errors.New("unreachable")
	})
	r := NewResolver(f, nil)
	defer r.Close()

	r.Resolve(URLBackground("https://example.com/a.png"))
	r.Wait()
	if r.Status().State != FetchFailed {
		t.Fatalf("expected failed, got %+v", r.Status())
	}
	if fetchCtx.Err() == nil {
		t.Errorf("finished fetch should release its context")
	}
}

func TestHTTPFetcher(t *testing.T) {
	pngData := encodePNG(t, 5, 5)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(pngData)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := &HTTPFetcher{Client: srv.Client()}
	data, err := f.Fetch(context.Background(), srv.URL+"/ok.png")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Equal(data, pngData) {
		t.Errorf("unexpected body")
	}
	if _, err := f.Fetch(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Errorf("expected an error for a 404")
	}

	r := NewResolver(f, nil)
	defer r.Close()
	var last FetchStatus
	var mu sync.Mutex
	r.OnStatus(func(s FetchStatus) {
		mu.Lock()
		last = s
		mu.Unlock()
	})
	r.Resolve(URLBackground(srv.URL + "/missing.png"))
	r.Wait()
	mu.Lock()
	defer mu.Unlock()
	if last.State != FetchFailed || last.URL != srv.URL+"/missing.png" {
		t.Errorf("expected failed status notification, got %+v", last)
	}
}

func TestDecodeImage(t *testing.T) {
	if _, err := DecodeImage(encodePNG(t, 1, 1)); err != nil {
		t.Errorf("png: %v", err)
	}
	if _, err := DecodeImage([]byte("plain text")); err == nil {
		t.Errorf("expected an error for text")
	}
}
