package art

import (
	"context"
	"image"
	"log"
	"sync"
)

// FetchState is the progress of turning a URL background into pixels.
type FetchState int

const (
	FetchIdle FetchState = iota
	FetchFetching
	FetchFailed
)

func (s FetchState) String() string {
	switch s {
	case FetchFetching:
		return "fetching"
	case FetchFailed:
		return "failed"
	}
	return "idle"
}

// FetchStatus is the resolution state. URL is set when the state is
// FetchFailed and names the background that could not be fetched.
type FetchStatus struct {
	State FetchState
	URL   string
}

// Resolver keeps decoded background pixels in step with a background value.
// Only the fetch for the latest URL background may update the state;
// anything started for an earlier background is cancelled and its result
// dropped.
type Resolver struct {
	fetcher Fetcher
	decode  Decoder

	mu         sync.Mutex
	background Background
	img        image.Image
	status     FetchStatus
	cancel     context.CancelFunc
	listeners  []func(FetchStatus)

	// notifyMu keeps listener calls in transition order.
	notifyMu sync.Mutex
	wg       sync.WaitGroup
}

// NewResolver returns an idle resolver for a blank background.
func NewResolver(fetcher Fetcher, decode Decoder) *Resolver {
	if fetcher == nil {
		fetcher = &HTTPFetcher{}
	}
	if decode == nil {
		decode = DecodeImage
	}
	return &Resolver{fetcher: fetcher, decode: decode}
}

// OnStatus registers fn to be called after every state transition. fn runs
// on the goroutine that caused the transition and must not call Resolve.
func (r *Resolver) OnStatus(fn func(FetchStatus)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Image returns the decoded background, or nil.
func (r *Resolver) Image() image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.img
}

func (r *Resolver) Status() FetchStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Resolve switches the resolver to bg. Blank and embedded backgrounds are
// resolved before Resolve returns; a URL background starts a fetch in the
// background.
func (r *Resolver) Resolve(bg Background) {
	r.mu.Lock()
	r.background = bg
	r.img = nil
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}

	switch bg.kind {
	case backgroundURL:
		r.status = FetchStatus{State: FetchFetching}
		ctx, cancel := context.WithCancel(context.Background())
		r.cancel = cancel
		r.wg.Add(1)
		go r.fetch(ctx, bg)
	case backgroundImageData:
		img, err := r.decode(bg.data)
		if err != nil {
			log.Printf("background: embedded image: %v", err)
			img = nil
		}
		r.img = img
		r.status = FetchStatus{State: FetchIdle}
	default:
		r.status = FetchStatus{State: FetchIdle}
	}
	r.publish()
}

func (r *Resolver) fetch(ctx context.Context, bg Background) {
	defer r.wg.Done()

	img, err := r.load(ctx, bg.url)

	r.mu.Lock()
	if ctx.Err() != nil || !r.background.Equal(bg) {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.cancel = nil
	if err != nil {
		log.Printf("background: %s: %v", bg.url, err)
		r.status = FetchStatus{State: FetchFailed, URL: bg.url}
	} else {
		r.img = img
		r.status = FetchStatus{State: FetchIdle}
	}
	r.publish()
}

func (r *Resolver) load(ctx context.Context, url string) (image.Image, error) {
	data, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return r.decode(data)
}

// publish must be called with r.mu held; it releases it.
func (r *Resolver) publish() {
	status := r.status
	listeners := r.listeners
	r.notifyMu.Lock()
	r.mu.Unlock()
	defer r.notifyMu.Unlock()
	for _, fn := range listeners {
		fn(status)
	}
}

// Wait blocks until no fetch is running.
func (r *Resolver) Wait() {
	r.wg.Wait()
}

// Close cancels any running fetch and waits for it to finish.
func (r *Resolver) Close() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()
	r.wg.Wait()
}
