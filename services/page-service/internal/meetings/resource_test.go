package meetings

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestResourceLoadingThenSuccess(t *testing.T) {
	release := make(chan struct{})
	f := FetcherFunc(func(ctx context.Context, slug string) (Definition, error) {
		<-release
		return Definition{FullName: "Jane Host"}, nil
	})

	r := Start(context.Background(), f, "jane")
	if !r.Result().Loading() {
		t.Fatalf("expected loading before the fetch settles")
	}

	close(release)
	res := r.Wait(context.Background())
	if res.Status != StatusSuccess || res.Definition.FullName != "Jane Host" {
		t.Fatalf("unexpected result: %#v", res)
	}
}

func TestResourceError(t *testing.T) {
	boom := errors.New("boom")
	r := Start(context.Background(), FetcherFunc(func(context.Context, string) (Definition, error) {
		return Definition{}, boom
	}), "jane")

	res := r.Wait(context.Background())
	if res.Status != StatusError || !errors.Is(res.Err, boom) {
		t.Fatalf("unexpected result: %#v", res)
	}
}

func TestResourceCancelSuppressesResult(t *testing.T) {
	started := make(chan struct{})
	r := Start(context.Background(), FetcherFunc(func(ctx context.Context, _ string) (Definition, error) {
		close(started)
		<-ctx.Done()
		return Definition{FullName: "late"}, nil
	}), "jane")

	<-started
	r.Cancel()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatalf("expected Done to close after cancel")
	}
	if !r.Result().Loading() {
		t.Fatalf("expected cancelled fetch to leave no result, got %#v", r.Result())
	}
}

func TestResourceWaitHonoursContext(t *testing.T) {
	r := Start(context.Background(), FetcherFunc(func(ctx context.Context, _ string) (Definition, error) {
		<-ctx.Done()
		return Definition{}, ctx.Err()
	}), "jane")
	defer r.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if res := r.Wait(ctx); !res.Loading() {
		t.Fatalf("expected loading after wait timeout, got %#v", res)
	}
}
