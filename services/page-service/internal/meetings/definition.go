// Package meetings fetches a host's meeting definition from the scheduling
// backend and tracks the fetch as a loading/success/error resource.
package meetings

import "context"

// DurationOption is one selectable meeting length, in backend order.
type DurationOption struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	DurationSeconds int    `json:"duration"`
}

// Minutes converts the option's length the way the booking form expects it.
func (o DurationOption) Minutes() float64 {
	return float64(o.DurationSeconds) / 60
}

// Definition is the host profile plus the offerable durations for a slug.
type Definition struct {
	FullName        string           `json:"full_name"`
	Position        string           `json:"position"`
	Company         string           `json:"company"`
	ProfilePicture  string           `json:"profile_pic"`
	MeetingProvider string           `json:"meeting_provider"`
	BannerImage     string           `json:"banner_image"`
	DurationOptions []DurationOption `json:"durations"`
}

// Option looks an option up by id.
func (d Definition) Option(id string) (DurationOption, bool) {
	for _, o := range d.DurationOptions {
		if o.ID == id {
			return o, true
		}
	}
	return DurationOption{}, false
}

type Fetcher interface {
	Fetch(ctx context.Context, slug string) (Definition, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, slug string) (Definition, error)

func (f FetcherFunc) Fetch(ctx context.Context, slug string) (Definition, error) {
	return f(ctx, slug)
}
