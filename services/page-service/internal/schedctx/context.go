// Package schedctx holds the session-scoped scheduling context shared by the
// entry view and the booking and profile views that follow it.
//
// The entry view is the only writer. Writes go through the five setters on
// Context; there is no free-form write path.
package schedctx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/meetings"
)

type Field string

const (
	FieldMeetingID       Field = "meeting_id"
	FieldUserInfo        Field = "user_info"
	FieldDuration        Field = "duration_minutes"
	FieldTimezone        Field = "timezone"
	FieldDurationOptions Field = "duration_options"
)

// SocialProfile is carried for the profile view; the entry view never fills it.
type SocialProfile struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// UserInfo is the host profile projected from a meeting definition.
type UserInfo struct {
	Name             string          `json:"name"`
	Designation      string          `json:"designation"`
	OrganizationName string          `json:"organizationName"`
	UserImage        string          `json:"userImage"`
	SocialProfiles   []SocialProfile `json:"socialProfiles"`
	MeetingProvider  string          `json:"meetingProvider"`
	BannerImage      string          `json:"bannerImage"`
}

// State is a read-only snapshot of one session's context.
type State struct {
	MeetingID       string                    `json:"meetingId"`
	UserInfo        UserInfo                  `json:"userInfo"`
	DurationMinutes float64                   `json:"duration"`
	Timezone        string                    `json:"timezone"`
	DurationOptions []meetings.DurationOption `json:"meetingDurationCards"`
}

// Store persists context fields per session. Setting a field to the value it
// already holds must be harmless.
type Store interface {
	SetField(ctx context.Context, sessionID string, field Field, value []byte) error
	Fields(ctx context.Context, sessionID string) (map[Field][]byte, error)
}

var ErrNoSession = errors.New("schedctx: session id is required")

// Context is the write handle for one session.
type Context struct {
	store     Store
	sessionID string
}

func New(store Store, sessionID string) *Context {
	return &Context{store: store, sessionID: sessionID}
}

func (c *Context) SessionID() string { return c.sessionID }

func (c *Context) SetMeetingID(ctx context.Context, meetingID string) error {
	return c.set(ctx, FieldMeetingID, meetingID)
}

func (c *Context) SetUserInfo(ctx context.Context, info UserInfo) error {
	if info.SocialProfiles == nil {
		info.SocialProfiles = []SocialProfile{}
	}
	return c.set(ctx, FieldUserInfo, info)
}

func (c *Context) SetDuration(ctx context.Context, minutes float64) error {
	return c.set(ctx, FieldDuration, minutes)
}

func (c *Context) SetTimezone(ctx context.Context, tz string) error {
	return c.set(ctx, FieldTimezone, tz)
}

func (c *Context) SetDurationOptions(ctx context.Context, options []meetings.DurationOption) error {
	if options == nil {
		options = []meetings.DurationOption{}
	}
	return c.set(ctx, FieldDurationOptions, options)
}

func (c *Context) set(ctx context.Context, field Field, v any) error {
	if c.sessionID == "" {
		return ErrNoSession
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("schedctx: encode %s: %w", field, err)
	}
	if err := c.store.SetField(ctx, c.sessionID, field, raw); err != nil {
		return fmt.Errorf("schedctx: write %s: %w", field, err)
	}
	return nil
}

// Snapshot reads every field. Fields never written keep their zero value;
// the option list is always non-nil.
func (c *Context) Snapshot(ctx context.Context) (State, error) {
	if c.sessionID == "" {
		return State{}, ErrNoSession
	}
	fields, err := c.store.Fields(ctx, c.sessionID)
	if err != nil {
		return State{}, fmt.Errorf("schedctx: read: %w", err)
	}

	st := State{
		UserInfo:        UserInfo{SocialProfiles: []SocialProfile{}},
		DurationOptions: []meetings.DurationOption{},
	}
	targets := map[Field]any{
		FieldMeetingID:       &st.MeetingID,
		FieldUserInfo:        &st.UserInfo,
		FieldDuration:        &st.DurationMinutes,
		FieldTimezone:        &st.Timezone,
		FieldDurationOptions: &st.DurationOptions,
	}
	for field, target := range targets {
		raw, ok := fields[field]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			return State{}, fmt.Errorf("schedctx: decode %s: %w", field, err)
		}
	}
	return st, nil
}
