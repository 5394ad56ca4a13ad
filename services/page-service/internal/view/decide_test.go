package view

import (
	"errors"
	"testing"

	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/meetings"
)

func success(options ...meetings.DurationOption) meetings.Result {
	return meetings.Result{
		Status:     meetings.StatusSuccess,
		Definition: meetings.Definition{FullName: "Jane Host", DurationOptions: options},
	}
}

func TestDecide(t *testing.T) {
	callers := NewFastPathCallers(DefaultFastPathCallers...)
	d15 := meetings.DurationOption{ID: "d-15", Label: "Quick chat", DurationSeconds: 900}
	d30 := meetings.DurationOption{ID: "d-30", Label: "Intro", DurationSeconds: 1800}

	cases := []struct {
		name         string
		selectedType string
		callerType   string
		res          meetings.Result
		want         State
	}{
		{"loading", "", "", meetings.Result{}, StateInitializing},
		{"loading with type and caller", "d-15", "mbw_mia", meetings.Result{}, StateInitializing},
		{"error", "", "", meetings.Result{Status: meetings.StatusError, Err: errors.New("boom")}, StateFailed},
		{"error wins over booking inputs", "d-15", "mbw_mia", meetings.Result{Status: meetings.StatusError}, StateFailed},
		{"manual caller without type", "", "crm", success(d15, d30), StateSelecting},
		{"no caller without type", "", "", success(d15, d30), StateSelecting},
		{"type without caller", "d-15", "", success(d15, d30), StateSelecting},
		{"type with manual caller", "d-30", "crm", success(d15, d30), StateBooking},
		{"fast path caller without type", "", "mbw_avi", success(d15, d30), StateFastPath},
		{"fast path caller with type", "d-30", "mbw_mia", success(d15, d30), StateBooking},
		{"fast path caller with no options", "", "mbw_mia", success(), StateSelecting},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(tc.selectedType, tc.callerType, tc.res, callers)
			if got.State != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got.State)
			}
		})
	}
}

func TestDecideFastPathPicksFirstOption(t *testing.T) {
	callers := NewFastPathCallers(DefaultFastPathCallers...)
	res := success(
		meetings.DurationOption{ID: "d-60", DurationSeconds: 3600},
		meetings.DurationOption{ID: "d-15", DurationSeconds: 900},
	)
	for i := 0; i < 3; i++ {
		got := Decide("", "mbw_mia", res, callers)
		if got.State != StateFastPath || got.AutoSelect.ID != "d-60" {
			t.Fatalf("expected first option in backend order, got %#v", got)
		}
	}
}

func TestFastPathCallersIgnoresBlank(t *testing.T) {
	callers := NewFastPathCallers("", "mbw_mia")
	if callers.Contains("") {
		t.Fatalf("absent caller type must never take the fast path")
	}
	if !callers.Contains("mbw_mia") || callers.Contains("MBW_MIA") {
		t.Fatalf("expected exact, case sensitive match")
	}
}

func TestProjectUserInfo(t *testing.T) {
	info := ProjectUserInfo(meetings.Definition{
		FullName:        "Jane Host",
		Position:        "Engineer",
		Company:         "Acme",
		ProfilePicture:  "/files/jane.png",
		MeetingProvider: "Google Meet",
		BannerImage:     "/files/banner.png",
	})
	if info.Name != "Jane Host" || info.Designation != "Engineer" || info.OrganizationName != "Acme" {
		t.Fatalf("unexpected identity fields: %#v", info)
	}
	if info.UserImage != "/files/jane.png" || info.MeetingProvider != "Google Meet" || info.BannerImage != "/files/banner.png" {
		t.Fatalf("unexpected media fields: %#v", info)
	}
	if info.SocialProfiles == nil || len(info.SocialProfiles) != 0 {
		t.Fatalf("expected empty social profiles, got %#v", info.SocialProfiles)
	}
}
