package view

import (
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/meetings"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/mount"
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/schedctx"
)

// Document is the JSON view rendered for one observation. Exactly one of
// Selection and Booking is set.
type Document struct {
	State     State          `json:"state"`
	Slug      string         `json:"slug"`
	Selection *SelectionView `json:"selection,omitempty"`
	Booking   *BookingView   `json:"booking,omitempty"`
}

// SelectionView feeds the profile pane and the duration grid. While Loading
// both panes render placeholders.
type SelectionView struct {
	Loading              bool              `json:"loading"`
	SelectedDurationType string            `json:"selectedDurationType,omitempty"`
	Profile              schedctx.UserInfo `json:"profile"`
	DurationCards        []DurationCard    `json:"durationCards"`
}

type DurationCard struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Minutes float64 `json:"minutes"`
}

// BookingView is handed to the booking form.
type BookingView struct {
	Slug                 string `json:"slug"`
	SelectedDurationType string `json:"selectedDurationType"`
	BannerImage          string `json:"bannerImage"`
	VisitorEmail         string `json:"visitorEmail,omitempty"`
	VisitorFullName      string `json:"visitorFullName,omitempty"`
	TaskID               string `json:"taskId,omitempty"`
	CallerType           string `json:"callerType,omitempty"`
}

// ProjectUserInfo maps a meeting definition onto the host profile held in
// the shared context. Social profiles are left empty.
func ProjectUserInfo(def meetings.Definition) schedctx.UserInfo {
	return schedctx.UserInfo{
		Name:             def.FullName,
		Designation:      def.Position,
		OrganizationName: def.Company,
		UserImage:        def.ProfilePicture,
		SocialProfiles:   []schedctx.SocialProfile{},
		MeetingProvider:  def.MeetingProvider,
		BannerImage:      def.BannerImage,
	}
}

func render(state State, slug, selectedType string, l mount.Local, snap schedctx.State) *Document {
	doc := &Document{State: state, Slug: slug}
	switch state {
	case StateBooking:
		doc.Booking = &BookingView{
			Slug:                 slug,
			SelectedDurationType: selectedType,
			BannerImage:          snap.UserInfo.BannerImage,
			VisitorEmail:         l.Visitor.Email,
			VisitorFullName:      l.Visitor.FullName,
			TaskID:               l.Integration.TaskID,
			CallerType:           l.Integration.CallerType,
		}
	case StateInitializing:
		doc.Selection = &SelectionView{
			Loading:       true,
			Profile:       schedctx.UserInfo{SocialProfiles: []schedctx.SocialProfile{}},
			DurationCards: []DurationCard{},
		}
	default:
		cards := make([]DurationCard, 0, len(snap.DurationOptions))
		for _, o := range snap.DurationOptions {
			cards = append(cards, DurationCard{ID: o.ID, Label: o.Label, Minutes: o.Minutes()})
		}
		doc.Selection = &SelectionView{
			SelectedDurationType: selectedType,
			Profile:              snap.UserInfo,
			DurationCards:        cards,
		}
	}
	return doc
}
