// Package view decides which presentation of the entry view is active and
// applies the shared context writes that go with each decision.
package view

import (
	"github.com/md-rashed-zaman/apptpage/services/page-service/internal/meetings"
)

type State string

const (
	StateInitializing State = "initializing"
	StateSelecting    State = "selecting"
	StateFastPath     State = "fast_path"
	StateBooking      State = "booking"
	StateFailed       State = "failed"
)

// DefaultFastPathCallers are the embedded integrations that skip manual
// duration selection.
var DefaultFastPathCallers = []string{"mbw_mia", "mbw_avi"}

// FastPathCallers is an allow-list of caller types.
type FastPathCallers map[string]struct{}

func NewFastPathCallers(ids ...string) FastPathCallers {
	set := make(FastPathCallers, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func (c FastPathCallers) Contains(callerType string) bool {
	_, ok := c[callerType]
	return ok
}

// Decision is the outcome of one evaluation. AutoSelect is only set for
// StateFastPath.
type Decision struct {
	State      State
	AutoSelect meetings.DurationOption
}

// Decide derives the view state from the selected duration type in the URL,
// the caller type the mount has seen, and the fetch result. It has no side
// effects and gives the same answer for the same inputs.
//
// The fast path is guarded by the absence of selectedType. Once it rewrites
// the URL to carry a type it cannot fire again for that URL.
func Decide(selectedType, callerType string, res meetings.Result, callers FastPathCallers) Decision {
	switch res.Status {
	case meetings.StatusError:
		return Decision{State: StateFailed}
	case meetings.StatusLoading:
		return Decision{State: StateInitializing}
	}

	options := res.Definition.DurationOptions
	if selectedType == "" && callers.Contains(callerType) && len(options) > 0 {
		return Decision{State: StateFastPath, AutoSelect: options[0]}
	}
	if selectedType != "" && callerType != "" {
		return Decision{State: StateBooking}
	}
	return Decision{State: StateSelecting}
}
