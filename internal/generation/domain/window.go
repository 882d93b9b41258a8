package generation

import (
	"time"

	"lcatricity/internal/apperr"
)

// DateLayout is the accepted calendar date format.
const DateLayout = "2006-01-02"

// Window is an inclusive time range [Start, End].
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts lies within the window, bounds included.
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && !ts.After(w.End)
}

// ParseWindow parses YYYY-MM-DD dates in UTC. An empty end defaults to start plus one day.
func ParseWindow(dateStart, dateEnd string) (Window, error) {
	if dateStart == "" {
		return Window{}, apperr.Validation("date_start is required")
	}
	start, err := time.Parse(DateLayout, dateStart)
	if err != nil {
		return Window{}, apperr.Validation("could not handle date_start %q, expected the form yyyy-mm-dd", dateStart)
	}
	end := start.AddDate(0, 0, 1)
	if dateEnd != "" {
		end, err = time.Parse(DateLayout, dateEnd)
		if err != nil {
			return Window{}, apperr.Validation("could not handle date_end %q, expected the form yyyy-mm-dd", dateEnd)
		}
	}
	if end.Before(start) {
		return Window{}, apperr.Validation("date_end %s is before date_start %s", dateEnd, dateStart)
	}
	return Window{Start: start.UTC(), End: end.UTC()}, nil
}

// ParseOptionalWindow returns nil when no start date is given.
func ParseOptionalWindow(dateStart, dateEnd string) (*Window, error) {
	if dateStart == "" {
		if dateEnd != "" {
			return nil, apperr.Validation("date_end requires date_start")
		}
		return nil, nil
	}
	window, err := ParseWindow(dateStart, dateEnd)
	if err != nil {
		return nil, err
	}
	return &window, nil
}
