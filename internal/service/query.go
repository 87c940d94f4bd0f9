package service

import (
	"time"

	"github.com/goinginblind/lso-gateway/internal/apierror"
)

const (
	defaultLimit = 10

	// TimeLayout is the only date-time format accepted in list filters.
	TimeLayout = "2006-01-02T15:04:05.999999Z"
)

// Page selects a window of a filtered listing.
type Page struct {
	Offset int
	Limit  int
}

func (p Page) normalize() (Page, error) {
	if p.Offset < 0 {
		return p, apierror.BadRequest(apierror.InvalidQuery, "Offset cannot be negative").WithPath("offset")
	}
	if p.Limit < 0 {
		return p, apierror.BadRequest(apierror.InvalidQuery, "Limit cannot be negative").WithPath("limit")
	}
	if p.Limit == 0 {
		p.Limit = defaultLimit
	}
	return p, nil
}

func errNoMatch() error {
	return apierror.NotFound("No matching result found for the given criteria.").WithReason("Record not found")
}

// paginate cuts the page out of rows. An empty page is a 404.
func paginate[T any](rows []T, p Page) ([]T, error) {
	p, err := p.normalize()
	if err != nil {
		return nil, err
	}
	if p.Offset >= len(rows) {
		return nil, errNoMatch()
	}
	end := p.Offset + p.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[p.Offset:end], nil
}

// TimeRange is an inclusive date filter. Nil bounds are open.
type TimeRange struct {
	Gt *time.Time
	Lt *time.Time
}

func (r TimeRange) set() bool {
	return r.Gt != nil || r.Lt != nil
}

// Contains reports whether t falls in the range. A missing t only matches
// an open range.
func (r TimeRange) Contains(t *time.Time) bool {
	if !r.set() {
		return true
	}
	if t == nil {
		return false
	}
	if r.Gt != nil && t.Before(*r.Gt) {
		return false
	}
	if r.Lt != nil && t.After(*r.Lt) {
		return false
	}
	return true
}

// ParseTime parses a list filter value. Empty input yields nil.
func ParseTime(value, path string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return nil, apierror.Unprocessable(apierror.InvalidFormat, "Invalid date-time format", path).
			WithReason("Date-time should be in the format 'YYYY-MM-DDTHH:MM:SS.sssZ'")
	}
	return &t, nil
}

// ParseRange parses the .gt and .lt values of one date filter.
func ParseRange(gt, lt, path string) (TimeRange, error) {
	from, err := ParseTime(gt, path+".gt")
	if err != nil {
		return TimeRange{}, err
	}
	to, err := ParseTime(lt, path+".lt")
	if err != nil {
		return TimeRange{}, err
	}
	return TimeRange{Gt: from, Lt: to}, nil
}

func matches(want, got string) bool {
	return want == "" || want == got
}
