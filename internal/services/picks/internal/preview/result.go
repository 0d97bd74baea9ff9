// Package preview turns links into LinkPreview metadata by calling third
// party metadata APIs. Resolvers never fail: every call ends in a Result that
// is either resolved, confidently absent, or unavailable.
package preview

import (
	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
)

type Status int

const (
	// StatusResolved carries a preview, possibly a synthesized fallback.
	StatusResolved Status = iota
	// StatusNotFound means the provider answered and has nothing for the
	// link. Callers must not create a preview.
	StatusNotFound
	// StatusUnavailable means the provider could not be reached or answered
	// garbage. Err holds the diagnostic.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusNotFound:
		return "not_found"
	case StatusUnavailable:
		return "unavailable"
	}
	return "unknown"
}

type Result struct {
	Status  Status
	Preview model.LinkPreview
	// Fallback marks a resolved preview synthesized without provider data.
	Fallback bool
	Err      error
}

func Resolved(p model.LinkPreview) Result {
	p.State = model.PreviewResolved
	p.Loading = false
	return Result{Status: StatusResolved, Preview: p}
}

// Degraded is a resolved fallback preview that also keeps the failure that
// forced it.
func Degraded(p model.LinkPreview, err error) Result {
	r := Resolved(p)
	r.Fallback = true
	r.Err = err
	return r
}

func NotFound() Result {
	return Result{Status: StatusNotFound}
}

func Unavailable(err error) Result {
	return Result{Status: StatusUnavailable, Err: err}
}

func (r Result) OK() bool {
	return r.Status == StatusResolved
}
