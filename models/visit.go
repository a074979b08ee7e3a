// api/models/visit.go
package models

import (
	"strings"
	"time"
)

// Unknown is stored in place of any absent or unresolvable field.
const Unknown = "Unknown"

// VisitEvent represents a single recorded page visit.
type VisitEvent struct {
	ID         string    `json:"id"`
	Page       string    `json:"page"`
	Country    string    `json:"country"`
	Language   string    `json:"language"`
	Browser    string    `json:"browser"`
	Referrer   string    `json:"referrer"`
	Dimensions string    `json:"dimensions"`
	VisitorID  string    `json:"visitorId"`
	Timestamp  time.Time `json:"timestamp"`
}

// VisitPayload is the body a client page sends when reporting a visit.
// Every field is optional.
type VisitPayload struct {
	Page       *string `json:"page"`
	Browser    *string `json:"browser"`
	Language   *string `json:"language"`
	Referrer   *string `json:"referrer"`
	Dimensions *string `json:"dimensions"`
}

// NormalizedVisit holds the client-reported fields with defaults applied.
type NormalizedVisit struct {
	Page       string
	Browser    string
	Language   string
	Referrer   string
	Dimensions string
}

// Normalize replaces every absent or blank field with Unknown.
func (p VisitPayload) Normalize() NormalizedVisit {
	return NormalizedVisit{
		Page:       OrUnknown(p.Page),
		Browser:    OrUnknown(p.Browser),
		Language:   OrUnknown(p.Language),
		Referrer:   OrUnknown(p.Referrer),
		Dimensions: OrUnknown(p.Dimensions),
	}
}

// OrUnknown dereferences s, falling back to Unknown for nil or blank values.
func OrUnknown(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return Unknown
	}
	return *s
}

// Event builds the persisted record from the normalized payload and the
// server-derived fields.
func (n NormalizedVisit) Event(id, country, visitorID string, ts time.Time) VisitEvent {
	if strings.TrimSpace(country) == "" {
		country = Unknown
	}
	if strings.TrimSpace(visitorID) == "" {
		visitorID = Unknown
	}
	return VisitEvent{
		ID:         id,
		Page:       n.Page,
		Country:    country,
		Language:   n.Language,
		Browser:    n.Browser,
		Referrer:   n.Referrer,
		Dimensions: n.Dimensions,
		VisitorID:  visitorID,
		Timestamp:  ts,
	}
}

type CountryCount struct {
	Country string `json:"country"`
	Amount  int64  `json:"amount"`
}

// DailyVisits is one bucket of the weekly time series.
type DailyVisits struct {
	Date   string    `json:"date"` // DD-Mon-YYYY
	Day    time.Time `json:"day"`
	Amount int64     `json:"amount"`
}

// StatsReport is the composite statistics response.
type StatsReport struct {
	TotalVisits         int64          `json:"totalVisits"`
	TotalUniqueVisits   int64          `json:"totalUniqueVisits"`
	TotalVisitsThisWeek int64          `json:"totalVisitsThisWeek"`
	VisitsThisWeek      []DailyVisits  `json:"visitsThisWeek"`
	TopCountries        []CountryCount `json:"topCountries"`
}
