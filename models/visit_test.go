package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestVisitPayload_Normalize_DefaultsAbsentFields(t *testing.T) {
	p := VisitPayload{
		Page:     strPtr("/blog"),
		Language: strPtr("   "),
	}

	n := p.Normalize()

	assert.Equal(t, "/blog", n.Page)
	assert.Equal(t, Unknown, n.Language, "blank values are treated as absent")
	assert.Equal(t, Unknown, n.Browser)
	assert.Equal(t, Unknown, n.Referrer)
	assert.Equal(t, Unknown, n.Dimensions)
}

func TestNormalizedVisit_Event_FillsServerFields(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := VisitPayload{Browser: strPtr("Firefox")}.Normalize()

	e := n.Event("id-1", "", "", ts)

	assert.Equal(t, "id-1", e.ID)
	assert.Equal(t, "Firefox", e.Browser)
	assert.Equal(t, Unknown, e.Page)
	assert.Equal(t, Unknown, e.Country)
	assert.Equal(t, Unknown, e.VisitorID)
	assert.Equal(t, ts, e.Timestamp)
}
