package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	today := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	past := today.AddDate(0, 0, -1)
	sameDay := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	future := today.AddDate(0, 0, 3)

	assert.Equal(t, BillStatusOverdue, StatusFor(BillStatusPending, &past, today))
	assert.Equal(t, BillStatusPending, StatusFor(BillStatusOverdue, &future, today))
	assert.Equal(t, BillStatusPending, StatusFor(BillStatusPending, &sameDay, today))
	assert.Equal(t, BillStatusPaid, StatusFor(BillStatusPaid, &past, today))
	assert.Equal(t, BillStatusPending, StatusFor("", nil, today))
	assert.Equal(t, BillStatusOverdue, StatusFor(BillStatusOverdue, nil, today))
}

func TestDisplayName(t *testing.T) {
	a := AssociationCandidate{Name: " Asoc. Bloc 12 ", Address: "Str. Florilor 3"}
	assert.Equal(t, "Asoc. Bloc 12 Str. Florilor 3", a.DisplayName())
}
