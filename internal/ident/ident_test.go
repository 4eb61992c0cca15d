package ident

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHashIsDeterministic(t *testing.T) {
	a := Hash("Maths", "Ex 4", "A", "2024-09-10")
	b := Hash("Maths", "Ex 4", "A", "2024-09-10")
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a)
	assert.LessOrEqual(t, len(a), 13)
}

func TestHashIsOrderSensitive(t *testing.T) {
	assert.NotEqual(t, Hash("a", "b"), Hash("b", "a"))
}

func TestHashSeparatesParts(t *testing.T) {
	// Without a separator these two tuples would be identical.
	assert.NotEqual(t, Hash("ab", "c"), Hash("a", "bc"))
}

func TestHashDiffersPerAccount(t *testing.T) {
	a := Hash("Maths", "Ex 4", "account-a", "2024-09-10")
	b := Hash("Maths", "Ex 4", "account-b", "2024-09-10")
	assert.NotEqual(t, a, b)
}

func TestKnownVector(t *testing.T) {
	// Pin the output so an accidental algorithm change shows up in review.
	assert.Equal(t, "33niihzj4ux45", Hash(""))
}

func TestDayIgnoresTimeOfDay(t *testing.T) {
	morning := time.Date(2024, 9, 10, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 9, 10, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, Day(morning), Day(evening))
	assert.Equal(t, "2024-09-10", Day(morning))
}

func TestInstantKeepsTimeOfDay(t *testing.T) {
	morning := time.Date(2024, 9, 10, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 9, 10, 22, 30, 0, 0, time.UTC)
	assert.NotEqual(t, Instant(morning), Instant(evening))
}

func TestFloat(t *testing.T) {
	assert.Equal(t, "12.5", Float(12.5))
	assert.Equal(t, "20", Float(20))
}
