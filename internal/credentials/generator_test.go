package credentials

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestEmployeeIDFormat(t *testing.T) {
	gen := NewDeterministic(fixedClock, 1)

	id := gen.EmployeeID("EMP")
	parts := strings.Split(id, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "EMP", parts[0])
	assert.Len(t, parts[2], 4)

	// Same clock tick still yields distinct IDs via the random suffix.
	other := gen.EmployeeID("EMP")
	assert.NotEqual(t, id, other)
}

func TestEmployeeIDDeterministic(t *testing.T) {
	a := NewDeterministic(fixedClock, 42).EmployeeID("SEC")
	b := NewDeterministic(fixedClock, 42).EmployeeID("SEC")
	assert.Equal(t, a, b)
}

func TestTemporaryPasswordComposition(t *testing.T) {
	gen := NewDeterministic(fixedClock, 7)

	for i := 0; i < 200; i++ {
		pw := gen.TemporaryPassword(12)
		require.Len(t, pw, 12)
		assert.True(t, strings.ContainsAny(pw, upperChars), "missing uppercase: %s", pw)
		assert.True(t, strings.ContainsAny(pw, lowerChars), "missing lowercase: %s", pw)
		assert.True(t, strings.ContainsAny(pw, digitChars), "missing digit: %s", pw)
		assert.True(t, strings.ContainsAny(pw, symbolChars), "missing symbol: %s", pw)
	}
}

func TestTemporaryPasswordLengthFallback(t *testing.T) {
	gen := NewDeterministic(fixedClock, 7)

	assert.Len(t, gen.TemporaryPassword(0), DefaultPasswordLength)
	assert.Len(t, gen.TemporaryPassword(-5), DefaultPasswordLength)
	assert.Len(t, gen.TemporaryPassword(20), 20)
}

func TestUsername(t *testing.T) {
	gen := NewDeterministic(fixedClock, 3)

	name := gen.Username(" Jane ", "Doe")
	require.True(t, strings.HasPrefix(name, "jane.doe"), name)
	assert.Len(t, name, len("jane.doe")+3)
}
