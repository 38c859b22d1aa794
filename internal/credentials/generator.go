package credentials

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	upperChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerChars  = "abcdefghijkmnpqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*"

	// DefaultPasswordLength applies when callers pass a non-positive length.
	DefaultPasswordLength = 12
)

// Generator produces employee IDs, usernames and temporary passwords.
// Clock and randomness are injectable so tests can be deterministic.
// The zero value is not usable; construct with NewGenerator or NewDeterministic.
type Generator struct {
	mu  sync.Mutex
	now func() time.Time
	rng *rand.Rand
}

// NewGenerator returns a time-seeded generator.
func NewGenerator() *Generator {
	return &Generator{
		now: time.Now,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewDeterministic returns a generator with a fixed clock and seed.
func NewDeterministic(now func() time.Time, seed int64) *Generator {
	return &Generator{
		now: now,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// EmployeeID combines a prefix, a base-36 timestamp and a random 4-digit
// suffix. Uniqueness is practical, not guaranteed; the store's unique index
// on employee_id remains the authoritative collision check.
func (g *Generator) EmployeeID(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := strings.ToUpper(strconv.FormatInt(g.now().UnixMilli(), 36))
	suffix := g.rng.Intn(10000)
	return fmt.Sprintf("%s-%s-%04d", prefix, ts, suffix)
}

// TemporaryPassword returns a password of the given length containing at
// least one uppercase letter, one lowercase letter, one digit and one
// symbol. The remainder is drawn from the combined alphabet and the result
// is shuffled, so the composition guarantee holds by construction.
func (g *Generator) TemporaryPassword(length int) string {
	if length < 4 {
		length = DefaultPasswordLength
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	all := upperChars + lowerChars + digitChars + symbolChars
	chars := make([]byte, 0, length)
	chars = append(chars,
		upperChars[g.rng.Intn(len(upperChars))],
		lowerChars[g.rng.Intn(len(lowerChars))],
		digitChars[g.rng.Intn(len(digitChars))],
		symbolChars[g.rng.Intn(len(symbolChars))],
	)
	for len(chars) < length {
		chars = append(chars, all[g.rng.Intn(len(all))])
	}
	g.rng.Shuffle(len(chars), func(i, j int) {
		chars[i], chars[j] = chars[j], chars[i]
	})
	return string(chars)
}

// Username builds "first.last" plus a 3-digit suffix. Collisions are
// possible; callers using usernames as login handles must check uniqueness
// themselves.
func (g *Generator) Username(first, last string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	first = strings.ToLower(strings.TrimSpace(first))
	last = strings.ToLower(strings.TrimSpace(last))
	return fmt.Sprintf("%s.%s%03d", first, last, g.rng.Intn(1000))
}
