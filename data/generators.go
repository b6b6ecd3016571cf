package data

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

const (
	randomStringChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// TimestampFormat is the ISO 8601 form used for generated timestamps.
	TimestampFormat = "2006-01-02T15:04:05.000Z"
	// DateFormat is the form used for generated dates.
	DateFormat = "2006-01-02"

	DefaultStringLength = 10
)

// Generator produces random test data. The zero value is not usable; call NewGenerator.
//
// A Generator is safe for concurrent use.
type Generator struct {
	random *rand.Rand
	now    func() time.Time
	newID  func() string
	lock   sync.Mutex
}

// NewGenerator creates a Generator seeded from the current time.
func NewGenerator() *Generator {
	return NewSeededGenerator(time.Now().UnixNano(), time.Now)
}

// NewSeededGenerator creates a Generator with a fixed seed and clock, for repeatable output.
func NewSeededGenerator(seed int64, now func() time.Time) *Generator {
	return &Generator{
		random: rand.New(rand.NewSource(seed)), //nolint:gosec // test data only
		now:    now,
		newID:  func() string { return uuid.New().String() },
	}
}

// RandomString returns a string of the given length drawn from letters and digits. A length of
// zero or less uses DefaultStringLength.
func (g *Generator) RandomString(length int) string {
	if length <= 0 {
		length = DefaultStringLength
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(randomStringChars[g.random.Intn(len(randomStringChars))])
	}
	return b.String()
}

// RandomEmail returns an address of the form test.<random>@example.com.
func (g *Generator) RandomEmail() string {
	return fmt.Sprintf("test.%s@example.com", g.RandomString(8))
}

// RandomNumber returns an integer in the inclusive range [lo, hi]. The bounds may be given in
// either order.
func (g *Generator) RandomNumber(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	return lo + g.random.Intn(hi-lo+1)
}

// UUID returns a random version 4 UUID.
func (g *Generator) UUID() string {
	return g.newID()
}

// Timestamp returns the current time in UTC as an ISO 8601 string with milliseconds.
func (g *Generator) Timestamp() string {
	return g.now().UTC().Format(TimestampFormat)
}

// Date returns the calendar date the given number of days from now, which may be negative.
func (g *Generator) Date(daysFromNow int) string {
	return g.now().AddDate(0, 0, daysFromNow).Format(DateFormat)
}

// UserData builds a user payload with name, email, username, phone and website.
func (g *Generator) UserData() ldvalue.Value {
	return ldvalue.ObjectBuild().
		SetString("name", "Test User "+g.RandomString(5)).
		SetString("email", g.RandomEmail()).
		SetString("username", "testuser_"+g.RandomString(6)).
		SetString("phone", fmt.Sprintf("+1-%d-%d-%d",
			g.RandomNumber(100, 999), g.RandomNumber(100, 999), g.RandomNumber(1000, 9999))).
		SetString("website", fmt.Sprintf("https://%s.example.com", g.RandomString(8))).
		Build()
}

// PostData builds a post payload with title, body and userId.
func (g *Generator) PostData() ldvalue.Value {
	return ldvalue.ObjectBuild().
		SetString("title", "Test Post "+g.RandomString(8)).
		SetString("body", "This is a test post content generated at "+g.Timestamp()).
		SetInt("userId", g.RandomNumber(1, 10)).
		Build()
}

// CommentData builds a comment payload with name, email, body and postId.
func (g *Generator) CommentData() ldvalue.Value {
	return ldvalue.ObjectBuild().
		SetString("name", "Test Comment "+g.RandomString(6)).
		SetString("email", g.RandomEmail()).
		SetString("body", "This is a test comment generated at "+g.Timestamp()).
		SetInt("postId", g.RandomNumber(1, 100)).
		Build()
}

// Generate produces a value by name, as used in fixture placeholders such as "<$uuid>". The
// second return value is false if the name is not recognized.
func (g *Generator) Generate(name string) (ldvalue.Value, bool) {
	switch name {
	case "uuid":
		return ldvalue.String(g.UUID()), true
	case "string":
		return ldvalue.String(g.RandomString(DefaultStringLength)), true
	case "email":
		return ldvalue.String(g.RandomEmail()), true
	case "number":
		return ldvalue.Int(g.RandomNumber(1, 1000)), true
	case "timestamp":
		return ldvalue.String(g.Timestamp()), true
	case "today":
		return ldvalue.String(g.Date(0)), true
	case "tomorrow":
		return ldvalue.String(g.Date(1)), true
	case "yesterday":
		return ldvalue.String(g.Date(-1)), true
	case "user":
		return g.UserData(), true
	case "post":
		return g.PostData(), true
	case "comment":
		return g.CommentData(), true
	default:
		return ldvalue.Null(), false
	}
}
