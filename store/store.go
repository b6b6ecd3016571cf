package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sak85/API-Automation-POC/report"
)

// KeyPrefix is prepended to every key written to a key-value store.
const KeyPrefix = "harness"

// ErrUnsupportedScheme is returned by Open for a DSN whose scheme is not recognized.
var ErrUnsupportedScheme = errors.New("unsupported result store scheme")

// Publisher records run summaries.
type Publisher interface {
	// DSN describes where summaries are written.
	DSN() string
	// Publish records one summary.
	Publish(ctx context.Context, summary report.Summary) error
	Close() error
}

// Open creates a Publisher for each DSN. Several DSNs produce a Multi. An empty list produces
// nil with no error.
func Open(ctx context.Context, dsns []string) (Publisher, error) {
	var publishers []Publisher
	for _, dsn := range dsns {
		p, err := openOne(ctx, dsn)
		if err != nil {
			for _, opened := range publishers {
				_ = opened.Close()
			}
			return nil, err
		}
		publishers = append(publishers, p)
	}
	switch len(publishers) {
	case 0:
		return nil, nil
	case 1:
		return publishers[0], nil
	default:
		return NewMulti(publishers...), nil
	}
}

func openOne(ctx context.Context, dsn string) (Publisher, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid result store %q: %w", dsn, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		return NewFile(pathOf(u)), nil
	case "sqlite":
		return OpenSQLite(ctx, pathOf(u))
	case "redis", "rediss":
		return OpenRedis(dsn)
	case "consul":
		return OpenConsul(u)
	case "dynamodb":
		return OpenDynamoDB(u)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, dsn)
	}
}

// pathOf returns the file path of a DSN. "file://reports/runs" and "file:///tmp/runs" are a
// relative and an absolute path respectively.
func pathOf(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Host + u.Path
}

func runKey(runID string) string {
	return KeyPrefix + ":run:" + runID
}

// Multi publishes to several stores concurrently.
type Multi struct {
	publishers []Publisher
}

func NewMulti(publishers ...Publisher) *Multi {
	return &Multi{publishers: publishers}
}

func (m *Multi) DSN() string {
	dsns := make([]string, 0, len(m.publishers))
	for _, p := range m.publishers {
		dsns = append(dsns, p.DSN())
	}
	return strings.Join(dsns, ",")
}

// Publish writes to every store and returns the first error. A failing store does not stop the
// others.
func (m *Multi) Publish(ctx context.Context, summary report.Summary) error {
	var g errgroup.Group
	for _, p := range m.publishers {
		p := p
		g.Go(func() error {
			if err := p.Publish(ctx, summary); err != nil {
				return fmt.Errorf("publishing to %s: %w", p.DSN(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (m *Multi) Close() error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
