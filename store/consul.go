package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	consul "github.com/hashicorp/consul/api"

	"github.com/sak85/API-Automation-POC/report"
)

// consul is limited to 64 operations per transaction
const consulMaxTxnOps = 64

type consulKV interface {
	Txn(txn consul.KVTxnOps, q *consul.QueryOptions) (bool, *consul.KVTxnResponse, *consul.QueryMeta, error)
}

// Consul writes each summary under "<prefix>/runs/<runId>/", one key per property plus the full
// JSON document, and updates "<prefix>/latest".
type Consul struct {
	kv      consulKV
	address string
	prefix  string
}

// OpenConsul connects using a URL such as "consul://localhost:8500/harness". The path, if any,
// is the key prefix; the default is "harness".
func OpenConsul(u *url.URL) (*Consul, error) {
	config := consul.DefaultConfig()
	if u.Host != "" {
		config.Address = u.Host
	}
	if token := u.Query().Get("token"); token != "" {
		config.Token = token
	}
	client, err := consul.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("could not create Consul client: %w", err)
	}
	return &Consul{kv: client.KV(), address: config.Address, prefix: consulPrefix(u.Path)}, nil
}

func consulPrefix(path string) string {
	if p := strings.Trim(path, "/"); p != "" {
		return p
	}
	return KeyPrefix
}

func (c *Consul) DSN() string { return "consul://" + c.address + "/" + c.prefix }

func (c *Consul) Publish(ctx context.Context, summary report.Summary) error {
	base := c.prefix + "/runs/" + summary.RunID + "/"
	values := map[string]string{
		"mode":    summary.Mode,
		"passed":  fmt.Sprint(summary.Passed),
		"failed":  fmt.Sprint(summary.Failed),
		"skipped": fmt.Sprint(summary.Skipped),
		"summary": string(summary.JSON()),
	}
	ops := make([]*consul.KVTxnOp, 0, len(values)+1)
	for k, v := range values {
		ops = append(ops, &consul.KVTxnOp{Verb: consul.KVSet, Key: base + k, Value: []byte(v)})
	}
	ops = append(ops, &consul.KVTxnOp{Verb: consul.KVSet, Key: c.prefix + "/latest", Value: []byte(summary.RunID)})
	return batchOperations(ctx, c.kv, ops)
}

func (c *Consul) Close() error { return nil }

// batchOperations applies a series of operations in transactions of up to 64 operations each.
func batchOperations(ctx context.Context, kv consulKV, ops []*consul.KVTxnOp) error {
	for i := 0; i < len(ops); {
		j := i + consulMaxTxnOps
		if j > len(ops) {
			j = len(ops)
		}
		ok, resp, _, err := kv.Txn(ops[i:j], (&consul.QueryOptions{}).WithContext(ctx))
		if err != nil {
			return err
		}
		if !ok {
			errs := make([]string, 0)
			if resp != nil {
				for _, te := range resp.Errors {
					errs = append(errs, te.What)
				}
			}
			//nolint:stylecheck // this error message is capitalized on purpose
			return fmt.Errorf("Consul transaction failed: %s", strings.Join(errs, ", "))
		}
		i = j
	}
	return nil
}
