package mockapi

import (
	"net/url"
	"sort"
	"strconv"
	"sync"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// collection is a thread-safe set of JSON objects keyed by their numeric "id" property.
type collection struct {
	name   string
	items  map[int]ldvalue.Value
	nextID int
	lock   sync.RWMutex
}

func newCollection(name string, seed []ldvalue.Value) *collection {
	c := &collection{name: name, items: make(map[int]ldvalue.Value, len(seed)), nextID: 1}
	for _, item := range seed {
		id := item.GetByKey("id").IntValue()
		c.items[id] = item
		if id >= c.nextID {
			c.nextID = id + 1
		}
	}
	return c
}

// list returns the items in id order. Each query parameter must equal the text form of the
// property with the same name.
func (c *collection) list(filter url.Values) []ldvalue.Value {
	c.lock.RLock()
	defer c.lock.RUnlock()
	ids := make([]int, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	ret := make([]ldvalue.Value, 0, len(ids))
	for _, id := range ids {
		if item := c.items[id]; matchesFilter(item, filter) {
			ret = append(ret, item)
		}
	}
	return ret
}

func (c *collection) get(id int) (ldvalue.Value, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	item, ok := c.items[id]
	return item, ok
}

func (c *collection) create(body ldvalue.Value) ldvalue.Value {
	c.lock.Lock()
	defer c.lock.Unlock()
	id := c.nextID
	c.nextID++
	item := withID(body, id)
	c.items[id] = item
	return item
}

// replace swaps out the whole item, keeping its id.
func (c *collection) replace(id int, body ldvalue.Value) (ldvalue.Value, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.items[id]; !ok {
		return ldvalue.Null(), false
	}
	item := withID(body, id)
	c.items[id] = item
	return item, true
}

// patch merges the top-level properties of body into the item.
func (c *collection) patch(id int, body ldvalue.Value) (ldvalue.Value, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	existing, ok := c.items[id]
	if !ok {
		return ldvalue.Null(), false
	}
	b := ldvalue.ObjectBuild()
	for _, k := range existing.Keys(nil) {
		b.Set(k, existing.GetByKey(k))
	}
	for _, k := range body.Keys(nil) {
		b.Set(k, body.GetByKey(k))
	}
	b.Set("id", ldvalue.Int(id))
	item := b.Build()
	c.items[id] = item
	return item, true
}

func (c *collection) delete(id int) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	return true
}

func (c *collection) count() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.items)
}

func withID(body ldvalue.Value, id int) ldvalue.Value {
	b := ldvalue.ObjectBuild()
	for _, k := range body.Keys(nil) {
		b.Set(k, body.GetByKey(k))
	}
	b.Set("id", ldvalue.Int(id))
	return b.Build()
}

func matchesFilter(item ldvalue.Value, filter url.Values) bool {
	for name, values := range filter {
		if len(values) == 0 {
			continue
		}
		if scalarText(item.GetByKey(name)) != values[0] {
			return false
		}
	}
	return true
}

func scalarText(v ldvalue.Value) string {
	switch v.Type() {
	case ldvalue.StringType:
		return v.StringValue()
	case ldvalue.NumberType:
		if v.IsInt() {
			return strconv.Itoa(v.IntValue())
		}
		return strconv.FormatFloat(v.Float64Value(), 'f', -1, 64)
	default:
		return v.JSONString()
	}
}
