package pocket

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/google/uuid"
)

// Pocket is a node in the settings tree: a mapping from string keys to
// values. A value is nil, a string, a bool, a json.Number, a list
// ([]any), or a nested *Pocket. All numeric values are normalized to
// json.Number on the way in, so a tree survives a serialization
// round-trip unchanged.
//
// A pocket holds a non-owning reference to its parent. Mutations emit
// the pocket's OnChanged signal; attached pockets chain the signal to
// their parent, so the root observes every change in the tree.
//
// Pockets are not safe for concurrent use.
type Pocket struct {
	entries map[string]any
	changed *Signal

	// parent wiring; zero for roots and detached pockets.
	parent     *Pocket
	parentConn uuid.UUID
}

// New creates an empty, unattached pocket.
func New() *Pocket {
	return &Pocket{
		entries: make(map[string]any),
		changed: NewSignal(),
	}
}

// FromMap builds a pocket tree from a plain nested map. Nested maps
// become attached sub-pockets; maps inside lists stay plain maps.
// No change signals are emitted during construction.
func FromMap(m map[string]any) (*Pocket, error) {
	p := New()
	for key, value := range m {
		v, err := normalize(value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		p.entries[key] = v
		if sub, ok := v.(*Pocket); ok {
			p.attach(sub)
		}
	}
	return p, nil
}

// Clone returns a deep copy of the pocket as a new unattached root.
func (p *Pocket) Clone() *Pocket {
	cp, err := FromMap(p.ToMap())
	if err != nil {
		// ToMap output only contains supported value types.
		panic(fmt.Sprintf("pocket: clone: %v", err))
	}
	return cp
}

// OnChanged returns the pocket's change signal. The persistent root
// connects its save routine here; tests can connect counters.
func (p *Pocket) OnChanged() *Signal {
	return p.changed
}

// Parent returns the owning pocket, or nil for roots and pockets that
// have been detached by Remove.
func (p *Pocket) Parent() *Pocket {
	return p.parent
}

// Has reports whether the key exists in this pocket.
func (p *Pocket) Has(key string) bool {
	_, ok := p.entries[key]
	return ok
}

// Len returns the number of entries in this pocket.
func (p *Pocket) Len() int {
	return len(p.entries)
}

// Keys returns the keys of this pocket in sorted order.
func (p *Pocket) Keys() []string {
	keys := make([]string, 0, len(p.entries))
	for k := range p.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored at key and whether it was present.
// Lists and maps are returned as deep copies so the tree cannot be
// changed behind the change signal's back; sub-pockets are returned
// live (use them to mutate the tree).
func (p *Pocket) Get(key string) (any, bool) {
	v, ok := p.entries[key]
	if !ok {
		return nil, false
	}
	if _, isSub := v.(*Pocket); isSub {
		return v, true
	}
	return copyValue(v), true
}

// Set stores value at key, overwriting any existing entry. Numeric
// values are normalized to json.Number, maps become attached
// sub-pockets, and lists are stored as deep copies. Overwriting a
// sub-pocket detaches it. Setting a value deep-equal to the current
// one is a no-op. On an applied change the change signal is emitted
// and any handler error (a failed save, typically) is returned.
func (p *Pocket) Set(key string, value any) error {
	v, err := normalize(value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}

	cur, exists := p.entries[key]
	if exists && equalValue(cur, v) {
		return nil
	}

	if sub, ok := v.(*Pocket); ok {
		if err := p.attachable(sub); err != nil {
			return fmt.Errorf("set %q: %w", key, err)
		}
	}

	if old, ok := cur.(*Pocket); ok {
		p.detach(old)
	}
	p.entries[key] = v
	if sub, ok := v.(*Pocket); ok {
		p.attach(sub)
	}
	return p.changed.Emit()
}

// SetString stores a string value at key.
func (p *Pocket) SetString(key, value string) error {
	return p.Set(key, value)
}

// SetInt stores an integer value at key.
func (p *Pocket) SetInt(key string, value int64) error {
	return p.Set(key, value)
}

// SetFloat stores a float value at key.
func (p *Pocket) SetFloat(key string, value float64) error {
	return p.Set(key, value)
}

// SetBool stores a boolean value at key.
func (p *Pocket) SetBool(key string, value bool) error {
	return p.Set(key, value)
}

// SetList stores a copy of the list at key.
func (p *Pocket) SetList(key string, value []any) error {
	return p.Set(key, value)
}

// SubPocket returns the sub-pocket stored at key. If the key is
// absent, a new empty sub-pocket is created, attached, stored, and the
// change signal emitted. If the key holds a non-pocket value the call
// fails with ErrTypeConflict and the pocket is left unchanged.
//
// When creation triggers a persistence failure, the sub-pocket is
// returned together with the error; it is attached either way.
func (p *Pocket) SubPocket(key string) (*Pocket, error) {
	if v, ok := p.entries[key]; ok {
		if sub, ok := v.(*Pocket); ok {
			return sub, nil
		}
		return nil, fmt.Errorf("key %q holds %T: %w", key, v, ErrTypeConflict)
	}

	sub := New()
	p.entries[key] = sub
	p.attach(sub)
	return sub, p.changed.Emit()
}

// Remove deletes the entry at key. A removed sub-pocket is detached:
// its parent reference is cleared and its change signal no longer
// reaches this pocket, so later mutations on it do not touch the tree.
// Removing an absent key is a no-op and emits no signal.
func (p *Pocket) Remove(key string) error {
	v, ok := p.entries[key]
	if !ok {
		return nil
	}
	delete(p.entries, key)
	if sub, ok := v.(*Pocket); ok {
		p.detach(sub)
	}
	return p.changed.Emit()
}

// ToMap recursively materializes the pocket and all descendants into a
// plain nested map of primitives, suitable for serialization. The
// result shares no memory with the tree.
func (p *Pocket) ToMap() map[string]any {
	m := make(map[string]any, len(p.entries))
	for key, v := range p.entries {
		if sub, ok := v.(*Pocket); ok {
			m[key] = sub.ToMap()
			continue
		}
		m[key] = copyValue(v)
	}
	return m
}

// attachable reports whether sub can become a child of p: it must be
// unattached and must not be p itself or an ancestor of p.
func (p *Pocket) attachable(sub *Pocket) error {
	if sub.parent != nil {
		return ErrAlreadyAttached
	}
	for node := p; node != nil; node = node.parent {
		if node == sub {
			return ErrAlreadyAttached
		}
	}
	return nil
}

// attach wires sub's change signal into p so mutations below sub
// propagate upward.
func (p *Pocket) attach(sub *Pocket) {
	sub.parent = p
	sub.parentConn = sub.changed.Connect(p.changed.Emit)
}

// detach severs the signal link and clears the parent reference,
// rendering sub an inert standalone root.
func (p *Pocket) detach(sub *Pocket) {
	sub.changed.Disconnect(sub.parentConn)
	sub.parent = nil
	sub.parentConn = uuid.Nil
}

// normalize converts a caller-supplied value into its canonical stored
// form: nil, string, bool, json.Number, []any, or *Pocket.
func normalize(value any) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, json.Number:
		return v, nil
	case int:
		return json.Number(strconv.FormatInt(int64(v), 10)), nil
	case int8:
		return json.Number(strconv.FormatInt(int64(v), 10)), nil
	case int16:
		return json.Number(strconv.FormatInt(int64(v), 10)), nil
	case int32:
		return json.Number(strconv.FormatInt(int64(v), 10)), nil
	case int64:
		return json.Number(strconv.FormatInt(v, 10)), nil
	case uint:
		return json.Number(strconv.FormatUint(uint64(v), 10)), nil
	case uint8:
		return json.Number(strconv.FormatUint(uint64(v), 10)), nil
	case uint16:
		return json.Number(strconv.FormatUint(uint64(v), 10)), nil
	case uint32:
		return json.Number(strconv.FormatUint(uint64(v), 10)), nil
	case uint64:
		return json.Number(strconv.FormatUint(v, 10)), nil
	case float32:
		return json.Number(strconv.FormatFloat(float64(v), 'g', -1, 32)), nil
	case float64:
		return json.Number(strconv.FormatFloat(v, 'g', -1, 64)), nil
	case []any:
		return normalizeList(v)
	case map[string]any:
		return FromMap(v)
	case *Pocket:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}

// normalizeList deep-copies a list, normalizing elements. Maps inside
// lists stay plain maps; lists are opaque values, not tree nodes.
func normalizeList(list []any) ([]any, error) {
	out := make([]any, len(list))
	for i, elem := range list {
		switch e := elem.(type) {
		case map[string]any:
			m, err := normalizeListMap(e)
			if err != nil {
				return nil, err
			}
			out[i] = m
		case *Pocket:
			return nil, fmt.Errorf("%w: pocket inside list", ErrUnsupportedValue)
		default:
			v, err := normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
	}
	return out, nil
}

// normalizeListMap normalizes a map nested inside a list without
// turning it into a sub-pocket.
func normalizeListMap(m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, elem := range m {
		switch e := elem.(type) {
		case map[string]any:
			v, err := normalizeListMap(e)
			if err != nil {
				return nil, err
			}
			out[k] = v
		case *Pocket:
			return nil, fmt.Errorf("%w: pocket inside list", ErrUnsupportedValue)
		default:
			v, err := normalize(e)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
	}
	return out, nil
}

// copyValue deep-copies lists and maps; scalars are returned as-is.
func copyValue(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = copyValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

// equalValue reports whether two stored values are equal. Pockets
// compare by identity; everything else by deep equality.
func equalValue(a, b any) bool {
	ap, aok := a.(*Pocket)
	bp, bok := b.(*Pocket)
	if aok || bok {
		return aok && bok && ap == bp
	}
	return reflect.DeepEqual(a, b)
}
