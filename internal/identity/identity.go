package identity

import (
	"errors"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var ErrEmptyTagKey = errors.New("tag key cannot be empty")

const (
	nameSeparator = '\xfe'
	tagSeparator  = '\xff'
)

// Tag is a single key/value pair attached to a metric.
type Tag struct {
	Key   string
	Value string
}

// Identity uniquely names a metric. The zero value is not valid.
type Identity struct {
	name string
	tags []Tag
	key  string
}

// New builds an identity from a metric name and an optional tag set.
// The tag map is copied; later changes to it do not affect the identity.
func New(name string, tags map[string]string) (Identity, error) {
	if err := validation.Validate(name, validation.Required); err != nil {
		return Identity{}, err
	}

	canonical, err := canonicalize(tags)
	if err != nil {
		return Identity{}, err
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte(nameSeparator)
	for _, t := range canonical {
		b.WriteString(t.Key)
		b.WriteByte(tagSeparator)
		b.WriteString(t.Value)
		b.WriteByte(tagSeparator)
	}

	return Identity{name: name, tags: canonical, key: b.String()}, nil
}

// MustNew is like New but panics on an invalid name or tag set.
func MustNew(name string, tags map[string]string) Identity {
	id, err := New(name, tags)
	if err != nil {
		panic("identity: " + name + ": " + err.Error())
	}
	return id
}

func canonicalize(tags map[string]string) ([]Tag, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		if k == "" {
			return nil, ErrEmptyTagKey
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, Tag{Key: k, Value: tags[k]})
	}
	return out, nil
}

// Name returns the metric name.
func (id Identity) Name() string {
	return id.name
}

// Key returns the canonical lookup key.
func (id Identity) Key() string {
	return id.key
}

// Hash returns a 64-bit hash of the canonical key.
func (id Identity) Hash() uint64 {
	return xxhash.Sum64String(id.key)
}

// Tags returns a copy of the tag set.
func (id Identity) Tags() map[string]string {
	out := make(map[string]string, len(id.tags))
	for _, t := range id.tags {
		out[t.Key] = t.Value
	}
	return out
}

// SortedTags returns the canonical tag list. The slice must not be modified.
func (id Identity) SortedTags() []Tag {
	return id.tags
}

// Equal reports whether both identities name the same metric.
func (id Identity) Equal(other Identity) bool {
	return id.key == other.key
}

// IsZero reports whether id was never initialized.
func (id Identity) IsZero() bool {
	return id.key == ""
}

func (id Identity) String() string {
	if len(id.tags) == 0 {
		return id.name
	}

	var b strings.Builder
	b.WriteString(id.name)
	b.WriteByte('{')
	for i, t := range id.tags {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	b.WriteByte('}')
	return b.String()
}
