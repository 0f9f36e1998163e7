package monitor

import (
	"fmt"
)

// Matcher is either a static set of identifiers or a predicate over the live entity.
// The zero value matches nothing.
type Matcher[T any] struct {
	ids       map[string]struct{}
	predicate func(T) bool
}

func StaticSet[T any](ids ...string) Matcher[T] {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return Matcher[T]{ids: set}
}

func Predicate[T any](fn func(T) bool) Matcher[T] {
	return Matcher[T]{predicate: fn}
}

// Match reports whether any of keys is in the static set, or whether the predicate accepts entity.
func (m Matcher[T]) Match(entity T, keys ...string) bool {
	if m.predicate != nil {
		return m.predicate(entity)
	}
	for _, k := range keys {
		if _, ok := m.ids[k]; ok {
			return true
		}
	}
	return false
}

func (m Matcher[T]) IsPredicate() bool {
	return m.predicate != nil
}

func (m Matcher[T]) IDs() []string {
	ids := make([]string, 0, len(m.ids))
	for id := range m.ids {
		ids = append(ids, id)
	}
	return ids
}

// UnmarshalYAML decodes a list of identifiers into a static set.
func (m *Matcher[T]) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var ids []string
	if err := unmarshal(&ids); err != nil {
		var single string
		if errSingle := unmarshal(&single); errSingle != nil {
			return fmt.Errorf("ignore list must be a list of ids: %w", err)
		}
		ids = []string{single}
	}
	*m = StaticSet[T](ids...)
	return nil
}
