package ident

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrIdentifierCollision is returned by strict scopes when two raw names
// normalize to the same identifier.
var ErrIdentifierCollision = errors.New("identifier collision")

// Collision records one disambiguation performed by a Scope.
type Collision struct {
	// Scope is the namespace label.
	Scope string
	// Raw is the raw name that lost the original identifier.
	Raw string
	// Wanted is the identifier Raw normalized to.
	Wanted string
	// Resolved is the identifier Raw was given instead.
	Resolved string
	// Owner is the raw name that already held Wanted; empty for reserved names.
	Owner string
}

// String describes the collision.
func (c Collision) String() string {
	owner := "a reserved name"
	if c.Owner != "" {
		owner = strconv.Quote(c.Owner)
	}

	return fmt.Sprintf("%s: %q normalizes to %s, already used by %s; renamed to %s",
		c.Scope, c.Raw, c.Wanted, owner, c.Resolved)
}

// Scope is one identifier namespace within one emission pass. It is not safe
// for concurrent use.
type Scope struct {
	label      string
	kind       Kind
	strict     bool
	transform  func(string) string
	byKey      map[string]string
	owners     map[string]string
	collisions []Collision
}

// ScopeOption configures a Scope.
type ScopeOption func(*Scope)

// Strict makes the scope fail on collisions instead of renaming.
func Strict(strict bool) ScopeOption {
	return func(s *Scope) { s.strict = strict }
}

// WithTransform applies fn to every normalized identifier before uniqueness is checked.
func WithTransform(fn func(string) string) ScopeOption {
	return func(s *Scope) { s.transform = fn }
}

// Reserve marks names as unavailable.
func Reserve(names ...string) ScopeOption {
	return func(s *Scope) {
		for _, n := range names {
			s.owners[n] = ""
		}
	}
}

// NewScope creates a namespace for identifiers of the given kind.
func NewScope(label string, kind Kind, opts ...ScopeOption) *Scope {
	s := &Scope{
		label:  label,
		kind:   kind,
		byKey:  make(map[string]string),
		owners: make(map[string]string),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Resolve normalizes raw and makes the result unique within the scope. The
// same raw name always yields the same identifier.
func (s *Scope) Resolve(raw string) (string, error) {
	if name, ok := s.byKey[raw]; ok {
		return name, nil
	}

	name := Normalize(raw, s.kind)
	if s.transform != nil {
		name = s.transform(name)
	}

	return s.Claim(raw, name)
}

// MustResolve is Resolve for non-strict scopes.
func (s *Scope) MustResolve(raw string) string {
	name, err := s.Resolve(raw)
	if err != nil {
		panic(err)
	}

	return name
}

// Claim registers candidate under key, renaming it if it is taken.
func (s *Scope) Claim(key, candidate string) (string, error) {
	if name, ok := s.byKey[key]; ok {
		return name, nil
	}

	name := candidate

	if owner, taken := s.owners[name]; taken {
		if s.strict {
			return "", fmt.Errorf("%w in %s: %q and %q both become %s",
				ErrIdentifierCollision, s.label, owner, key, candidate)
		}

		for n := 2; ; n++ {
			name = candidate + "_" + strconv.Itoa(n)
			if _, used := s.owners[name]; !used {
				break
			}
		}

		s.collisions = append(s.collisions, Collision{
			Scope:    s.label,
			Raw:      key,
			Wanted:   candidate,
			Resolved: name,
			Owner:    owner,
		})
	}

	s.owners[name] = key
	s.byKey[key] = name

	return name, nil
}

// Lookup returns the identifier previously resolved or claimed for key.
func (s *Scope) Lookup(key string) (string, bool) {
	name, ok := s.byKey[key]
	return name, ok
}

// Collisions returns the renames performed so far, in order.
func (s *Scope) Collisions() []Collision {
	return s.collisions
}
