package source

import (
	"context"
	"fmt"
	"sync"
)

// Opener opens sources for the locations it accepts.
type Opener interface {
	// Name is a short label used in error messages.
	Name() string
	// Accepts reports whether the opener handles location.
	Accepts(location string) bool
	// Open opens the source at location.
	Open(ctx context.Context, location string) (Handle, error)
}

var (
	openersMu sync.RWMutex
	openers   []Opener
)

// Register makes an opener available to Open. Openers are consulted in
// registration order.
func Register(o Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()

	openers = append(openers, o)
}

// Open opens the source at location using the first registered opener that
// accepts it. Every failure matches ErrSourceUnopenable.
func Open(ctx context.Context, location string) (Handle, error) {
	openersMu.RLock()
	candidates := append([]Opener(nil), openers...)
	openersMu.RUnlock()

	for _, o := range candidates {
		if !o.Accepts(location) {
			continue
		}

		h, err := o.Open(ctx, location)
		if err != nil {
			return nil, Unopenable(location, fmt.Errorf("%s: %w", o.Name(), err))
		}

		return h, nil
	}

	return nil, Unopenable(location, fmt.Errorf("no adapter accepts this location"))
}
