package gateways

import (
	"sort"
	"strings"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
)

// Registry resolves a configured Gateway by name.
type Registry struct {
	gateways       map[enums.Gateway]Gateway
	defaultGateway enums.Gateway
}

// NewRegistry indexes the given gateways. A nil entry is skipped so callers
// can pass optional variants directly.
func NewRegistry(defaultGateway enums.Gateway, gws ...Gateway) *Registry {
	r := &Registry{
		gateways:       make(map[enums.Gateway]Gateway, len(gws)),
		defaultGateway: defaultGateway,
	}
	for _, gw := range gws {
		if gw == nil {
			continue
		}
		r.gateways[gw.Name()] = gw
	}
	return r
}

// Get returns the named gateway, or the default one for an empty name.
func (r *Registry) Get(name string) (Gateway, error) {
	key := enums.Gateway(strings.ToLower(strings.TrimSpace(name)))
	if key == "" {
		key = r.defaultGateway
	}
	if gw, ok := r.gateways[key]; ok {
		return gw, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment gateway").
		WithDetails(map[string]any{"gateway": name, "available": r.Names()})
}

// Names lists configured gateways in a stable order.
func (r *Registry) Names() []enums.Gateway {
	names := make([]enums.Gateway, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
