// Package registry maps component type names to their descriptors:
// default props, placement rules and the typed props constructor.
package registry

import (
	"sort"
	"sync"

	"github.com/conneroisu/pagecraft/internal/errors"
	"github.com/conneroisu/pagecraft/internal/props"
)

// Rules govern which editor mutations a node accepts.
type Rules struct {
	// CanDrag allows the node to be moved.
	CanDrag bool `json:"canDrag" yaml:"canDrag"`
	// CanDrop allows the node to receive drops at all.
	CanDrop bool `json:"canDrop" yaml:"canDrop"`
	// CanMoveIn allows nodes to be moved or added into this node.
	CanMoveIn bool `json:"canMoveIn" yaml:"canMoveIn"`
	// CanMoveOut allows children to leave this node.
	CanMoveOut bool `json:"canMoveOut" yaml:"canMoveOut"`
	CanDelete  bool `json:"canDelete" yaml:"canDelete"`
	// Accepts restricts incoming child types. Empty means any.
	Accepts []string `json:"accepts,omitempty" yaml:"accepts,omitempty"`
}

// AllowAll permits every mutation.
func AllowAll() Rules {
	return Rules{CanDrag: true, CanDrop: true, CanMoveIn: true, CanMoveOut: true, CanDelete: true}
}

// AcceptsType reports whether a child of type t may be placed inside.
func (r Rules) AcceptsType(t string) bool {
	if !r.CanDrop || !r.CanMoveIn {
		return false
	}
	if len(r.Accepts) == 0 {
		return true
	}
	for _, a := range r.Accepts {
		if a == t {
			return true
		}
	}
	return false
}

// FieldKind is the input widget a settings panel uses for a prop.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldNumber   FieldKind = "number"
	FieldColor    FieldKind = "color"
	FieldSelect   FieldKind = "select"
	FieldToggle   FieldKind = "toggle"
	FieldURL      FieldKind = "url"
)

// Field describes one editable prop.
type Field struct {
	Key     string    `json:"key" yaml:"key"`
	Label   string    `json:"label" yaml:"label"`
	Kind    FieldKind `json:"kind" yaml:"kind"`
	Options []string  `json:"options,omitempty" yaml:"options,omitempty"`
}

// PropertyEditor lists the fields a settings UI should offer.
type PropertyEditor struct {
	Fields []Field `json:"fields" yaml:"fields"`
}

// Descriptor is everything the editor knows about a component type.
type Descriptor struct {
	Name        string          `json:"name" yaml:"name"`
	DisplayName string          `json:"displayName" yaml:"displayName"`
	Category    string          `json:"category" yaml:"category"`
	IsCanvas    bool            `json:"isCanvas" yaml:"isCanvas"`
	Defaults    props.Bag       `json:"defaults" yaml:"defaults"`
	Rules       Rules           `json:"rules" yaml:"rules"`
	Editor      *PropertyEditor `json:"editor,omitempty" yaml:"editor,omitempty"`
	// Hidden descriptors resolve but are not offered in the palette.
	Hidden bool `json:"hidden,omitempty" yaml:"hidden,omitempty"`

	NewProps func() props.Props `json:"-" yaml:"-"`
}

// Registry is a process-wide, read-mostly table of descriptors.
type Registry struct {
	descriptors map[string]*Descriptor
	frozen      bool
	mutex       sync.RWMutex
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		descriptors: make(map[string]*Descriptor),
	}
}

// Register adds a descriptor under name. Re-registering a name replaces
// it. Fails once the registry is frozen.
func (r *Registry) Register(name string, d Descriptor) error {
	if name == "" {
		return errors.New(errors.ErrInvalidProps, "component name is required")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.frozen {
		return errors.Newf(errors.ErrRegistryFrozen, "cannot register %q: registry is frozen", name).
			WithComponent(name)
	}

	d.Name = name
	if d.DisplayName == "" {
		d.DisplayName = name
	}
	d.Defaults = d.Defaults.Clone()
	d.Rules.Accepts = append([]string(nil), d.Rules.Accepts...)
	r.descriptors[name] = &d

	return nil
}

// MustRegister is Register that panics, for static tables.
func (r *Registry) MustRegister(name string, d Descriptor) {
	if err := r.Register(name, d); err != nil {
		panic(err)
	}
}

// Resolve returns a copy of the descriptor for name.
func (r *Registry) Resolve(name string) (*Descriptor, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	d, ok := r.descriptors[name]
	if !ok {
		return nil, errors.Newf(errors.ErrUnknownType, "unknown component type %q", name).
			WithComponent(name)
	}
	out := *d
	out.Defaults = d.Defaults.Clone()

	return &out, nil
}

// Has reports whether name resolves.
func (r *Registry) Has(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, ok := r.descriptors[name]
	return ok
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Palette returns the descriptors offered to users, sorted by category
// then name.
func (r *Registry) Palette() []*Descriptor {
	r.mutex.RLock()
	out := make([]*Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		if d.Hidden {
			continue
		}
		c := *d
		c.Defaults = d.Defaults.Clone()
		out = append(out, &c)
	}
	r.mutex.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})

	return out
}

// Count returns the number of registered components.
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.descriptors)
}

// Freeze stops further registration. Documents produced against a frozen
// registry round-trip for the life of the process.
func (r *Registry) Freeze() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.frozen = true
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.frozen
}

// ResolveProps layers bag over the type's defaults, decodes the result
// into the typed props struct and validates it.
func (r *Registry) ResolveProps(name string, bag props.Bag) (props.Props, error) {
	d, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	if d.NewProps == nil {
		return nil, errors.Newf(errors.ErrInvalidProps, "component %q has no typed props", name).
			WithComponent(name)
	}

	p := d.NewProps()
	if err := props.Decode(props.Merge(d.Defaults, bag), p); err != nil {
		return nil, errors.New(errors.ErrInvalidProps, err.Error()).WithComponent(name).WithCause(err)
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Newf(errors.ErrInvalidProps, "invalid %s props: %v", name, err).
			WithComponent(name).WithCause(err)
	}

	return p, nil
}
