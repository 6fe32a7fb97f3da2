// Package codec converts document trees to and from the persisted JSON
// form: a flat object keyed by node id with a mandatory "ROOT" entry.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/conneroisu/pagecraft/internal/registry"
)

// WireNode is one entry of the persisted document.
type WireNode struct {
	Type        WireType          `json:"type"`
	IsCanvas    bool              `json:"isCanvas"`
	Props       map[string]any    `json:"props"`
	DisplayName string            `json:"displayName"`
	Custom      map[string]any    `json:"custom"`
	Hidden      bool              `json:"hidden"`
	Parent      *string           `json:"parent"`
	Nodes       []string          `json:"nodes"`
	LinkedNodes map[string]string `json:"linkedNodes"`
	Rules       *registry.Rules   `json:"rules,omitempty"`
}

// WireType is the component reference. It is written as
// {"resolvedName": name}; a bare string is also accepted on read.
type WireType struct {
	ResolvedName string `json:"resolvedName"`
}

// UnmarshalJSON accepts both the object and the bare string form.
func (w *WireType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &w.ResolvedName)
	}
	type plain WireType
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("invalid type reference: %w", err)
	}
	*w = WireType(p)
	return nil
}

// Document is the whole persisted map.
type Document map[string]*WireNode

// OriginalTypeKey is the custom field holding the type name of a node
// whose type did not resolve when it was loaded.
const OriginalTypeKey = "originalType"
