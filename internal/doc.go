// Package internal contains the core implementation packages for pagecraft.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - props: typed component props, decoding and validation
//   - registry: component descriptors, defaults and placement rules
//   - document: the node tree with a single ROOT
//   - editor: the editing engine with selection, shortcuts and change events
//   - history: bounded undo/redo snapshots and debounced checkpoints
//   - codec: the stored document format
//   - renderer: static HTML export and preview
//   - layouts: saved layouts in memory or SQLite
//   - backend: the CMS client for saving pages
//   - server: the HTTP API and websocket change feed for one session
//   - config, logging, errors, version, watcher: shared plumbing
//
// # Inter-Package Communication
//
//   - The editor mutates a document.Tree and consults the registry for rules
//   - The codec converts trees to and from the stored format
//   - The renderer reads stored documents without touching the editor
//   - The server serializes requests onto one editor engine and fans its
//     change events out over websockets
package internal
