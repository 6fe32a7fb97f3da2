// Package cmd provides the pagecraft command-line interface.
//
// # Available Commands
//
//   - serve: Run the editor HTTP API for one document
//   - render: Render a document JSON file to static HTML, optionally on every save
//   - validate: Check document files against the component registry
//   - components: List the component palette
//   - layouts: Manage saved layouts (list, show, save, delete)
//   - version: Show build information
//
// # Command Examples
//
//	// Edit landing.json on port 3000
//	pagecraft serve --port 3000 --document landing.json
//
//	// Export a page and re-export whenever it changes
//	pagecraft render landing.json --out site/index.html --watch
//
//	// Machine-readable palette
//	pagecraft components -o json
//
// # Configuration
//
// Settings come from .pagecraft.yml (or --config, or PAGECRAFT_CONFIG_FILE),
// PAGECRAFT_<SECTION>_<KEY> environment variables and a .env file; see
// internal/config.
package cmd
