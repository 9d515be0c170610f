// Package handlers contains the HTTP handlers of the documentation mirror.
//
// This package provides handlers for:
//   - Rendered documentation pages with not-found fallbacks
//   - The asset proxy
//   - The push webhook that invalidates cached content
//   - Status, health and manual reload endpoints
//
// Errors are classified with foundation/errors; API endpoints answer with the
// server/responses types while page routes go through a PageComposer.
package handlers
