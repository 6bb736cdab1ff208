// Package http exposes the shared library document over HTTP.
//
// The router serves the following endpoints:
//   - GET /state: the canonical document and its version, also sent as ETag.
//     Body: {"document","version"}.
//   - PUT /state: saves a whole document edited from "version" (or If-Match).
//     Concurrent edits to other entries are merged; a clash on the same entry
//     answers 409.
//   - PUT /attendance/{date}, DELETE /attendance/{date}, PUT /attendance/{date}/note,
//     POST /checkins: inspection records. Bodies use {"mitarbeiter","bemerkung"}.
//   - PUT /responsibility/{week}: {"mitarbeiter"} for an ISO week YYYY-Www.
//   - PUT /planning/{date}: {"oeffnungszeiten":{"Morgen":[...]},"klassenbesuch","bemerkung"}.
//   - GET /calendar/coverage, GET /calendar/events, GET /planning/week?week=YYYY-Www:
//     derived read-only views.
//   - GET /roster: the staff names.
//
// Every mutation answers with the new {"document","version"}. Errors use
// errorResponse: 400 malformed body, 404 missing entry, 409 concurrent
// modification, 422 validation (field messages under "errors"), 503 store
// unavailable, 500 unreadable document.
package http
