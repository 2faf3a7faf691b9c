// Package request builds outgoing request configurations.
//
// A Builder combines three layers into one Config:
//
//	defaults (base URL, ambient headers)  <  injected auth  <  caller options
//
// Two entry points share that rule. Reactive returns a Resource whose
// result is cached and whose concurrent fetches are collapsed. Imperative
// returns a plain Config for one-shot calls and never forwards ambient
// headers.
//
// Asking for auth while no token is held is not an error: the request is
// built without an Authorization header and the gap is counted in
// tokgate_requests_auth_gap_total.
package request
