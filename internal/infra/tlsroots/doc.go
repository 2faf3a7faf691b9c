// Package tlsroots builds the TLS configuration used to reach the API.
//
// A custom CA bundle (api.ca_file) is added on top of the system roots. A
// client certificate (api.client_cert and api.client_key) is served
// through GetClientCertificate and reloaded when either file changes, so
// a long-running watch keeps working across certificate rotation.
package tlsroots
