package request

import "net/textproto"

// AuthorizationHeader is the canonical name of the injected header.
const AuthorizationHeader = "Authorization"

// BearerHeader returns the Authorization header set for tok, or nil when
// tok is empty.
func BearerHeader(tok string) map[string]string {
	if tok == "" {
		return nil
	}
	return map[string]string{AuthorizationHeader: "Bearer " + tok}
}

// MergeHeaders merges header sets with the precedence
// defaults < auth < caller. Names are compared in canonical MIME form,
// so a caller "authorization" replaces the injected one. The result is a
// new map; inputs are not modified.
func MergeHeaders(defaults, auth, caller map[string]string) map[string]string {
	merged := make(map[string]string, len(defaults)+len(auth)+len(caller))
	for _, layer := range []map[string]string{defaults, auth, caller} {
		for k, v := range layer {
			merged[textproto.CanonicalMIMEHeaderKey(k)] = v
		}
	}
	return merged
}
