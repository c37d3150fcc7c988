// Package claims decodes bearer-token payloads into claim maps and
// resolves logical fields across the claim-key spellings used by
// different token issuers.
//
// Decoding is purely structural: the signature segment is never read and
// never verified. The server that issued the token is responsible for
// authenticity; this package must stay safe to call on arbitrary input.
package claims

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shweta76555/deskcli/internal/errs"
)

// Payload maps claim names to their raw JSON values.
type Payload map[string]any

// Claim-name priority tables per logical field. Short forms first, then
// casing variants, then the namespaced URL spellings emitted by older
// .NET identity stacks.
var (
	subjectKeys = []string{
		"sub", "id", "user_id", "userId", "uid",
		"nameid", "name_identifier", "nameidentifier",
		"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier",
	}
	displayNameKeys = []string{
		"name", "unique_name", "given_name", "fullname", "fullName",
		"username",
		"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name",
	}
	emailKeys = []string{
		"email", "email_address", "upn", "emails", "preferred_username",
		"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress",
	}
	roleKeys = []string{
		"role", "roles", "role_name",
		"http://schemas.microsoft.com/ws/2008/06/identity/claims/role",
	}
)

// Decode splits token into dot-separated segments and parses the second
// segment as a base64url-encoded UTF-8 JSON object. Any structural
// failure returns an error wrapping errs.ErrMalformedToken; Decode never
// panics and never returns a partial payload.
func Decode(token string) (Payload, error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: want at least 2 segments, got %d", errs.ErrMalformedToken, len(parts))
	}
	raw, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload base64: %v", errs.ErrMalformedToken, err)
	}
	if !utf8.Valid(raw) {
		// encoding/json replaces invalid UTF-8 instead of rejecting it,
		// so the check has to happen here.
		return nil, fmt.Errorf("%w: payload is not valid UTF-8", errs.ErrMalformedToken)
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: payload json: %v", errs.ErrMalformedToken, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object", errs.ErrMalformedToken)
	}
	return p, nil
}

// decodeSegment translates base64url to standard base64 and pads to a
// multiple of four before decoding.
func decodeSegment(seg string) ([]byte, error) {
	s := strings.ReplaceAll(seg, "-", "+")
	s = strings.ReplaceAll(s, "_", "/")
	if n := len(s) % 4; n != 0 {
		s += strings.Repeat("=", 4-n)
	}
	return base64.StdEncoding.DecodeString(s)
}

// Get resolves a logical claim by trying each name in priority order with
// an exact, case-sensitive match. Arrays are joined with ", "; nested
// objects are re-serialized to JSON text; scalars are stringified. When
// no name matches, Get falls back to a case-insensitive substring scan
// over all keys: first a key containing "email", then "role", then
// "name". Issuers vary claim-key spellings, so the fallback is a
// deliberate, documented heuristic.
func Get(p Payload, names ...string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, name := range names {
		v, ok := p[name]
		if !ok || v == nil {
			continue
		}
		return stringify(v), true
	}
	return scanFallback(p)
}

func scanFallback(p Payload) (string, bool) {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if strings.Contains(strings.ToLower(k), "email") && p[k] != nil {
			return stringify(p[k]), true
		}
	}
	for _, k := range keys {
		if strings.Contains(strings.ToLower(k), "role") {
			if s := stringify(p[k]); s != "" {
				return s, true
			}
		}
	}
	for _, k := range keys {
		if strings.Contains(strings.ToLower(k), "name") && p[k] != nil {
			return stringify(p[k]), true
		}
	}
	return "", false
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, stringify(e))
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// SubjectID returns the subject identifier claim, if any.
func SubjectID(p Payload) (string, bool) { return Get(p, subjectKeys...) }

// DisplayName returns the display-name claim, if any.
func DisplayName(p Payload) (string, bool) { return Get(p, displayNameKeys...) }

// Email returns the email claim, if any.
func Email(p Payload) (string, bool) { return Get(p, emailKeys...) }

// Role returns the role claim, if any. Multi-role arrays come back joined.
func Role(p Payload) (string, bool) { return Get(p, roleKeys...) }

// ExpiresAt reads the exp claim as Unix seconds. A missing or non-numeric
// exp returns ok=false; such tokens are treated as non-expiring by the
// client, since expiry enforcement ultimately belongs to the server.
func ExpiresAt(p Payload) (time.Time, bool) {
	v, ok := p["exp"]
	if !ok {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case float64:
		sec, frac := int64(t), t-float64(int64(t))
		return time.Unix(sec, int64(frac*float64(time.Second))), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(int64(f), 0), true
	case string:
		sec, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(sec, 0), true
	default:
		return time.Time{}, false
	}
}
