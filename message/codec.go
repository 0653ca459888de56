package message

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// absentSentinel is the canonical-payload placeholder for signature,
// device_pub_key and delegation_proof: the interoperability constant
// committed for this deployment (see CanonicalPayload and DESIGN.md).
const absentSentinel = "~"

var uuidV4Pattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-4[0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

func isUUIDv4(s string) bool {
	return uuidV4Pattern.MatchString(s)
}

// escape percent-escapes the three reserved bytes of the canonical form:
// '=', '&' and '%' itself.
func escape(s string) string {
	if !strings.ContainsAny(s, "=&%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '=', '&', '%':
			fmt.Fprintf(&b, "%%%02X", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// CanonicalPayload builds the deterministic byte sequence that is signed
// and verified: key=value pairs joined by '&', keys sorted
// lexicographically, signature/device_pub_key/delegation_proof replaced
// by the absent sentinel, kind payload fields flattened under a
// "payload." prefix.
func CanonicalPayload(e *Envelope) ([]byte, error) {
	fields := map[string]string{
		"kind":             string(e.Kind),
		"id":               e.ID,
		"timestamp":        strconv.FormatInt(e.TimestampMs, 10),
		"author":           e.Author,
		"signature":        absentSentinel,
		"device_pub_key":   absentSentinel,
		"delegation_proof": absentSentinel,
	}

	switch e.Kind {
	case KindCell:
		if e.Cell == nil {
			return nil, fmt.Errorf("message: cell payload missing for kind %s", e.Kind)
		}
		fields["payload.name"] = e.Cell.Name
		fields["payload.description"] = e.Cell.Description
		fields["payload.icon"] = e.Cell.Icon
	case KindPost:
		if e.Post == nil {
			return nil, fmt.Errorf("message: post payload missing for kind %s", e.Kind)
		}
		fields["payload.cell_id"] = e.Post.CellID
		fields["payload.title"] = e.Post.Title
		fields["payload.body"] = e.Post.Body
	case KindComment:
		if e.Comment == nil {
			return nil, fmt.Errorf("message: comment payload missing for kind %s", e.Kind)
		}
		fields["payload.post_id"] = e.Comment.PostID
		fields["payload.body"] = e.Comment.Body
	case KindVote:
		if e.Vote == nil {
			return nil, fmt.Errorf("message: vote payload missing for kind %s", e.Kind)
		}
		fields["payload.target_id"] = e.Vote.TargetID
		fields["payload.value"] = strconv.Itoa(e.Vote.Value)
	case KindModerate:
		if e.Moderate == nil {
			return nil, fmt.Errorf("message: moderate payload missing for kind %s", e.Kind)
		}
		fields["payload.action"] = string(e.Moderate.Action)
		fields["payload.target_kind"] = string(e.Moderate.TargetKind)
		fields["payload.target_id"] = e.Moderate.TargetID
		fields["payload.cell_id"] = e.Moderate.CellID
		fields["payload.reason"] = e.Moderate.Reason
	case KindProfileUpdate:
		if e.ProfileUpdate == nil {
			return nil, fmt.Errorf("message: profile_update payload missing for kind %s", e.Kind)
		}
		fields["payload.call_sign"] = e.ProfileUpdate.CallSign
		fields["payload.display_preference"] = string(e.ProfileUpdate.DisplayPreference)
	default:
		return nil, fmt.Errorf("message: unknown kind %q", e.Kind)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		b.WriteByte('=')
		b.WriteString(escape(fields[k]))
	}
	return []byte(b.String()), nil
}

// DecodeCanonicalPayload parses a canonical payload back into its
// key/value fields, used to verify the round-trip identity: encode then
// decode then re-encode must reproduce the original bytes.
func DecodeCanonicalPayload(raw []byte) (map[string]string, error) {
	out := make(map[string]string)
	if len(raw) == 0 {
		return out, nil
	}
	for _, pair := range strings.Split(string(raw), "&") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("message: malformed canonical field %q", pair)
		}
		out[unescape(kv[0])] = unescape(kv[1])
	}
	return out, nil
}

// Marshal encodes a full envelope (signature fields included) for
// transport and durable storage.
func Marshal(e *Envelope) ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal decodes a full envelope from transport/storage bytes.
func Unmarshal(raw []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("message: unmarshal: %w", err)
	}
	return &e, nil
}
