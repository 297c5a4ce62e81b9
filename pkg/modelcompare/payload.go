package modelcompare

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// SerializedSnippet is the wire shape of a Snippet inside a payload.
type SerializedSnippet struct {
	Path      string `json:"path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Content   string `json:"content"`
}

// SerializedPack is the wire shape of a ContextPack inside a payload.
type SerializedPack struct {
	Facts    []string            `json:"facts"`
	Snippets []SerializedSnippet `json:"snippets"`
	Meta     map[string]any      `json:"meta"`
}

// Payload is the shared request body dispatched byte-identically to every
// candidate. ContextPack is nil when the bridge did not engage or no pack
// was built.
type Payload struct {
	Question    string          `json:"question"`
	ContextPack *SerializedPack `json:"context_pack,omitempty"`
}

// BuildPayload produces the payload for a run: {question, context_pack} when
// contextBridge is enabled and a non-nil pack is supplied, otherwise just
// {question}.
func BuildPayload(question string, contextBridge bool, pack *ContextPack) Payload {
	if !contextBridge || pack == nil {
		return Payload{Question: question}
	}
	return Payload{Question: question, ContextPack: SerializePack(pack)}
}

// SerializePack converts a ContextPack to its wire shape.
func SerializePack(pack *ContextPack) *SerializedPack {
	if pack == nil {
		return nil
	}
	serialized := make([]SerializedSnippet, len(pack.Snippets))
	for i, s := range pack.Snippets {
		serialized[i] = SerializedSnippet{
			Path: s.Path, StartLine: s.StartLine, EndLine: s.EndLine, Content: s.Content,
		}
	}
	return &SerializedPack{
		Facts:    pack.Facts,
		Snippets: serialized,
		Meta:     pack.Meta,
	}
}

// CanonicalJSON serializes v as JSON with lexicographically sorted keys at
// every depth, UTF-8 encoding (non-ASCII left un-escaped), and no
// insignificant whitespace — the signing representation shared by every
// candidate in a run.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encodeCanonical(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encodeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		// json.Encoder always appends a trailing newline; trim it back off.
		var tmp bytes.Buffer
		tmpEnc := json.NewEncoder(&tmp)
		tmpEnc.SetEscapeHTML(false)
		if err := tmpEnc.Encode(val); err != nil {
			return err
		}
		buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	}
	return nil
}

// PayloadSignature returns the lowercase hex SHA-256 of the payload's
// canonical JSON serialization. The same signature must attach to every
// result in a run.
func PayloadSignature(p Payload) (string, error) {
	canon, err := CanonicalJSON(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}
