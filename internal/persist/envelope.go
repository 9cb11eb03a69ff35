package persist

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"habitquest/internal/state"
)

const (
	// SchemaVersion is the document layout this build writes.
	SchemaVersion = "2.0.0"
	// LegacyVersion is assumed for bare documents stored without an
	// envelope.
	LegacyVersion = "1.0.0"

	DefaultKey = "habitquest_data"
)

// Envelope is the stored form of a document.
type Envelope struct {
	Version     string          `json:"version"`
	LastSaved   time.Time       `json:"lastSaved"`
	Checksum    string          `json:"checksum"`
	Compression string          `json:"compression,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	Payload     string          `json:"payload,omitempty"`
}

// sealEnvelope builds the stored string for docJSON. When c is set and
// docJSON exceeds threshold, the payload is compressed; compressor
// failures fall back to plain data.
func sealEnvelope(docJSON []byte, version string, at time.Time, c Compressor, threshold int) (string, error) {
	env := Envelope{
		Version:   version,
		LastSaved: at.UTC(),
		Checksum:  Checksum(docJSON),
	}
	if c != nil && threshold >= 0 && len(docJSON) > threshold {
		if packed, err := c.Compress(docJSON); err == nil {
			env.Compression = c.Name()
			env.Payload = base64.StdEncoding.EncodeToString(packed)
		}
	}
	if env.Payload == "" {
		env.Data = docJSON
	}
	out, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// openEnvelope extracts the document JSON and version from a stored value,
// verifying the checksum. Bare documents are accepted as LegacyVersion.
func openEnvelope(raw string) (docJSON []byte, version string, err error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, "", &Error{Kind: KindCorrupt, Op: "decode", Err: err}
	}
	_, hasData := probe["data"]
	_, hasPayload := probe["payload"]
	if _, ok := probe["version"]; !ok || (!hasData && !hasPayload) {
		return []byte(raw), LegacyVersion, nil
	}

	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, "", &Error{Kind: KindCorrupt, Op: "decode", Err: err}
	}
	docJSON = env.Data
	if env.Payload != "" {
		c, err := CompressorByName(env.Compression)
		if err != nil || c == nil {
			return nil, "", &Error{Kind: KindCorrupt, Op: "decode", Err: fmt.Errorf("payload compression %q", env.Compression)}
		}
		packed, err := base64.StdEncoding.DecodeString(env.Payload)
		if err != nil {
			return nil, "", &Error{Kind: KindCorrupt, Op: "decode", Err: err}
		}
		if docJSON, err = c.Decompress(packed); err != nil {
			return nil, "", &Error{Kind: KindCorrupt, Op: "decode", Err: err}
		}
	}
	if env.Checksum != Checksum(docJSON) {
		return nil, "", &Error{Kind: KindCorrupt, Op: "decode", Err: errors.New("checksum mismatch")}
	}
	return docJSON, env.Version, nil
}

// decodeDocument turns document JSON into a validated document.
func decodeDocument(docJSON []byte) (state.Document, error) {
	doc, err := state.Decode(docJSON)
	if err == nil {
		return doc, nil
	}
	var ve *state.ValidationError
	if errors.As(err, &ve) {
		return state.Document{}, &Error{Kind: KindValidationFailed, Op: "decode", Err: err}
	}
	return state.Document{}, &Error{Kind: KindCorrupt, Op: "decode", Err: err}
}
