// Package eventbus implements the JSON-over-WebSocket link between the
// session reconciler (server) and the rule materializer (client). Every
// message is a flat JSON object carrying an "api" discriminator.
package eventbus

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// API names the wire schemas, matching the SR/RM delta vocabulary.
type API string

const (
	APIAddStream             API = "add_stream"
	APIRemoveStream          API = "remove_stream"
	APISetQuality            API = "set_quality"
	APIUpdateAV1SVCStructure API = "update_av1_svc_structure"
)

// AddStream is the add_stream wire schema: mid, sip, sport, ssrc,
// ssrc_rtx, dip, dport, eport.
type AddStream struct {
	MID     uint32 `json:"mid"`
	SIP     string `json:"sip"`
	SPort   int    `json:"sport"`
	SSRC    uint32 `json:"ssrc"`
	SSRCRtx uint32 `json:"ssrc_rtx"`
	DIP     string `json:"dip"`
	DPort   int    `json:"dport"`
	EPort   int    `json:"eport"`
}

// RemoveStream is the remove_stream wire schema: mid, sip, sport, ssrc,
// ssrc_rtx, dip, dport.
type RemoveStream struct {
	MID     uint32 `json:"mid"`
	SIP     string `json:"sip"`
	SPort   int    `json:"sport"`
	SSRC    uint32 `json:"ssrc"`
	SSRCRtx uint32 `json:"ssrc_rtx"`
	DIP     string `json:"dip"`
	DPort   int    `json:"dport"`
}

// SetQuality is the set_quality wire schema: mid, sip, sport, ssrc,
// dip, dport, quality.
type SetQuality struct {
	MID     uint32 `json:"mid"`
	SIP     string `json:"sip"`
	SPort   int    `json:"sport"`
	SSRC    uint32 `json:"ssrc"`
	DIP     string `json:"dip"`
	DPort   int    `json:"dport"`
	Quality string `json:"quality"`
}

// UpdateAV1SVCStructure is the update_av1_svc_structure wire schema: structure.
type UpdateAV1SVCStructure struct {
	Structure string `json:"structure"`
}

// Message is a decoded event-bus frame: the api tag plus exactly one
// populated payload.
type Message struct {
	API                   API
	AddStream             *AddStream
	RemoveStream          *RemoveStream
	SetQuality            *SetQuality
	UpdateAV1SVCStructure *UpdateAV1SVCStructure
}

// ErrUnknownAPI is returned by Decode when the "api" field does not
// match a known schema.
type ErrUnknownAPI struct{ API string }

func (e *ErrUnknownAPI) Error() string { return fmt.Sprintf("eventbus: unknown api %q", e.API) }

// Decode extracts the "api" discriminator with gjson before committing
// to a typed json.Unmarshal, so a malformed or unrecognized frame never
// reaches a struct it wasn't shaped for.
func Decode(raw []byte) (Message, error) {
	tag := gjson.GetBytes(raw, "api")
	if !tag.Exists() {
		return Message{}, fmt.Errorf("eventbus: missing api field")
	}

	switch API(tag.String()) {
	case APIAddStream:
		var m AddStream
		if err := json.Unmarshal(raw, &m); err != nil {
			return Message{}, fmt.Errorf("eventbus: decode add_stream: %w", err)
		}
		return Message{API: APIAddStream, AddStream: &m}, nil
	case APIRemoveStream:
		var m RemoveStream
		if err := json.Unmarshal(raw, &m); err != nil {
			return Message{}, fmt.Errorf("eventbus: decode remove_stream: %w", err)
		}
		return Message{API: APIRemoveStream, RemoveStream: &m}, nil
	case APISetQuality:
		var m SetQuality
		if err := json.Unmarshal(raw, &m); err != nil {
			return Message{}, fmt.Errorf("eventbus: decode set_quality: %w", err)
		}
		return Message{API: APISetQuality, SetQuality: &m}, nil
	case APIUpdateAV1SVCStructure:
		var m UpdateAV1SVCStructure
		if err := json.Unmarshal(raw, &m); err != nil {
			return Message{}, fmt.Errorf("eventbus: decode update_av1_svc_structure: %w", err)
		}
		return Message{API: APIUpdateAV1SVCStructure, UpdateAV1SVCStructure: &m}, nil
	default:
		return Message{}, &ErrUnknownAPI{API: tag.String()}
	}
}

// Encode marshals whichever payload is set, injecting its api tag.
func Encode(m Message) ([]byte, error) {
	switch {
	case m.AddStream != nil:
		return marshalWithAPI(APIAddStream, m.AddStream)
	case m.RemoveStream != nil:
		return marshalWithAPI(APIRemoveStream, m.RemoveStream)
	case m.SetQuality != nil:
		return marshalWithAPI(APISetQuality, m.SetQuality)
	case m.UpdateAV1SVCStructure != nil:
		return marshalWithAPI(APIUpdateAV1SVCStructure, m.UpdateAV1SVCStructure)
	default:
		return nil, fmt.Errorf("eventbus: empty message")
	}
}

func marshalWithAPI(api API, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	tagged, err := json.Marshal(api)
	if err != nil {
		return nil, err
	}
	fields["api"] = tagged
	return json.Marshal(fields)
}
