package eventbus

import (
	"log"

	"github.com/n0remac/sfu-control-plane/internal/session"
)

// HubEmitter adapts a Hub to session.Emitter, converting each
// StreamDelta into its wire Message and publishing the encoded frame.
type HubEmitter struct {
	Hub *Hub
}

// Emit implements session.Emitter.
func (e HubEmitter) Emit(d session.StreamDelta) {
	msg, err := toMessage(d)
	if err != nil {
		log.Printf("[eventbus] dropping delta %+v: %v", d, err)
		return
	}
	raw, err := Encode(msg)
	if err != nil {
		log.Printf("[eventbus] encode failed for %+v: %v", d, err)
		return
	}
	e.Hub.Publish(raw)
}

func toMessage(d session.StreamDelta) (Message, error) {
	switch d.API {
	case "add_stream":
		return Message{API: APIAddStream, AddStream: &AddStream{
			MID: uint32(d.Meeting), SIP: d.SIP, SPort: d.SPort, SSRC: d.SSRC,
			SSRCRtx: d.SSRCRtx, DIP: d.DIP, DPort: d.DPort, EPort: d.EgressPort,
		}}, nil
	case "remove_stream":
		return Message{API: APIRemoveStream, RemoveStream: &RemoveStream{
			MID: uint32(d.Meeting), SIP: d.SIP, SPort: d.SPort, SSRC: d.SSRC,
			SSRCRtx: d.SSRCRtx, DIP: d.DIP, DPort: d.DPort,
		}}, nil
	case "set_quality":
		return Message{API: APISetQuality, SetQuality: &SetQuality{
			MID: uint32(d.Meeting), SIP: d.SIP, SPort: d.SPort, SSRC: d.SSRC,
			DIP: d.DIP, DPort: d.DPort, Quality: string(d.Quality),
		}}, nil
	default:
		return Message{}, errUnknownDeltaAPI(d.API)
	}
}

type errUnknownDeltaAPI string

func (e errUnknownDeltaAPI) Error() string { return "eventbus: unknown delta api " + string(e) }

// PublishUpdateAV1SVCStructure broadcasts an update_av1_svc_structure
// control message to every connected RM. Unlike add_stream/
// remove_stream/set_quality, this message carries no per-stream
// session.StreamDelta: it is a standalone operator/config action on
// the AV1 SVC structure name, so it is published directly against the
// Hub rather than routed through session.Emitter.
func PublishUpdateAV1SVCStructure(hub *Hub, structure string) error {
	raw, err := Encode(Message{
		API:                   APIUpdateAV1SVCStructure,
		UpdateAV1SVCStructure: &UpdateAV1SVCStructure{Structure: structure},
	})
	if err != nil {
		return err
	}
	hub.Publish(raw)
	return nil
}
