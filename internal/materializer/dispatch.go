package materializer

import (
	"context"
	"fmt"

	"github.com/n0remac/sfu-control-plane/internal/eventbus"
)

// HandleMessage routes one decoded event-bus frame to the matching
// Materializer method. Unknown quality strings are rejected without
// touching hardware state.
func (m *Materializer) HandleMessage(ctx context.Context, msg eventbus.Message) error {
	switch msg.API {
	case eventbus.APIAddStream:
		a := msg.AddStream
		return m.AddStream(ctx, a.MID, a.SIP, a.SPort, a.SSRC, a.SSRCRtx, a.DIP, a.DPort, a.EPort)
	case eventbus.APIRemoveStream:
		r := msg.RemoveStream
		return m.RemoveStream(ctx, r.MID, r.SIP, r.SPort, r.SSRC, r.SSRCRtx, r.DIP, r.DPort)
	case eventbus.APISetQuality:
		q := msg.SetQuality
		quality, err := parseQuality(q.Quality)
		if err != nil {
			return err
		}
		return m.SetQuality(ctx, q.MID, q.SIP, q.SPort, q.SSRC, q.DIP, q.DPort, quality)
	case eventbus.APIUpdateAV1SVCStructure:
		return m.UpdateAV1SVCStructure(ctx, msg.UpdateAV1SVCStructure.Structure)
	default:
		return fmt.Errorf("materializer: unhandled api %q", msg.API)
	}
}

func parseQuality(s string) (Quality, error) {
	switch Quality(s) {
	case QualityBase, QualityMid, QualityHigh:
		return Quality(s), nil
	default:
		return "", fmt.Errorf("materializer: unknown quality %q", s)
	}
}
