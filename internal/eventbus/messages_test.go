package eventbus

import "testing"

func TestEncodeDecodeRoundTripAddStream(t *testing.T) {
	msg := Message{API: APIAddStream, AddStream: &AddStream{
		MID: 0, SIP: "10.0.211.2", SPort: 1111, SSRC: 110, SSRCRtx: 111,
		DIP: "10.0.211.2", DPort: 2222, EPort: 3,
	}}
	raw, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.API != APIAddStream || got.AddStream == nil {
		t.Fatalf("expected add_stream payload, got %+v", got)
	}
	if *got.AddStream != *msg.AddStream {
		t.Fatalf("round trip mismatch: got %+v want %+v", got.AddStream, msg.AddStream)
	}
}

func TestEncodeDecodeRoundTripUpdateAV1SVCStructure(t *testing.T) {
	msg := Message{API: APIUpdateAV1SVCStructure, UpdateAV1SVCStructure: &UpdateAV1SVCStructure{
		Structure: "L1T3",
	}}
	raw, err := Encode(msg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.API != APIUpdateAV1SVCStructure || got.UpdateAV1SVCStructure == nil {
		t.Fatalf("expected update_av1_svc_structure payload, got %+v", got)
	}
	if *got.UpdateAV1SVCStructure != *msg.UpdateAV1SVCStructure {
		t.Fatalf("round trip mismatch: got %+v want %+v", got.UpdateAV1SVCStructure, msg.UpdateAV1SVCStructure)
	}
}

func TestDecodeRejectsUnknownAPI(t *testing.T) {
	_, err := Decode([]byte(`{"api":"bogus"}`))
	if err == nil {
		t.Fatal("expected error for unknown api")
	}
	var unknown *ErrUnknownAPI
	if e, ok := err.(*ErrUnknownAPI); ok {
		unknown = e
	}
	if unknown == nil {
		t.Fatalf("expected *ErrUnknownAPI, got %T: %v", err, err)
	}
}

func TestDecodeRequiresAPIField(t *testing.T) {
	if _, err := Decode([]byte(`{"sip":"1.2.3.4"}`)); err == nil {
		t.Fatal("expected error for missing api field")
	}
}
