package grpcrc

import (
	"context"
	"errors"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/n0remac/sfu-control-plane/internal/runtime"
)

// Server adapts a runtime.Client (typically runtime.Simulated, or a
// driver wired to real hardware) to the RuntimeServer gRPC contract,
// the server-side mirror of RuntimeClient.
type Server struct {
	UnimplementedRuntimeServer
	backend runtime.Client
}

// NewServer builds a Server fronting backend.
func NewServer(backend runtime.Client) *Server {
	return &Server{backend: backend}
}

func tableOf(req *structpb.Struct) string {
	t, _ := req.AsMap()["table"].(string)
	return t
}

func (s *Server) LoadTable(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.backend.LoadTable(ctx, tableOf(req)); err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]interface{}{"ok": true})
}

func (s *Server) Add(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	entryRaw, _ := req.AsMap()["entry"].(map[string]interface{})
	entryStruct, err := structpb.NewStruct(entryRaw)
	if err != nil {
		return nil, err
	}
	entry, err := decodeEntry(entryStruct)
	if err != nil {
		return nil, err
	}
	if err := s.backend.Add(ctx, tableOf(req), entry); err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]interface{}{"ok": true})
}

func (s *Server) Modify(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	entryRaw, _ := req.AsMap()["entry"].(map[string]interface{})
	entryStruct, err := structpb.NewStruct(entryRaw)
	if err != nil {
		return nil, err
	}
	entry, err := decodeEntry(entryStruct)
	if err != nil {
		return nil, err
	}
	if err := s.backend.Modify(ctx, tableOf(req), entry); err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]interface{}{"ok": true})
}

func (s *Server) Delete(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	matchStruct, err := structpb.NewStruct(map[string]interface{}{"match": req.AsMap()["match"]})
	if err != nil {
		return nil, err
	}
	match, err := decodeMatch(matchStruct)
	if err != nil {
		return nil, err
	}
	if err := s.backend.Delete(ctx, tableOf(req), match); err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]interface{}{"ok": true})
}

func (s *Server) Get(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	matchStruct, err := structpb.NewStruct(map[string]interface{}{"match": req.AsMap()["match"]})
	if err != nil {
		return nil, err
	}
	match, err := decodeMatch(matchStruct)
	if err != nil {
		return nil, err
	}
	action, err := s.backend.Get(ctx, tableOf(req), match)
	if err != nil {
		if errors.Is(err, runtime.ErrNotFound) {
			return structpb.NewStruct(map[string]interface{}{"found": false})
		}
		return nil, err
	}
	entry, err := encodeEntry(runtime.Entry{Match: match, Action: action})
	if err != nil {
		return nil, err
	}
	m := entry.AsMap()
	m["found"] = true
	return structpb.NewStruct(m)
}

func (s *Server) GetAll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	entries, err := s.backend.GetAll(ctx, tableOf(req))
	if err != nil {
		return nil, err
	}
	rows := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		enc, err := encodeEntry(e)
		if err != nil {
			return nil, err
		}
		rows = append(rows, enc.AsMap())
	}
	return structpb.NewStruct(map[string]interface{}{"entries": rows})
}

func (s *Server) FlushTable(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.backend.FlushTable(ctx, tableOf(req)); err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]interface{}{"ok": true})
}
