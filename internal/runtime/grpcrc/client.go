package grpcrc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/n0remac/sfu-control-plane/internal/runtime"
)

// RuntimeClient is a runtime.Client backed by a gRPC connection to a
// remote table-programming agent, the network-attached counterpart to
// runtime.Simulated.
type RuntimeClient struct {
	cc *grpc.ClientConn
}

// NewRuntimeClient wraps an already-dialed connection. Callers own cc's
// lifecycle (dial with insecure.NewCredentials() for the localhost
// deployment this control plane targets).
func NewRuntimeClient(cc *grpc.ClientConn) *RuntimeClient {
	return &RuntimeClient{cc: cc}
}

var _ runtime.Client = (*RuntimeClient)(nil)

func (c *RuntimeClient) call(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	fullMethod := fmt.Sprintf("/%s/%s", ServiceDesc.ServiceName, method)
	if err := c.cc.Invoke(ctx, fullMethod, req, out); err != nil {
		return nil, fmt.Errorf("%w: %v", runtime.ErrRuntimeFailure, err)
	}
	return out, nil
}

func (c *RuntimeClient) LoadTable(ctx context.Context, table string) error {
	req, _ := structpb.NewStruct(map[string]interface{}{"table": table})
	_, err := c.call(ctx, "LoadTable", req)
	return err
}

func (c *RuntimeClient) Add(ctx context.Context, table string, e runtime.Entry) error {
	entry, err := encodeEntry(e)
	if err != nil {
		return err
	}
	req, _ := structpb.NewStruct(map[string]interface{}{"table": table, "entry": entry.AsMap()})
	_, err = c.call(ctx, "Add", req)
	return err
}

func (c *RuntimeClient) Modify(ctx context.Context, table string, e runtime.Entry) error {
	entry, err := encodeEntry(e)
	if err != nil {
		return err
	}
	req, _ := structpb.NewStruct(map[string]interface{}{"table": table, "entry": entry.AsMap()})
	_, err = c.call(ctx, "Modify", req)
	return err
}

func (c *RuntimeClient) Delete(ctx context.Context, table string, m runtime.Match) error {
	match, err := encodeMatch(m)
	if err != nil {
		return err
	}
	req, _ := structpb.NewStruct(map[string]interface{}{"table": table, "match": match.AsMap()["match"]})
	_, err = c.call(ctx, "Delete", req)
	return err
}

func (c *RuntimeClient) Get(ctx context.Context, table string, m runtime.Match) (runtime.Action, error) {
	match, err := encodeMatch(m)
	if err != nil {
		return runtime.Action{}, err
	}
	req, _ := structpb.NewStruct(map[string]interface{}{"table": table, "match": match.AsMap()["match"]})
	resp, err := c.call(ctx, "Get", req)
	if err != nil {
		return runtime.Action{}, err
	}
	if found, ok := resp.AsMap()["found"].(bool); ok && !found {
		return runtime.Action{}, runtime.ErrNotFound
	}
	entryStruct, err := structpb.NewStruct(map[string]interface{}{
		"match":  resp.AsMap()["match"],
		"action": resp.AsMap()["action"],
	})
	if err != nil {
		return runtime.Action{}, err
	}
	entry, err := decodeEntry(entryStruct)
	if err != nil {
		return runtime.Action{}, err
	}
	return entry.Action, nil
}

func (c *RuntimeClient) GetAll(ctx context.Context, table string) ([]runtime.Entry, error) {
	req, _ := structpb.NewStruct(map[string]interface{}{"table": table})
	resp, err := c.call(ctx, "GetAll", req)
	if err != nil {
		return nil, err
	}
	rows, _ := resp.AsMap()["entries"].([]interface{})
	out := make([]runtime.Entry, 0, len(rows))
	for _, row := range rows {
		m, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		s, err := structpb.NewStruct(m)
		if err != nil {
			return nil, err
		}
		entry, err := decodeEntry(s)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func (c *RuntimeClient) FlushTable(ctx context.Context, table string) error {
	req, _ := structpb.NewStruct(map[string]interface{}{"table": table})
	_, err := c.call(ctx, "FlushTable", req)
	return err
}
