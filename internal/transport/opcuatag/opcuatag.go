// Package opcuatag connects to an OPC UA server (e.g. PLCSIM Advanced or a
// real S7 CPU) and exposes two or more DB variables as named tags. Tag names
// are resolved to NodeIDs once at dial time; the resulting session reads and
// writes the Value attribute as a float.
package opcuatag

import (
	"context"
	"fmt"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/argonur/S7PLC-PID-simulation/internal/transport"
)

// Dialer connects to one OPC UA endpoint. Tags maps a logical tag name
// (e.g. "MV") to its NodeID string (e.g. `ns=3;s="PID_SIM_DB"."MV"`).
type Dialer struct {
	Endpoint string
	Tags     map[string]string
}

// Dial establishes the session and resolves all configured tags. Any
// failure, including an unparseable NodeID, leaves no connection behind.
func (d *Dialer) Dial(ctx context.Context) (transport.Session, error) {
	nodes := make(map[string]*ua.NodeID, len(d.Tags))
	for tag, raw := range d.Tags {
		id, err := ua.ParseNodeID(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing node id %q for tag %s: %w", raw, tag, err)
		}
		nodes[tag] = id
	}

	c, err := opcua.NewClient(d.Endpoint, opcua.SecurityMode(ua.MessageSecurityModeNone))
	if err != nil {
		return nil, fmt.Errorf("creating client for %s: %w", d.Endpoint, err)
	}
	if err := c.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", d.Endpoint, err)
	}

	return &session{c: c, nodes: nodes, wide: make(map[string]bool)}, nil
}

type session struct {
	c     *opcua.Client
	nodes map[string]*ua.NodeID

	// wide records, per tag, whether the server reported the value as a
	// 64-bit float on read. S7 REALs are 32-bit, so writes default to
	// float32 unless a read has shown otherwise.
	wide map[string]bool
}

func (s *session) node(tag string) (*ua.NodeID, error) {
	id, ok := s.nodes[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %s", transport.ErrUnknownTag, tag)
	}
	return id, nil
}

func (s *session) Read(ctx context.Context, tag string) (float64, error) {
	id, err := s.node(tag)
	if err != nil {
		return 0, err
	}

	req := &ua.ReadRequest{
		MaxAge: 2000,
		NodesToRead: []*ua.ReadValueID{
			{NodeID: id, AttributeID: ua.AttributeIDValue},
		},
		TimestampsToReturn: ua.TimestampsToReturnBoth,
	}
	resp, err := s.c.Read(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", tag, err)
	}
	if len(resp.Results) == 0 || resp.Results[0].Value == nil {
		return 0, fmt.Errorf("reading %s: empty result", tag)
	}
	dv := resp.Results[0]
	if dv.Status != ua.StatusOK {
		return 0, fmt.Errorf("reading %s: status %v", tag, dv.Status)
	}

	v, wide, err := toFloat(dv.Value)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", tag, err)
	}
	s.wide[tag] = wide
	return v, nil
}

func (s *session) Write(ctx context.Context, tag string, value float64) error {
	id, err := s.node(tag)
	if err != nil {
		return err
	}

	var raw interface{} = float32(value)
	if s.wide[tag] {
		raw = value
	}
	v, err := ua.NewVariant(raw)
	if err != nil {
		return fmt.Errorf("writing %s: %w", tag, err)
	}

	req := &ua.WriteRequest{
		NodesToWrite: []*ua.WriteValue{
			{
				NodeID:      id,
				AttributeID: ua.AttributeIDValue,
				Value: &ua.DataValue{
					EncodingMask: ua.DataValueValue,
					Value:        v,
				},
			},
		},
	}
	resp, err := s.c.Write(ctx, req)
	if err != nil {
		return fmt.Errorf("writing %s: %w", tag, err)
	}
	if len(resp.Results) == 0 {
		return fmt.Errorf("writing %s: empty result", tag)
	}
	if resp.Results[0] != ua.StatusOK {
		return fmt.Errorf("writing %s: status %v", tag, resp.Results[0])
	}
	return nil
}

func (s *session) Close(ctx context.Context) error {
	return s.c.Close(ctx)
}

// toFloat converts the variant types an S7 OPC UA server plausibly serves
// for an analog value. The bool reports whether the value was a float64.
func toFloat(v *ua.Variant) (float64, bool, error) {
	switch x := v.Value().(type) {
	case float32:
		return float64(x), false, nil
	case float64:
		return x, true, nil
	case int16:
		return float64(x), false, nil
	case int32:
		return float64(x), false, nil
	case int64:
		return float64(x), false, nil
	case uint16:
		return float64(x), false, nil
	case uint32:
		return float64(x), false, nil
	default:
		return 0, false, fmt.Errorf("unsupported value type %T", x)
	}
}
