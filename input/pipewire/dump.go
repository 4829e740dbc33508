package pipewire

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

type pwObjectID int64

type pwObjectType string

const (
	pwInterfaceNode pwObjectType = "PipeWire:Interface:Node"
	pwInterfacePort pwObjectType = "PipeWire:Interface:Port"
)

// Media classes of the nodes we can record from.
const (
	pwAudioSource       = "Audio/Source"
	pwAudioSink         = "Audio/Sink"
	pwStreamOutputAudio = "Stream/Output/Audio"
)

type pwPortDirection string

const pwPortIn pwPortDirection = "in"

// pwObject is one entry of pw-dump. Only the props we read are decoded; the
// raw props are kept to match our own session properties.
type pwObject struct {
	ID   pwObjectID   `json:"id"`
	Type pwObjectType `json:"type"`
	Info struct {
		Props pwProps `json:"props"`
	} `json:"info"`
}

type pwProps struct {
	MediaClass    string          `json:"media.class"`
	NodeName      string          `json:"node.name"`
	NodeID        pwObjectID      `json:"node.id"`
	PortName      string          `json:"port.name"`
	PortDirection pwPortDirection `json:"port.direction"`

	JSON json.RawMessage `json:"-"`
}

func (p *pwProps) UnmarshalJSON(data []byte) error {
	type plain pwProps
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	p.JSON = append(json.RawMessage(nil), data...)
	return nil
}

type pwObjects []pwObject

func pwDump(ctx context.Context) (pwObjects, error) {
	out, err := runTool(ctx, "pw-dump")
	if err != nil {
		return nil, err
	}

	return parseDump(out)
}

func parseDump(data []byte) (pwObjects, error) {
	var objs pwObjects
	if err := json.Unmarshal(data, &objs); err != nil {
		return nil, errors.Wrap(err, "failed to parse pw-dump output")
	}

	return objs, nil
}

// Filter returns the objects that satisfy every fn.
func (objs pwObjects) Filter(fns ...func(pwObject) bool) pwObjects {
	out := make(pwObjects, 0, len(objs))
next:
	for _, obj := range objs {
		for _, fn := range fns {
			if !fn(obj) {
				continue next
			}
		}
		out = append(out, obj)
	}
	return out
}

// Find returns the first object that satisfies fn, or nil.
func (objs pwObjects) Find(fn func(pwObject) bool) *pwObject {
	for i := range objs {
		if fn(objs[i]) {
			return &objs[i]
		}
	}
	return nil
}

// Ports returns the ports of node going in dir.
func (objs pwObjects) Ports(node *pwObject, dir pwPortDirection) pwObjects {
	return objs.Filter(func(o pwObject) bool {
		return o.Type == pwInterfacePort &&
			o.Info.Props.NodeID == node.ID &&
			o.Info.Props.PortDirection == dir
	})
}
