// Package telemetry maintains named runtime-state records and publishes
// snapshots of them, one JSON line per publication, to a sink writer.
// Publication is decoupled from control timing: a component registers its
// record once and invokes the returned function whenever it wants the
// current contents emitted.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Registry binds named records to a snapshot sink.
type Registry struct {
	mu    sync.Mutex
	enc   *json.Encoder
	names map[string]bool
}

// envelope is the wire form of one snapshot line.
type envelope struct {
	Name string `json:"name"`
	Data any    `json:"data"`
}

// NewRegistry creates a registry writing snapshot lines to w. Pass
// io.Discard to run without a telemetry sink.
func NewRegistry(w io.Writer) *Registry {
	return &Registry{
		enc:   json.NewEncoder(w),
		names: make(map[string]bool),
	}
}

// Register binds a record under a unique name and returns the function
// that publishes it. The record is held by reference: each publication
// encodes its contents at that moment. Snapshot writes are serialized
// across records; a failed write drops that snapshot rather than
// propagating into the control path.
func (r *Registry) Register(name string, record any) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.names[name] {
		return nil, fmt.Errorf("telemetry record %q already registered", name)
	}
	r.names[name] = true

	publish := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		_ = r.enc.Encode(envelope{Name: name, Data: record})
	}
	return publish, nil
}
