// Package event defines the update notification received from the source.
package event

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/keboola/kv-relay/internal/pkg/utils/errors"
)

// json implements the standard library behavior, including base64 encoding of the payload.
// nolint: gochecknoglobals
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// UpdateEvent is a single notification about a new value of a key.
// Multiple events per key are expected, the latest value wins.
type UpdateEvent struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Payload []byte `json:"payload,omitempty"`
}

// Parse decodes an UpdateEvent from a source message.
func Parse(message []byte) (UpdateEvent, error) {
	var out UpdateEvent
	if err := json.Unmarshal(message, &out); err != nil {
		return out, errors.Wrap(err, "malformed update event")
	}
	if out.Key == "" {
		return out, errors.New("malformed update event: missing key")
	}
	return out, nil
}
