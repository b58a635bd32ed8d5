package transport

import (
	"strconv"

	"github.com/hypebeast/go-osc/osc"

	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

// Encode converts msg into an OSC message. Floats are narrowed to float32,
// the width surfaces expect.
func Encode(msg wire.Message, idInPath bool) *osc.Message {
	path := msg.Path
	args := make([]any, 0, 2)
	if idInPath {
		path += "/" + strconv.FormatUint(uint64(msg.SlotID), 10)
	} else {
		args = append(args, int32(msg.SlotID))
	}

	switch msg.Payload.Kind {
	case wire.KindFloat:
		args = append(args, float32(msg.Payload.Float))
	case wire.KindInt:
		args = append(args, msg.Payload.Int)
	case wire.KindText:
		args = append(args, msg.Payload.Text)
	}
	return osc.NewMessage(path, args...)
}
