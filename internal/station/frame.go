package station

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Frame kinds carried on the data channel.
const (
	FrameLine = "line"
	FrameBye  = "bye"
)

// Frame is one data-channel message from the speaker.
type Frame struct {
	Kind   string `msgpack:"kind"`
	Seq    uint64 `msgpack:"seq"`
	Text   string `msgpack:"text,omitempty"`
	SentAt int64  `msgpack:"sentAt"`
}

// Time returns when the speaker sent the frame.
func (f Frame) Time() time.Time {
	return time.UnixMilli(f.SentAt)
}

func EncodeFrame(f Frame) ([]byte, error) {
	return msgpack.Marshal(f)
}

func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	err := msgpack.Unmarshal(data, &f)
	return f, err
}
