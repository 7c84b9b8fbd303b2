package protocol

// FrameKind discriminates frames on a remote host connection.
type FrameKind string

const (
	// Client to server.
	FrameCall       FrameKind = "call"
	FrameConnect    FrameKind = "connect"
	FrameDisconnect FrameKind = "disconnect"
	FrameTick       FrameKind = "tick"

	// Server to client. FrameResult answers the request with the same ID;
	// FrameNotification may arrive at any time before it.
	FrameResult       FrameKind = "result"
	FrameNotification FrameKind = "notification"
)

// Frame is one JSON message on the wire.
type Frame struct {
	Kind         FrameKind          `json:"kind"`
	ID           uint64             `json:"id,omitempty"`
	Call         *CallFrame         `json:"call,omitempty"`
	Connect      *ConnectFrame      `json:"connect,omitempty"`
	Result       *Value             `json:"result,omitempty"`
	Error        *Error             `json:"error,omitempty"`
	Notification *NotificationFrame `json:"notification,omitempty"`
	// Conn names a notification connection: set on connect results,
	// disconnect requests and notifications.
	Conn string `json:"conn,omitempty"`
}

// CallFrame carries a host.Call.
type CallFrame struct {
	Bus       string  `json:"bus"`
	Method    string  `json:"method"`
	Address   *Value  `json:"address,omitempty"`
	Args      []Value `json:"args,omitempty"`
	Broadcast bool    `json:"broadcast,omitempty"`
}

// ConnectFrame asks for notifications of one bus. A nil Address subscribes
// to every address.
type ConnectFrame struct {
	Bus     string `json:"bus"`
	Address *Value `json:"address,omitempty"`
}

// NotificationFrame carries a host.Notification.
type NotificationFrame struct {
	Bus      string  `json:"bus"`
	Address  *Value  `json:"address,omitempty"`
	Callback string  `json:"callback"`
	Args     []Value `json:"args,omitempty"`
}
