package block

// WebhookSettings posts a templated body to an external endpoint through a
// plain net/http client, not the sidecar transport; the response is awaited
// but not interpreted.
type WebhookSettings struct {
	URL           string
	Method        string
	Headers       [][2]string
	BodyTemplate  string
	CustomCookies string
}

func (WebhookSettings) blockSettings() {}

// WebSocketSettings opens a WebSocket connection, sends Message, and
// collects frames until Timeout or a frame matching CloseOnPattern arrives.
type WebSocketSettings struct {
	URL            string
	Message        string
	TimeoutMs      int64
	CloseOnPattern string
	OutputVar      string
	Capture        bool
}

func (WebSocketSettings) blockSettings() {}

// TcpRequestSettings opens a raw (optionally TLS) TCP connection, writes
// Payload, and reads until Timeout or ReadUntil is seen.
type TcpRequestSettings struct {
	Host      string
	Port      int
	UseTLS    bool
	SslVerify bool
	Payload   string
	ReadUntil string
	TimeoutMs int64
	OutputVar string
	Capture   bool
}

func (TcpRequestSettings) blockSettings() {}

// UdpRequestSettings sends one UDP datagram and waits for one reply.
type UdpRequestSettings struct {
	Host      string
	Port      int
	Payload   string
	TimeoutMs int64
	OutputVar string
	Capture   bool
}

func (UdpRequestSettings) blockSettings() {}
