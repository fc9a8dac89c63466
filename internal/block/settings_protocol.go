package block

// FtpRequestSettings runs an FTP auth exchange plus one command (e.g. LIST,
// RETR <path>), recording the transcript into OutputVar.
type FtpRequestSettings struct {
	Host      string
	Port      int
	User      string
	Pass      string
	Command   string
	TimeoutMs int64
	OutputVar string
	Capture   bool
}

func (FtpRequestSettings) blockSettings() {}

// SshRequestSettings runs an SSH banner exchange and, if Command is set, an
// authenticated command execution.
type SshRequestSettings struct {
	Host      string
	Port      int
	User      string
	Pass      string
	Command   string
	TimeoutMs int64
	OutputVar string
	Capture   bool
}

func (SshRequestSettings) blockSettings() {}

// ImapRequestSettings runs LOGIN followed by one of SELECT/FETCH/SEARCH.
type ImapRequestSettings struct {
	Host       string
	Port       int
	UseTLS     bool
	User       string
	Pass       string
	Op         string // "SELECT" | "FETCH" | "SEARCH"
	Mailbox    string
	Query      string
	TimeoutMs  int64
	OutputVar  string
	Capture    bool
}

func (ImapRequestSettings) blockSettings() {}

// SmtpRequestSettings runs EHLO + AUTH LOGIN and, if To is non-empty, sends
// a message. Synthetic status codes follow the protocol (235 auth ok, 535
// auth failure).
type SmtpRequestSettings struct {
	Host      string
	Port      int
	UseTLS    bool
	User      string
	Pass      string
	From      string
	To        string
	Subject   string
	Body      string
	TimeoutMs int64
	OutputVar string
	Capture   bool
}

func (SmtpRequestSettings) blockSettings() {}

// PopRequestSettings runs USER/PASS followed by STAT and, if Retrieve is
// set, RETR <n>+DELE.
type PopRequestSettings struct {
	Host      string
	Port      int
	UseTLS    bool
	User      string
	Pass      string
	Retrieve  int // message number, 0 = skip
	Delete    bool
	TimeoutMs int64
	OutputVar string
	Capture   bool
}

func (PopRequestSettings) blockSettings() {}
