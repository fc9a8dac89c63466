package block

// HttpRequestSettings configures the one HttpRequest variant: spec.md §4.C's
// most load-bearing block. TlsClient ("sidecar" | "inproc") is decoded but
// no handler reads it: the CLI picks one backend for the whole run (the
// embedded client when the runner config's sidecar_binary_path is empty,
// the fingerprinting child process otherwise), and a block cannot switch
// itself onto the other one. Both speak the same sidecar.Request/Response
// shape.
type HttpRequestSettings struct {
	Method          string
	URL             string
	Headers         [][2]string // declared order preserved
	Body            string
	CustomCookies   string // one "name=value" per line, folded into a single Cookie header
	TimeoutMs       int64
	FollowRedirects bool
	MaxRedirects    int64
	SslVerify       bool
	Proxy           string
	TlsClient       string // "sidecar" | "inproc"
	Browser         string
	OverrideJA3     string
	OverrideHTTP2FP string
	CustomCiphers   string
	OutputPrefix    string // default "SOURCE"
}

func (HttpRequestSettings) blockSettings() {}

// ParseMode selects the extraction strategy for a Parse block.
type ParseMode string

const (
	ParseModeLR     ParseMode = "LR"
	ParseModeRegex  ParseMode = "Regex"
	ParseModeJSON   ParseMode = "JSON"
	ParseModeCSS    ParseMode = "CSS"
	ParseModeXPath  ParseMode = "XPath"
	ParseModeCookie ParseMode = "Cookie"
	ParseModeLambda ParseMode = "Lambda"
)

// ParseSettings backs both the unified Parse block and the legacy
// per-mode ParseLR/ParseRegex/ParseJSON/ParseCSS/ParseXPath/ParseCookie
// variants — those set Mode implicitly from their block_type tag at load
// time and otherwise share this exact payload shape.
type ParseSettings struct {
	Mode ParseMode

	InputVar  string
	OutputVar string
	Capture   bool

	// LR
	LeftDelim  string
	RightDelim string
	Recursive  bool

	// Regex
	Pattern      string
	OutputFormat string // supports $1..$9 group references

	// JSON / XPath / CSS
	Path     string
	Selector string
	Attr     string // CSS/XPath attribute to read instead of text content

	// Cookie
	CookieName string

	// Lambda
	LambdaExpr string
}

func (ParseSettings) blockSettings() {}
