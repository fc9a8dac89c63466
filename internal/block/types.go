// Package block defines the typed block AST that the pipeline engine walks:
// the Block envelope, its ~60 block_type variants, and the per-variant
// settings payloads (settings_*.go, grouped by family).
package block

// Type identifies a block's variant and, transitively, which Settings type
// its payload holds. The set is closed: internal/engine's dispatcher looks
// each Type up in its handler table and fails the block with an error when
// no handler is registered for it.
type Type string

const (
	TypeHttpRequest Type = "HttpRequest"

	// Parse family (mode carried in ParseSettings.Mode, plus legacy
	// per-mode aliases that share the same settings shape for backward
	// compatibility with older .rfx documents).
	TypeParse       Type = "Parse"
	TypeParseLR     Type = "ParseLR"
	TypeParseRegex  Type = "ParseRegex"
	TypeParseJSON   Type = "ParseJSON"
	TypeParseCSS    Type = "ParseCSS"
	TypeParseXPath  Type = "ParseXPath"
	TypeParseCookie Type = "ParseCookie"

	TypeKeyCheck Type = "KeyCheck"
	TypeIfElse   Type = "IfElse"
	TypeLoop     Type = "Loop"
	TypeGroup    Type = "Group"
	TypeDelay    Type = "Delay"
	TypeScript   Type = "Script"
	TypeLog      Type = "Log"

	TypeSetVariable  Type = "SetVariable"
	TypeClearCookies Type = "ClearCookies"

	// Function families.
	TypeStringFunction     Type = "StringFunction"
	TypeListFunction       Type = "ListFunction"
	TypeCryptoFunction     Type = "CryptoFunction"
	TypeConversionFunction Type = "ConversionFunction"
	TypeDateFunction       Type = "DateFunction"
	TypeIntegerFunction    Type = "IntegerFunction"
	TypeFloatFunction      Type = "FloatFunction"
	TypeTimeFunction       Type = "TimeFunction"
	TypeByteArray          Type = "ByteArray"
	TypeDictionary         Type = "Dictionary"
	TypeGenerateGUID       Type = "GenerateGUID"
	TypePhoneCountry       Type = "PhoneCountry"
	TypeLambdaParser       Type = "LambdaParser"
	TypeRandomData         Type = "RandomData"

	// Network/protocol family.
	TypeWebhook     Type = "Webhook"
	TypeWebSocket   Type = "WebSocket"
	TypeTcpRequest  Type = "TcpRequest"
	TypeUdpRequest  Type = "UdpRequest"
	TypeFtpRequest  Type = "FtpRequest"
	TypeSshRequest  Type = "SshRequest"
	TypeImapRequest Type = "ImapRequest"
	TypeSmtpRequest Type = "SmtpRequest"
	TypePopRequest  Type = "PopRequest"

	// Bypass family.
	TypeCaptchaSolver       Type = "CaptchaSolver"
	TypeCloudflareBypass    Type = "CloudflareBypass"
	TypeLaravelCsrf         Type = "LaravelCsrf"
	TypeRandomUserAgent     Type = "RandomUserAgent"
	TypeOcrCaptcha          Type = "OcrCaptcha"
	TypeRecaptchaInvisible  Type = "RecaptchaInvisible"
	TypeXacfSensor          Type = "XacfSensor"
	TypeDataDomeSensor      Type = "DataDomeSensor"
	TypeAkamaiV3Sensor      Type = "AkamaiV3Sensor"

	TypeCookieContainer Type = "CookieContainer"
	TypeCaseSwitch      Type = "CaseSwitch"
	TypeConstants       Type = "Constants"

	// Browser family.
	TypeBrowserOpen     Type = "BrowserOpen"
	TypeNavigateTo      Type = "NavigateTo"
	TypeClickElement    Type = "ClickElement"
	TypeTypeText        Type = "TypeText"
	TypeWaitForElement  Type = "WaitForElement"
	TypeGetElementText  Type = "GetElementText"
	TypeScreenshot      Type = "Screenshot"
	TypeExecuteJs       Type = "ExecuteJs"

	// FileSystem family.
	TypeCreatePath       Type = "CreatePath"
	TypeFileRead         Type = "FileRead"
	TypeFileWrite        Type = "FileWrite"
	TypeFileAppend       Type = "FileAppend"
	TypeFileCopy         Type = "FileCopy"
	TypeFileMove         Type = "FileMove"
	TypeFileDelete       Type = "FileDelete"
	TypeFileExists       Type = "FileExists"
	TypeFileReadLines    Type = "FileReadLines"
	TypeFileWriteLines   Type = "FileWriteLines"
	TypeFileReadBytes    Type = "FileReadBytes"
	TypeFileWriteBytes   Type = "FileWriteBytes"
	TypeFolderDelete     Type = "FolderDelete"
	TypeFolderExists     Type = "FolderExists"
	TypeGetFilesInFolder Type = "GetFilesInFolder"

	TypePlugin Type = "Plugin"
)

// Block is one pipeline step: an envelope around a Type-specific Settings
// payload plus the flags the executor consults before and after running it.
type Block struct {
	ID       string
	Type     Type
	Label    string
	Disabled bool
	SafeMode bool
	Settings Settings
}

// Settings is the marker interface every settings_*.go payload type
// implements, standing in for a tagged union (Go has no sum types): the
// concrete type a Block.Settings holds is determined by its Block.Type, and
// internal/engine type-switches on it.
type Settings interface {
	blockSettings()
}

// RequestSnapshot is the BlockResult.Request half of an HTTP-bearing block's
// result record.
type RequestSnapshot struct {
	Method  string
	URL     string
	Headers [][2]string
	Body    string
}

// ResponseSnapshot is the BlockResult.Response half.
type ResponseSnapshot struct {
	StatusCode int
	Headers    map[string]string
	Body       string
	FinalURL   string
	Cookies    map[string]string
	TimingMs   int64
}

// Result is one BlockResult: pushed as a stub before a block runs, then
// mutated with timing/variables/log once it completes (see spec.md §4.C
// step 2 — handlers may reference the in-flight stub, e.g. HttpRequest fills
// Request before the round trip and Response after).
type Result struct {
	BlockID        string
	BlockLabel     string
	BlockType      Type
	Success        bool
	TimingMs       int64
	VariablesAfter map[string]string
	LogMessage     string
	Request        *RequestSnapshot
	Response       *ResponseSnapshot
}

// NetworkEntry is one HTTP/browser-navigation observation appended to the
// Execution Context's network log.
type NetworkEntry struct {
	Method       string
	URL          string
	Status       int
	TimingMs     int64
	ResponseSize int
	CookiesSet   []string
	CookiesSent  []string
}
