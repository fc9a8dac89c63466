package block

// ConversionOp enumerates ConversionFunction operations.
type ConversionOp string

const (
	ConvHexToString      ConversionOp = "HexToString"
	ConvStringToHex      ConversionOp = "StringToHex"
	ConvBase64ToString   ConversionOp = "Base64ToString"
	ConvStringToBase64   ConversionOp = "StringToBase64"
	ConvUtf16            ConversionOp = "Utf16"
	ConvBigInt           ConversionOp = "BigInt"
	ConvBinaryString     ConversionOp = "BinaryString"
	ConvReadableSize     ConversionOp = "ReadableSize"
	ConvNumberWords      ConversionOp = "NumberWords"
	ConvSvgToPng         ConversionOp = "SvgToPng"
	ConvIntToBytes       ConversionOp = "IntToBytes"
)

// ConversionFunctionSettings is a pure format-conversion mapping.
type ConversionFunctionSettings struct {
	Op        ConversionOp
	InputVar  string
	OutputVar string
	Capture   bool
}

func (ConversionFunctionSettings) blockSettings() {}

// DateOp enumerates DateFunction operations.
type DateOp string

const (
	DateNow             DateOp = "Now"
	DateFormatDate      DateOp = "FormatDate"
	DateParseDate       DateOp = "ParseDate"
	DateAddTime         DateOp = "AddTime"
	DateSubtractTime    DateOp = "SubtractTime"
	DateUnixTimestamp   DateOp = "UnixTimestamp"
	DateUnixToDate      DateOp = "UnixToDate"
	DateCurrentUnixMs   DateOp = "CurrentUnixTimeMs"
	DateCompute         DateOp = "Compute"
	DateRound           DateOp = "Round"
)

// DateFunctionSettings: InputVar/Format use Go's reference-time layout
// ("2006-01-02T15:04:05Z07:00") rather than strftime tokens, the idiomatic
// Go equivalent of the original's format string.
type DateFunctionSettings struct {
	Op        DateOp
	InputVar  string
	OutputVar string
	Capture   bool
	Format    string
	Amount    int64
	Unit      string // "s" | "m" | "h" | "d"
}

func (DateFunctionSettings) blockSettings() {}

// IntegerFunctionSettings performs an arithmetic op on two interpolated
// integer operands.
type IntegerFunctionSettings struct {
	Op        string // Add/Subtract/Multiply/Divide/Modulo/Min/Max/Random
	A, B      string
	OutputVar string
	Capture   bool
}

func (IntegerFunctionSettings) blockSettings() {}

// FloatFunctionSettings is IntegerFunctionSettings' floating-point twin.
type FloatFunctionSettings struct {
	Op        string
	A, B      string
	Precision int
	OutputVar string
	Capture   bool
}

func (FloatFunctionSettings) blockSettings() {}

// TimeFunctionSettings measures or sleeps for wall-clock durations.
type TimeFunctionSettings struct {
	Op        string // "Elapsed" | "Sleep"
	Ms        int64
	OutputVar string
	Capture   bool
}

func (TimeFunctionSettings) blockSettings() {}

// ByteArraySettings performs a byte-level transform over InputVar treated
// as a byte array encoded per Encoding. Op "reverse" reverses the bytes;
// "slice" and "xor" return the decoded bytes unchanged (the settings carry
// no range or key); there is no concat op.
type ByteArraySettings struct {
	Op        string
	InputVar  string
	Encoding  string // "hex" | "base64"
	OutputVar string
	Capture   bool
}

func (ByteArraySettings) blockSettings() {}

// DictionaryOp enumerates Dictionary operations.
type DictionarySettings struct {
	Op        string // Get/Set/Remove/Keys/Values/Has
	DictVar   string
	Key       string
	Value     string
	OutputVar string
	Capture   bool
}

func (DictionarySettings) blockSettings() {}

// GenerateGUIDSettings produces a UUID of the given Version.
type GenerateGUIDSettings struct {
	Version   int // 1, 4, or 5
	Namespace string // v5 only
	Name      string // v5 only
	OutputVar string
	Capture   bool
}

func (GenerateGUIDSettings) blockSettings() {}

// PhoneCountrySettings resolves a phone number's country metadata.
type PhoneCountrySettings struct {
	InputVar  string
	OutputVar string
	Capture   bool
}

func (PhoneCountrySettings) blockSettings() {}

// LambdaParserSettings evaluates a small expression language over the
// current variable snapshot (distinct from Parse's Lambda mode, which reads
// one input and writes one output: this variant can reference multiple
// variables in one expression).
type LambdaParserSettings struct {
	Expression string
	OutputVar  string
	Capture    bool
}

func (LambdaParserSettings) blockSettings() {}

// RandomDataType enumerates RandomData generators.
type RandomDataType string

const (
	RandomString        RandomDataType = "String"
	RandomUUID          RandomDataType = "Uuid"
	RandomNumber         RandomDataType = "Number"
	RandomEmail          RandomDataType = "Email"
	RandomFirstName      RandomDataType = "FirstName"
	RandomLastName       RandomDataType = "LastName"
	RandomFullName       RandomDataType = "FullName"
	RandomStreetAddress  RandomDataType = "StreetAddress"
	RandomCity           RandomDataType = "City"
	RandomState          RandomDataType = "State"
	RandomZipCode        RandomDataType = "ZipCode"
	RandomPhone          RandomDataType = "Phone"
	RandomDate           RandomDataType = "Date"
)

// RandomDataSettings generates synthetic test data of DataType.
type RandomDataSettings struct {
	DataType      RandomDataType
	OutputVar     string
	Capture       bool
	StringLength  int
	StringCharset string
	CustomChars   string
	NumberMin     int64
	NumberMax     int64
	NumberDecimal bool
	DateFormat    string
	DateMin       string
	DateMax       string
}

func (RandomDataSettings) blockSettings() {}
