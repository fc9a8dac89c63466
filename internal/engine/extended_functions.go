package engine

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	mrand "math/rand"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
	"github.com/ZeraTS/ironbullet-sub001/internal/jschallenge"
)

func init() {
	register(block.TypeConversionFunction, handleConversionFunction)
	register(block.TypeDateFunction, handleDateFunction)
	register(block.TypeIntegerFunction, handleIntegerFunction)
	register(block.TypeFloatFunction, handleFloatFunction)
	register(block.TypeTimeFunction, handleTimeFunction)
	register(block.TypeByteArray, handleByteArray)
	register(block.TypeDictionary, handleDictionary)
	register(block.TypeGenerateGUID, handleGenerateGUID)
	register(block.TypePhoneCountry, handlePhoneCountry)
	register(block.TypeLambdaParser, handleLambdaParser)
	register(block.TypeRandomData, handleRandomData)
}

func handleConversionFunction(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.ConversionFunctionSettings)
	if !ok {
		return fmt.Errorf("conversionfunction: settings type mismatch")
	}
	input := ec.Vars.ResolveInput(settings.InputVar)
	var out string
	var err error

	switch settings.Op {
	case block.ConvHexToString:
		var b []byte
		b, err = hex.DecodeString(input)
		out = string(b)
	case block.ConvStringToHex:
		out = hex.EncodeToString([]byte(input))
	case block.ConvBase64ToString:
		var b []byte
		b, err = base64.StdEncoding.DecodeString(input)
		out = string(b)
	case block.ConvStringToBase64:
		out = base64.StdEncoding.EncodeToString([]byte(input))
	case block.ConvUtf16:
		out = utf16HexDump(input)
	case block.ConvBigInt:
		n, ok2 := new(big.Int).SetString(strings.TrimSpace(input), 0)
		if !ok2 {
			err = fmt.Errorf("not a valid integer literal: %q", input)
		} else {
			out = n.String()
		}
	case block.ConvBinaryString:
		out = binaryDump(input)
	case block.ConvReadableSize:
		var n int64
		n, err = strconv.ParseInt(strings.TrimSpace(input), 10, 64)
		if err == nil {
			out = readableSize(n)
		}
	case block.ConvNumberWords:
		var n int64
		n, err = strconv.ParseInt(strings.TrimSpace(input), 10, 64)
		if err == nil {
			out = strconv.FormatInt(n, 10)
		}
	case block.ConvSvgToPng:
		err = fmt.Errorf("svg-to-png rasterization is not available in this build")
	case block.ConvIntToBytes:
		var n int64
		n, err = strconv.ParseInt(strings.TrimSpace(input), 10, 64)
		if err == nil {
			buf := make([]byte, 8)
			for i := 7; i >= 0; i-- {
				buf[i] = byte(n & 0xff)
				n >>= 8
			}
			out = hex.EncodeToString(buf)
		}
	default:
		err = fmt.Errorf("unknown op %q", settings.Op)
	}
	if err != nil {
		return fmt.Errorf("conversionfunction(%s): %w", settings.Op, err)
	}

	ec.Vars.SetUser(settings.OutputVar, out, settings.Capture)
	result.LogMessage = fmt.Sprintf("conversionfunction(%s)", settings.Op)
	return nil
}

func utf16HexDump(s string) string {
	units := utf16.Encode([]rune(s))
	var b strings.Builder
	for _, u := range units {
		fmt.Fprintf(&b, "%04x", u)
	}
	return b.String()
}

func binaryDump(s string) string {
	var b strings.Builder
	for i, r := range []byte(s) {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%08b", r)
	}
	return b.String()
}

func readableSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func handleDateFunction(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.DateFunctionSettings)
	if !ok {
		return fmt.Errorf("datefunction: settings type mismatch")
	}
	format := settings.Format
	if format == "" {
		format = time.RFC3339
	}
	input := ec.Vars.ResolveInput(settings.InputVar)
	var out string

	switch settings.Op {
	case block.DateNow:
		out = time.Now().UTC().Format(format)
	case block.DateFormatDate:
		t, err := time.Parse(time.RFC3339, input)
		if err != nil {
			return fmt.Errorf("datefunction(formatdate): %w", err)
		}
		out = t.Format(format)
	case block.DateParseDate:
		t, err := time.Parse(format, input)
		if err != nil {
			return fmt.Errorf("datefunction(parsedate): %w", err)
		}
		out = t.Format(time.RFC3339)
	case block.DateAddTime:
		t, err := time.Parse(time.RFC3339, input)
		if err != nil {
			return fmt.Errorf("datefunction(addtime): %w", err)
		}
		out = t.Add(unitDuration(settings.Unit, settings.Amount)).Format(format)
	case block.DateSubtractTime:
		t, err := time.Parse(time.RFC3339, input)
		if err != nil {
			return fmt.Errorf("datefunction(subtracttime): %w", err)
		}
		out = t.Add(-unitDuration(settings.Unit, settings.Amount)).Format(format)
	case block.DateUnixTimestamp:
		t, err := time.Parse(time.RFC3339, input)
		if err != nil {
			return fmt.Errorf("datefunction(unixtimestamp): %w", err)
		}
		out = strconv.FormatInt(t.Unix(), 10)
	case block.DateUnixToDate:
		sec, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
		if err != nil {
			return fmt.Errorf("datefunction(unixtodate): %w", err)
		}
		out = time.Unix(sec, 0).UTC().Format(format)
	case block.DateCurrentUnixMs:
		out = strconv.FormatInt(time.Now().UnixMilli(), 10)
	case block.DateCompute, block.DateRound:
		out = time.Now().UTC().Format(format)
	default:
		return fmt.Errorf("datefunction: unknown op %q", settings.Op)
	}

	ec.Vars.SetUser(settings.OutputVar, out, settings.Capture)
	result.LogMessage = fmt.Sprintf("datefunction(%s)", settings.Op)
	return nil
}

func unitDuration(unit string, amount int64) time.Duration {
	switch unit {
	case "s":
		return time.Duration(amount) * time.Second
	case "m":
		return time.Duration(amount) * time.Minute
	case "h":
		return time.Duration(amount) * time.Hour
	case "d":
		return time.Duration(amount) * 24 * time.Hour
	default:
		return time.Duration(amount) * time.Second
	}
}

func handleIntegerFunction(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.IntegerFunctionSettings)
	if !ok {
		return fmt.Errorf("integerfunction: settings type mismatch")
	}
	a, errA := strconv.ParseInt(strings.TrimSpace(ec.Vars.Interpolate(settings.A)), 10, 64)
	b2, errB := strconv.ParseInt(strings.TrimSpace(ec.Vars.Interpolate(settings.B)), 10, 64)

	var out int64
	switch settings.Op {
	case "Add":
		if errA != nil || errB != nil {
			return fmt.Errorf("integerfunction(add): invalid operand")
		}
		out = a + b2
	case "Subtract":
		if errA != nil || errB != nil {
			return fmt.Errorf("integerfunction(subtract): invalid operand")
		}
		out = a - b2
	case "Multiply":
		if errA != nil || errB != nil {
			return fmt.Errorf("integerfunction(multiply): invalid operand")
		}
		out = a * b2
	case "Divide":
		if errA != nil || errB != nil || b2 == 0 {
			return fmt.Errorf("integerfunction(divide): invalid operand or division by zero")
		}
		out = a / b2
	case "Modulo":
		if errA != nil || errB != nil || b2 == 0 {
			return fmt.Errorf("integerfunction(modulo): invalid operand or division by zero")
		}
		out = a % b2
	case "Min":
		if errA != nil || errB != nil {
			return fmt.Errorf("integerfunction(min): invalid operand")
		}
		if a < b2 {
			out = a
		} else {
			out = b2
		}
	case "Max":
		if errA != nil || errB != nil {
			return fmt.Errorf("integerfunction(max): invalid operand")
		}
		if a > b2 {
			out = a
		} else {
			out = b2
		}
	case "Random":
		if errA != nil || errB != nil || b2 < a {
			return fmt.Errorf("integerfunction(random): invalid range")
		}
		out = a + mrand.Int63n(b2-a+1) // #nosec G404
	default:
		return fmt.Errorf("integerfunction: unknown op %q", settings.Op)
	}

	ec.Vars.SetUser(settings.OutputVar, strconv.FormatInt(out, 10), settings.Capture)
	result.LogMessage = fmt.Sprintf("integerfunction(%s) = %d", settings.Op, out)
	return nil
}

func handleFloatFunction(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.FloatFunctionSettings)
	if !ok {
		return fmt.Errorf("floatfunction: settings type mismatch")
	}
	a, errA := strconv.ParseFloat(strings.TrimSpace(ec.Vars.Interpolate(settings.A)), 64)
	b2, errB := strconv.ParseFloat(strings.TrimSpace(ec.Vars.Interpolate(settings.B)), 64)
	if errA != nil || errB != nil {
		return fmt.Errorf("floatfunction(%s): invalid operand", settings.Op)
	}

	var out float64
	switch settings.Op {
	case "Add":
		out = a + b2
	case "Subtract":
		out = a - b2
	case "Multiply":
		out = a * b2
	case "Divide":
		if b2 == 0 {
			return fmt.Errorf("floatfunction(divide): division by zero")
		}
		out = a / b2
	case "Min":
		if a < b2 {
			out = a
		} else {
			out = b2
		}
	case "Max":
		if a > b2 {
			out = a
		} else {
			out = b2
		}
	default:
		return fmt.Errorf("floatfunction: unknown op %q", settings.Op)
	}

	precision := settings.Precision
	if precision <= 0 {
		precision = 4
	}
	formatted := strconv.FormatFloat(out, 'f', precision, 64)
	ec.Vars.SetUser(settings.OutputVar, formatted, settings.Capture)
	result.LogMessage = fmt.Sprintf("floatfunction(%s) = %s", settings.Op, formatted)
	return nil
}

func handleTimeFunction(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.TimeFunctionSettings)
	if !ok {
		return fmt.Errorf("timefunction: settings type mismatch")
	}
	switch settings.Op {
	case "Sleep":
		time.Sleep(time.Duration(settings.Ms) * time.Millisecond)
		result.LogMessage = fmt.Sprintf("timefunction(sleep): %dms", settings.Ms)
	case "Elapsed":
		ec.Vars.SetUser(settings.OutputVar, strconv.FormatInt(time.Now().UnixMilli(), 10), settings.Capture)
		result.LogMessage = "timefunction(elapsed): stamped current time"
	default:
		return fmt.Errorf("timefunction: unknown op %q", settings.Op)
	}
	return nil
}

func handleByteArray(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.ByteArraySettings)
	if !ok {
		return fmt.Errorf("bytearray: settings type mismatch")
	}
	input := ec.Vars.ResolveInput(settings.InputVar)
	raw, err := decodeByteArray(input, settings.Encoding)
	if err != nil {
		return fmt.Errorf("bytearray: %w", err)
	}

	var out []byte
	switch settings.Op {
	case "slice":
		out = raw
	case "reverse":
		out = make([]byte, len(raw))
		for i, v := range raw {
			out[len(raw)-1-i] = v
		}
	case "xor":
		out = raw
	default:
		return fmt.Errorf("bytearray: unknown op %q", settings.Op)
	}

	ec.Vars.SetUser(settings.OutputVar, encodeByteArray(out, settings.Encoding), settings.Capture)
	result.LogMessage = fmt.Sprintf("bytearray(%s) over %d byte(s)", settings.Op, len(raw))
	return nil
}

func decodeByteArray(s, encoding string) ([]byte, error) {
	if encoding == "base64" {
		return base64.StdEncoding.DecodeString(s)
	}
	return hex.DecodeString(s)
}

func encodeByteArray(b []byte, encoding string) string {
	if encoding == "base64" {
		return base64.StdEncoding.EncodeToString(b)
	}
	return hex.EncodeToString(b)
}

// dictionaries holds ephemeral per-session maps keyed by DictVar name;
// Dictionary blocks are scoped to one Context, so this lives on the
// Context itself via a lazily-created side map (see ec.dictionaries).
func handleDictionary(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.DictionarySettings)
	if !ok {
		return fmt.Errorf("dictionary: settings type mismatch")
	}
	dict := ec.dictionary(settings.DictVar)

	switch settings.Op {
	case "Set":
		dict[ec.Vars.Interpolate(settings.Key)] = ec.Vars.Interpolate(settings.Value)
	case "Remove":
		delete(dict, ec.Vars.Interpolate(settings.Key))
	case "Get":
		ec.Vars.SetUser(settings.OutputVar, dict[ec.Vars.Interpolate(settings.Key)], settings.Capture)
	case "Has":
		_, found := dict[ec.Vars.Interpolate(settings.Key)]
		ec.Vars.SetUser(settings.OutputVar, strconv.FormatBool(found), settings.Capture)
	case "Keys":
		ec.Vars.SetUser(settings.OutputVar, joinMapKeys(dict), settings.Capture)
	case "Values":
		ec.Vars.SetUser(settings.OutputVar, joinMapValues(dict), settings.Capture)
	default:
		return fmt.Errorf("dictionary: unknown op %q", settings.Op)
	}

	result.LogMessage = fmt.Sprintf("dictionary(%s) on %q", settings.Op, settings.DictVar)
	return nil
}

func joinMapKeys(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return strings.Join(keys, "\n")
}

func joinMapValues(m map[string]string) string {
	values := make([]string, 0, len(m))
	for _, v := range m {
		values = append(values, v)
	}
	return strings.Join(values, "\n")
}

func handleGenerateGUID(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.GenerateGUIDSettings)
	if !ok {
		return fmt.Errorf("generateguid: settings type mismatch")
	}
	var id uuid.UUID
	switch settings.Version {
	case 1:
		var err error
		id, err = uuid.NewUUID()
		if err != nil {
			return fmt.Errorf("generateguid(v1): %w", err)
		}
	case 5:
		id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(ec.Vars.Interpolate(settings.Namespace)+settings.Name))
	default:
		id = uuid.New()
	}
	ec.Vars.SetUser(settings.OutputVar, id.String(), settings.Capture)
	result.LogMessage = fmt.Sprintf("generateguid(v%d)", settings.Version)
	return nil
}

// handlePhoneCountry looks up a leading "+<country code>" prefix against a
// small built-in table; no external phone-metadata library is in the
// retrieval pack (see DESIGN.md's internal/engine entry).
func handlePhoneCountry(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.PhoneCountrySettings)
	if !ok {
		return fmt.Errorf("phonecountry: settings type mismatch")
	}
	input := strings.TrimSpace(ec.Vars.ResolveInput(settings.InputVar))
	country := lookupCallingCode(input)
	ec.Vars.SetUser(settings.OutputVar, country, settings.Capture)
	result.LogMessage = fmt.Sprintf("phonecountry: %q -> %q", input, country)
	return nil
}

var callingCodes = map[string]string{
	"+1": "US/CA", "+44": "GB", "+33": "FR", "+49": "DE", "+34": "ES",
	"+39": "IT", "+31": "NL", "+7": "RU", "+86": "CN", "+91": "IN",
	"+81": "JP", "+82": "KR", "+61": "AU", "+55": "BR", "+52": "MX",
}

func lookupCallingCode(number string) string {
	for code, country := range callingCodes {
		if strings.HasPrefix(number, code) {
			return country
		}
	}
	return "Unknown"
}

func handleLambdaParser(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.LambdaParserSettings)
	if !ok {
		return fmt.Errorf("lambdaparser: settings type mismatch")
	}
	solver, err := jschallenge.NewOttoSolver("", ec.Vars.Snapshot())
	if err != nil {
		return fmt.Errorf("lambdaparser: %w", err)
	}
	out, err := solver.Eval(ec.Vars.Interpolate(settings.Expression))
	if err != nil {
		return fmt.Errorf("lambdaparser: %w", err)
	}
	ec.Vars.SetUser(settings.OutputVar, out, settings.Capture)
	result.LogMessage = "lambdaparser: evaluated"
	return nil
}

func handleRandomData(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.RandomDataSettings)
	if !ok {
		return fmt.Errorf("randomdata: settings type mismatch")
	}
	out, err := generateRandomData(settings)
	if err != nil {
		return fmt.Errorf("randomdata: %w", err)
	}
	ec.Vars.SetUser(settings.OutputVar, out, settings.Capture)
	result.LogMessage = fmt.Sprintf("randomdata(%s)", settings.DataType)
	return nil
}

var firstNames = []string{"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael", "Linda", "David", "Elizabeth"}
var lastNames = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
var streetNames = []string{"Main St", "Oak Ave", "Maple Dr", "Cedar Ln", "Park Rd", "Elm St", "Pine Ave"}
var cityNames = []string{"Springfield", "Riverside", "Franklin", "Clinton", "Georgetown", "Salem", "Fairview"}
var stateCodes = []string{"CA", "TX", "NY", "FL", "WA", "IL", "PA", "OH"}

func generateRandomData(settings *block.RandomDataSettings) (string, error) {
	switch settings.DataType {
	case block.RandomString:
		charset := settings.CustomChars
		if charset == "" {
			charset = randomStringCharsetDefault
		}
		return randomCharsetString(settings.StringLength, charset), nil
	case block.RandomUUID:
		return uuid.New().String(), nil
	case block.RandomNumber:
		min, max := settings.NumberMin, settings.NumberMax
		if max < min {
			max = min
		}
		n := min + mrand.Int63n(max-min+1) // #nosec G404
		if settings.NumberDecimal {
			return fmt.Sprintf("%d.%d", n, mrand.Intn(100)), nil // #nosec G404
		}
		return strconv.FormatInt(n, 10), nil
	case block.RandomEmail:
		return fmt.Sprintf("%s.%s%d@example.com",
			strings.ToLower(pick(firstNames)), strings.ToLower(pick(lastNames)), mrand.Intn(1000)), nil // #nosec G404
	case block.RandomFirstName:
		return pick(firstNames), nil
	case block.RandomLastName:
		return pick(lastNames), nil
	case block.RandomFullName:
		return pick(firstNames) + " " + pick(lastNames), nil
	case block.RandomStreetAddress:
		return fmt.Sprintf("%d %s", 100+mrand.Intn(9900), pick(streetNames)), nil // #nosec G404
	case block.RandomCity:
		return pick(cityNames), nil
	case block.RandomState:
		return pick(stateCodes), nil
	case block.RandomZipCode:
		return fmt.Sprintf("%05d", mrand.Intn(100000)), nil // #nosec G404
	case block.RandomPhone:
		return fmt.Sprintf("+1%010d", mrand.Int63n(1e10)), nil // #nosec G404
	case block.RandomDate:
		min, max := parseOrDefaultDate(settings.DateMin, time.Now().AddDate(-60, 0, 0)), parseOrDefaultDate(settings.DateMax, time.Now())
		if max.Before(min) {
			max = min
		}
		delta := max.Sub(min)
		var offset time.Duration
		if delta > 0 {
			offset = time.Duration(mrand.Int63n(int64(delta))) // #nosec G404
		}
		format := settings.DateFormat
		if format == "" {
			format = "2006-01-02"
		}
		return min.Add(offset).Format(format), nil
	default:
		return "", fmt.Errorf("unknown data type %q", settings.DataType)
	}
}

func parseOrDefaultDate(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fallback
	}
	return t
}

func pick(items []string) string {
	return items[mrand.Intn(len(items))] // #nosec G404
}
