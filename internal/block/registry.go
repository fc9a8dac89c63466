package block

import "fmt"

// NewSettings returns a freshly zero-valued Settings payload for t, the
// concrete type a .rfx document's "settings" field must decode into for
// that block_type. It is the block-type side of the same register/lookup
// shape internal/engine's handler dispatch uses (dispatch.go's
// handlers map), kept here because Settings construction is block's
// concern, not engine's.
func NewSettings(t Type) (Settings, error) {
	switch t {
	case TypeHttpRequest:
		return &HttpRequestSettings{}, nil

	case TypeParse, TypeParseLR, TypeParseRegex, TypeParseJSON, TypeParseCSS, TypeParseXPath, TypeParseCookie:
		return &ParseSettings{}, nil

	case TypeKeyCheck:
		return &KeyCheckSettings{}, nil
	case TypeIfElse:
		return &IfElseSettings{}, nil
	case TypeLoop:
		return &LoopSettings{}, nil
	case TypeGroup:
		return &GroupSettings{}, nil
	case TypeDelay:
		return &DelaySettings{}, nil
	case TypeScript:
		return &ScriptSettings{}, nil
	case TypeLog:
		return &LogSettings{}, nil
	case TypeSetVariable:
		return &SetVariableSettings{}, nil
	case TypeClearCookies:
		return &ClearCookiesSettings{}, nil
	case TypeCaseSwitch:
		return &CaseSwitchSettings{}, nil
	case TypeConstants:
		return &ConstantsSettings{}, nil
	case TypeCookieContainer:
		return &CookieContainerSettings{}, nil

	case TypeStringFunction:
		return &StringFunctionSettings{}, nil
	case TypeListFunction:
		return &ListFunctionSettings{}, nil
	case TypeCryptoFunction:
		return &CryptoFunctionSettings{}, nil
	case TypeConversionFunction:
		return &ConversionFunctionSettings{}, nil
	case TypeDateFunction:
		return &DateFunctionSettings{}, nil
	case TypeIntegerFunction:
		return &IntegerFunctionSettings{}, nil
	case TypeFloatFunction:
		return &FloatFunctionSettings{}, nil
	case TypeTimeFunction:
		return &TimeFunctionSettings{}, nil
	case TypeByteArray:
		return &ByteArraySettings{}, nil
	case TypeDictionary:
		return &DictionarySettings{}, nil
	case TypeGenerateGUID:
		return &GenerateGUIDSettings{}, nil
	case TypePhoneCountry:
		return &PhoneCountrySettings{}, nil
	case TypeLambdaParser:
		return &LambdaParserSettings{}, nil
	case TypeRandomData:
		return &RandomDataSettings{}, nil

	case TypeWebhook:
		return &WebhookSettings{}, nil
	case TypeWebSocket:
		return &WebSocketSettings{}, nil
	case TypeTcpRequest:
		return &TcpRequestSettings{}, nil
	case TypeUdpRequest:
		return &UdpRequestSettings{}, nil
	case TypeFtpRequest:
		return &FtpRequestSettings{}, nil
	case TypeSshRequest:
		return &SshRequestSettings{}, nil
	case TypeImapRequest:
		return &ImapRequestSettings{}, nil
	case TypeSmtpRequest:
		return &SmtpRequestSettings{}, nil
	case TypePopRequest:
		return &PopRequestSettings{}, nil

	case TypeCaptchaSolver:
		return &CaptchaSolverSettings{}, nil
	case TypeCloudflareBypass:
		return &CloudflareBypassSettings{}, nil
	case TypeLaravelCsrf:
		return &LaravelCsrfSettings{}, nil
	case TypeRandomUserAgent:
		return &RandomUserAgentSettings{}, nil
	case TypeOcrCaptcha:
		return &OcrCaptchaSettings{}, nil
	case TypeRecaptchaInvisible:
		return &RecaptchaInvisibleSettings{}, nil
	case TypeXacfSensor:
		return &XacfSensorSettings{}, nil
	case TypeDataDomeSensor:
		return &DataDomeSensorSettings{}, nil
	case TypeAkamaiV3Sensor:
		return &AkamaiV3SensorSettings{}, nil

	case TypeBrowserOpen:
		return &BrowserOpenSettings{}, nil
	case TypeNavigateTo:
		return &NavigateToSettings{}, nil
	case TypeClickElement:
		return &ClickElementSettings{}, nil
	case TypeTypeText:
		return &TypeTextSettings{}, nil
	case TypeWaitForElement:
		return &WaitForElementSettings{}, nil
	case TypeGetElementText:
		return &GetElementTextSettings{}, nil
	case TypeScreenshot:
		return &ScreenshotSettings{}, nil
	case TypeExecuteJs:
		return &ExecuteJsSettings{}, nil

	case TypeCreatePath, TypeFileRead, TypeFileWrite, TypeFileAppend, TypeFileCopy, TypeFileMove,
		TypeFileDelete, TypeFileExists, TypeFileReadLines, TypeFileWriteLines, TypeFileReadBytes,
		TypeFileWriteBytes, TypeFolderDelete, TypeFolderExists, TypeGetFilesInFolder:
		return &FileSystemSettings{}, nil

	case TypePlugin:
		return &PluginSettings{}, nil
	}

	return nil, fmt.Errorf("block: unknown block_type %q", t)
}
