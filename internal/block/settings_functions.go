package block

// StringOp enumerates StringFunction operations.
type StringOp string

const (
	StringReplace       StringOp = "Replace"
	StringSubstring     StringOp = "Substring"
	StringTrim          StringOp = "Trim"
	StringToUpper       StringOp = "ToUpper"
	StringToLower       StringOp = "ToLower"
	StringURLEncode     StringOp = "URLEncode"
	StringURLDecode     StringOp = "URLDecode"
	StringBase64Encode  StringOp = "Base64Encode"
	StringBase64Decode  StringOp = "Base64Decode"
	StringHTMLEncode    StringOp = "HTMLEncode"
	StringHTMLDecode    StringOp = "HTMLDecode"
	StringSplit         StringOp = "Split"
	StringRandomString  StringOp = "RandomString"
	StringReverse       StringOp = "Reverse"
	StringLength        StringOp = "Length"
)

// StringFunctionSettings is a pure mapping InputVar -> OutputVar per Op.
type StringFunctionSettings struct {
	Op        StringOp
	InputVar  string
	OutputVar string
	Capture   bool

	// Replace
	Find    string
	Replace string

	// Substring / Split
	Start     int
	Length    int
	Separator string

	// RandomString
	Charset string
}

func (StringFunctionSettings) blockSettings() {}

// ListOp enumerates ListFunction operations.
type ListOp string

const (
	ListJoin       ListOp = "Join"
	ListSort       ListOp = "Sort"
	ListShuffle    ListOp = "Shuffle"
	ListAdd        ListOp = "Add"
	ListRemove     ListOp = "Remove"
	ListDeduplicate ListOp = "Deduplicate"
	ListRandomItem ListOp = "RandomItem"
	ListLength     ListOp = "Length"
)

// ListFunctionSettings operates over InputVar parsed as a JSON array of
// strings (or newline-delimited text as a fallback).
type ListFunctionSettings struct {
	Op        ListOp
	InputVar  string
	OutputVar string
	Capture   bool

	Separator string // Join
	Item      string // Add/Remove
}

func (ListFunctionSettings) blockSettings() {}

// CryptoOp enumerates CryptoFunction operations.
type CryptoOp string

const (
	CryptoMD5           CryptoOp = "MD5"
	CryptoSHA1          CryptoOp = "SHA1"
	CryptoSHA256        CryptoOp = "SHA256"
	CryptoSHA384        CryptoOp = "SHA384"
	CryptoSHA512        CryptoOp = "SHA512"
	CryptoCRC32         CryptoOp = "CRC32"
	CryptoHMACMD5       CryptoOp = "HMAC-MD5"
	CryptoHMACSHA256    CryptoOp = "HMAC-SHA256"
	CryptoHMACSHA512    CryptoOp = "HMAC-SHA512"
	CryptoBCryptHash    CryptoOp = "BCryptHash"
	CryptoBCryptVerify  CryptoOp = "BCryptVerify"
	CryptoBase64        CryptoOp = "Base64"
	CryptoAESEncrypt    CryptoOp = "AESEncrypt"
	CryptoAESDecrypt    CryptoOp = "AESDecrypt"
)

// CryptoFunctionSettings is a pure digest/cipher mapping. Key is used by the
// HMAC/AES/BCryptVerify variants; KeyEncoding selects how Key is decoded
// ("hex" | "base64" | "utf8").
type CryptoFunctionSettings struct {
	Op          CryptoOp
	InputVar    string
	OutputVar   string
	Capture     bool
	Key         string
	KeyEncoding string
	IV          string
}

func (CryptoFunctionSettings) blockSettings() {}
