package engine

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"html"
	mrand "math/rand"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	register(block.TypeStringFunction, handleStringFunction)
	register(block.TypeListFunction, handleListFunction)
	register(block.TypeCryptoFunction, handleCryptoFunction)
}

const randomStringCharsetDefault = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func handleStringFunction(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.StringFunctionSettings)
	if !ok {
		return fmt.Errorf("stringfunction: settings type mismatch")
	}
	input := ec.Vars.ResolveInput(settings.InputVar)
	var out string

	switch settings.Op {
	case block.StringReplace:
		out = strings.ReplaceAll(input, ec.Vars.Interpolate(settings.Find), ec.Vars.Interpolate(settings.Replace))
	case block.StringSubstring:
		out = substring(input, settings.Start, settings.Length)
	case block.StringTrim:
		out = strings.TrimSpace(input)
	case block.StringToUpper:
		out = strings.ToUpper(input)
	case block.StringToLower:
		out = strings.ToLower(input)
	case block.StringURLEncode:
		out = url.QueryEscape(input)
	case block.StringURLDecode:
		decoded, err := url.QueryUnescape(input)
		if err != nil {
			return fmt.Errorf("stringfunction(urldecode): %w", err)
		}
		out = decoded
	case block.StringBase64Encode:
		out = base64.StdEncoding.EncodeToString([]byte(input))
	case block.StringBase64Decode:
		decoded, err := base64.StdEncoding.DecodeString(input)
		if err != nil {
			return fmt.Errorf("stringfunction(base64decode): %w", err)
		}
		out = string(decoded)
	case block.StringHTMLEncode:
		out = html.EscapeString(input)
	case block.StringHTMLDecode:
		out = html.UnescapeString(input)
	case block.StringSplit:
		sep := settings.Separator
		if sep == "" {
			sep = ","
		}
		out = strings.Join(strings.Split(input, sep), "\n")
	case block.StringRandomString:
		out = randomCharsetString(settings.Length, settings.Charset)
	case block.StringReverse:
		out = reverseString(input)
	case block.StringLength:
		out = strconv.Itoa(len(input))
	default:
		return fmt.Errorf("stringfunction: unknown op %q", settings.Op)
	}

	ec.Vars.SetUser(settings.OutputVar, out, settings.Capture)
	result.LogMessage = fmt.Sprintf("stringfunction(%s)", settings.Op)
	return nil
}

func substring(s string, start, length int) string {
	r := []rune(s)
	if start < 0 {
		start = 0
	}
	if start >= len(r) {
		return ""
	}
	end := len(r)
	if length > 0 && start+length < end {
		end = start + length
	}
	return string(r[start:end])
}

func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func randomCharsetString(length int, charset string) string {
	if length <= 0 {
		length = 16
	}
	if charset == "" {
		charset = randomStringCharsetDefault
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[mrand.Intn(len(charset))] // #nosec G404
	}
	return string(b)
}

// splitListInput parses a ListFunction InputVar as JSON-array-of-strings
// first, falling back to newline-delimited text so a plain captured blob
// still works as a list source.
func splitListInput(raw string) []string {
	if raw == "" {
		return nil
	}
	var arr []string
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		return arr
	}
	return strings.Split(raw, "\n")
}

func handleListFunction(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.ListFunctionSettings)
	if !ok {
		return fmt.Errorf("listfunction: settings type mismatch")
	}
	items := splitListInput(ec.Vars.ResolveInput(settings.InputVar))
	var out string

	switch settings.Op {
	case block.ListJoin:
		sep := settings.Separator
		if sep == "" {
			sep = ","
		}
		out = strings.Join(items, sep)
	case block.ListSort:
		sorted := append([]string(nil), items...)
		sort.Strings(sorted)
		out = strings.Join(sorted, "\n")
	case block.ListShuffle:
		shuffled := append([]string(nil), items...)
		mrand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] }) // #nosec G404
		out = strings.Join(shuffled, "\n")
	case block.ListAdd:
		out = strings.Join(append(items, ec.Vars.Interpolate(settings.Item)), "\n")
	case block.ListRemove:
		target := ec.Vars.Interpolate(settings.Item)
		kept := items[:0:0]
		for _, it := range items {
			if it != target {
				kept = append(kept, it)
			}
		}
		out = strings.Join(kept, "\n")
	case block.ListDeduplicate:
		seen := make(map[string]struct{}, len(items))
		kept := items[:0:0]
		for _, it := range items {
			if _, ok := seen[it]; !ok {
				seen[it] = struct{}{}
				kept = append(kept, it)
			}
		}
		out = strings.Join(kept, "\n")
	case block.ListRandomItem:
		if len(items) > 0 {
			out = items[mrand.Intn(len(items))] // #nosec G404
		}
	case block.ListLength:
		out = strconv.Itoa(len(items))
	default:
		return fmt.Errorf("listfunction: unknown op %q", settings.Op)
	}

	ec.Vars.SetUser(settings.OutputVar, out, settings.Capture)
	result.LogMessage = fmt.Sprintf("listfunction(%s) over %d item(s)", settings.Op, len(items))
	return nil
}

func handleCryptoFunction(ec *Context, b block.Block, result *block.Result) error {
	settings, ok := b.Settings.(*block.CryptoFunctionSettings)
	if !ok {
		return fmt.Errorf("cryptofunction: settings type mismatch")
	}
	input := ec.Vars.ResolveInput(settings.InputVar)
	key := decodeKeyMaterial(ec.Vars.Interpolate(settings.Key), settings.KeyEncoding)

	var out string
	var err error
	switch settings.Op {
	case block.CryptoMD5:
		sum := md5.Sum([]byte(input)) // #nosec G401
		out = hex.EncodeToString(sum[:])
	case block.CryptoSHA1:
		sum := sha1.Sum([]byte(input)) // #nosec G401
		out = hex.EncodeToString(sum[:])
	case block.CryptoSHA256:
		sum := sha256.Sum256([]byte(input))
		out = hex.EncodeToString(sum[:])
	case block.CryptoSHA384:
		sum := sha512.Sum384([]byte(input))
		out = hex.EncodeToString(sum[:])
	case block.CryptoSHA512:
		sum := sha512.Sum512([]byte(input))
		out = hex.EncodeToString(sum[:])
	case block.CryptoCRC32:
		out = strconv.FormatUint(uint64(crc32.ChecksumIEEE([]byte(input))), 16)
	case block.CryptoHMACMD5:
		out = hmacHex(md5.New, key, input)
	case block.CryptoHMACSHA256:
		out = hmacHex(sha256.New, key, input)
	case block.CryptoHMACSHA512:
		out = hmacHex(sha512.New, key, input)
	case block.CryptoBCryptHash:
		var hashed []byte
		hashed, err = bcrypt.GenerateFromPassword([]byte(input), bcrypt.DefaultCost)
		out = string(hashed)
	case block.CryptoBCryptVerify:
		verifyErr := bcrypt.CompareHashAndPassword([]byte(key), []byte(input))
		out = strconv.FormatBool(verifyErr == nil)
	case block.CryptoBase64:
		out = base64.StdEncoding.EncodeToString([]byte(input))
	case block.CryptoAESEncrypt:
		out, err = aesEncryptCBC(input, key, []byte(settings.IV))
	case block.CryptoAESDecrypt:
		out, err = aesDecryptCBC(input, key, []byte(settings.IV))
	default:
		return fmt.Errorf("cryptofunction: unknown op %q", settings.Op)
	}
	if err != nil {
		return fmt.Errorf("cryptofunction(%s): %w", settings.Op, err)
	}

	ec.Vars.SetUser(settings.OutputVar, out, settings.Capture)
	result.LogMessage = fmt.Sprintf("cryptofunction(%s)", settings.Op)
	return nil
}

func decodeKeyMaterial(key, encoding string) []byte {
	switch encoding {
	case "hex":
		if b, err := hex.DecodeString(key); err == nil {
			return b
		}
	case "base64":
		if b, err := base64.StdEncoding.DecodeString(key); err == nil {
			return b
		}
	}
	return []byte(key)
}

func hmacHex(newHash func() hash.Hash, key []byte, input string) string {
	mac := hmac.New(newHash, key)
	mac.Write([]byte(input))
	return hex.EncodeToString(mac.Sum(nil))
}

// aesEncryptCBC pads input with PKCS7 and encrypts it under AES-CBC,
// returning the base64-encoded ciphertext. A zero IV is used when none is
// supplied, matching the teacher's stance of never silently generating
// key material a pipeline author didn't specify.
func aesEncryptCBC(input string, key, iv []byte) (string, error) {
	cipherBlock, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	iv = fixedSizeIV(iv, cipherBlock.BlockSize())

	padded := pkcs7Pad([]byte(input), cipherBlock.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(cipherBlock, iv).CryptBlocks(out, padded)
	return base64.StdEncoding.EncodeToString(out), nil
}

func aesDecryptCBC(input string, key, iv []byte) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return "", err
	}
	cipherBlock, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	if len(ciphertext) == 0 || len(ciphertext)%cipherBlock.BlockSize() != 0 {
		return "", errors.New("ciphertext is not a multiple of the block size")
	}
	iv = fixedSizeIV(iv, cipherBlock.BlockSize())

	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(cipherBlock, iv).CryptBlocks(out, ciphertext)
	return string(pkcs7Unpad(out)), nil
}

func fixedSizeIV(iv []byte, size int) []byte {
	fixed := make([]byte, size)
	copy(fixed, iv)
	return fixed
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := make([]byte, padLen)
	for i := range padding {
		padding[i] = byte(padLen)
	}
	return append(data, padding...)
}

func pkcs7Unpad(data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	padLen := int(data[len(data)-1])
	if padLen <= 0 || padLen > len(data) {
		return data
	}
	return data[:len(data)-padLen]
}
