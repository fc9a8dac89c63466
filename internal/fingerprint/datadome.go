package fingerprint

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// DataDomeSensorPayload mirrors the subset of client-side signals DataDome's
// interstitial-challenge sensor collects: a WASM-derived integrity hash and
// the same style of device/navigator signals used by SensorPayload above.
// There is no DataDome decoder source in this codebase's reference
// material (the third-party crate it was originally built against isn't
// vendored here), so — consistent with this engine's stated policy of
// supplying fingerprint data as opaque strings rather than emulating any
// specific vendor's exact protocol — this generates a structurally
// plausible payload in the same synthetic style as GenerateSensorPayload,
// not a byte-for-byte reproduction of DataDome's real wire format.
type DataDomeSensorPayload struct {
	SiteURL     string `json:"site"`
	WasmHash    string `json:"wasmHash"`
	UserAgent   string `json:"ua"`
	CookieSeen  bool   `json:"cookieSeen"`
	Screen      ScreenInfo `json:"screen"`
	Timestamp   int64  `json:"ts"`
	EventsCount int    `json:"eventsCount"`
}

// GenerateDataDomeSensor builds a base64-encoded JSON DataDome sensor
// payload for siteURL/cookie/userAgent. If customWasm is non-empty its
// bytes are folded into WasmHash instead of a random one, so a pipeline
// operator supplying a real captured WASM module gets a deterministic,
// reproducible hash across retries.
func GenerateDataDomeSensor(siteURL, cookie, userAgent string, customWasm []byte) (string, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404

	var wasmHash string
	if len(customWasm) > 0 {
		wasmHash = fmt.Sprintf("%08x", fnv32(customWasm))
	} else {
		wasmHash = fmt.Sprintf("%08x", rng.Uint32())
	}

	payload := DataDomeSensorPayload{
		SiteURL:     siteURL,
		WasmHash:    wasmHash,
		UserAgent:   userAgent,
		CookieSeen:  cookie != "",
		Screen:      commonScreenResolutions[rng.Intn(len(commonScreenResolutions))],
		Timestamp:   time.Now().UnixMilli(),
		EventsCount: 10 + rng.Intn(40),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("fingerprint: marshal datadome payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(body), nil
}

func fnv32(data []byte) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for _, b := range data {
		h ^= uint32(b)
		h *= prime32
	}
	return h
}
