package block

// AkamaiV3Mode selects the direction of the Akamai V3 sensor transform.
type AkamaiV3Mode string

const (
	AkamaiV3Encrypt           AkamaiV3Mode = "Encrypt"
	AkamaiV3Decrypt           AkamaiV3Mode = "Decrypt"
	AkamaiV3ExtractCookieHash AkamaiV3Mode = "ExtractCookieHash"
)

// AkamaiV3SensorSettings drives the seeded swap-then-substitute transform
// (credited upstream to glizzykingdreko's akamai-v3-sensor-data-helper
// reverse engineering): Encrypt applies a one-pass element-index swap
// seeded by FileHash followed by a per-character offset within a fixed
// 94-char alphabet seeded by CookieHash; Decrypt applies both inverses in
// reverse order; ExtractCookieHash pulls the cookie hash out of a raw
// bm_sz cookie value. This algorithm is taken verbatim from the reference
// implementation — see internal/fingerprint/akamai_v3.go.
type AkamaiV3SensorSettings struct {
	Mode       AkamaiV3Mode
	PayloadVar string
	FileHash   string
	CookieHash string
	OutputVar  string
	Capture    bool
}

func (AkamaiV3SensorSettings) blockSettings() {}
