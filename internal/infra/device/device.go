package device

import (
	ua "github.com/mileusna/useragent"

	"github.com/GitHubKaan/gju-jobs-api/internal/core/domain"
)

// FromUserAgent extracts best-effort OS and browser names from a raw
// User-Agent header. Unparseable input yields empty fields, never an error.
func FromUserAgent(rawUA string) domain.DeviceInfo {
	if rawUA == "" {
		return domain.DeviceInfo{}
	}

	parsed := ua.Parse(rawUA)
	return domain.DeviceInfo{
		OS:      parsed.OS,
		Browser: parsed.Name,
	}
}
