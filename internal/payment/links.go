// internal/payment/links.go
package payment

import (
	"crypto/subtle"
	"strings"
)

// Country buckets. The Gulf states all share the SA pricing and links.
const (
	CountryEG      = "EG"
	CountrySA      = "SA"
	CountryDefault = "DEFAULT"
)

// Links holds the fixed hosted-payment-page URLs of one country bucket.
type Links struct {
	Individual string
	Family     string
}

var paymentLinks = map[string]Links{
	CountryEG: {
		Individual: "https://secure-egypt.paytabs.com/payment/link/140410/5615069",
		Family:     "https://secure-egypt.paytabs.com/payment/link/140410/5594819",
	},
	CountrySA: {
		Individual: "https://secure-egypt.paytabs.com/payment/link/140410/5763844",
		Family:     "https://secure-egypt.paytabs.com/payment/link/140410/5763828",
	},
	CountryDefault: {
		Individual: "https://secure-egypt.paytabs.com/payment/link/140410/5763844",
		Family:     "https://secure-egypt.paytabs.com/payment/link/140410/5763828",
	},
}

// callingCodes is an ordered prefix list; first match wins.
var callingCodes = []struct {
	prefix  string
	country string
}{
	{"20", CountryEG},
	{"966", CountrySA},
	{"971", CountrySA},
	{"965", CountrySA},
	{"973", CountrySA},
	{"968", CountrySA},
}

// DetectCountry infers the country bucket from a phone number's calling code.
// Numbers with no recognized prefix land in the default bucket.
func DetectCountry(phone string) string {
	p := strings.TrimPrefix(strings.TrimSpace(phone), "+")
	for _, cc := range callingCodes {
		if strings.HasPrefix(p, cc.prefix) {
			return cc.country
		}
	}
	return CountryDefault
}

// LinksFor returns the payment links of the bucket, falling back to DEFAULT.
func LinksFor(country string) Links {
	if l, ok := paymentLinks[country]; ok {
		return l
	}
	return paymentLinks[CountryDefault]
}

// Prices holds the localized price labels shown next to the links.
type Prices struct {
	Header     string
	Individual string
	Family     string
}

// PricesFor returns the currency labels of the bucket: Egyptian pounds for
// EG, Saudi riyals for everyone else.
func PricesFor(country string) Prices {
	if country == CountryEG {
		return Prices{
			Header:     "🇪🇬 الأسعار بالجنيه المصري:",
			Individual: "97 جنيه",
			Family:     "190 جنيه",
		}
	}
	return Prices{
		Header:     "🇸🇦 الأسعار بالريال السعودي:",
		Individual: "59 ريال",
		Family:     "89 ريال",
	}
}

// VerifyCallback checks the payment-provider shared secret. A bot with no
// configured secret accepts nothing here; it falls back to self-reported
// confirmation instead.
func VerifyCallback(configured, got string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(got)) == 1
}
