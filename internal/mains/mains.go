// Package mains detects local electrical mains frequency from system timezone.
// The hum diagnostic measures energy at harmonics of this frequency.
package mains

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// DefaultHz is used when the timezone gives no country (50Hz is more common globally)
const DefaultHz = 50

// Detection records how a mains frequency was chosen.
type Detection struct {
	Hz       int
	Timezone string // empty when the system timezone could not be read
	Country  string // empty when the timezone has no country
}

// Detect looks up the system timezone and maps it to a mains frequency.
func Detect() Detection {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return Detection{Hz: DefaultHz}
	}
	return DetectForTimezone(timezone)
}

// DetectForTimezone maps an IANA timezone to its country and mains frequency.
func DetectForTimezone(timezone string) Detection {
	d := Detection{Hz: DefaultHz, Timezone: timezone}

	// UTC/GMT have no country association
	if timezone == "" || timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return d
	}

	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return d
	}

	country, err := tzMap.GetCountry(timezone)
	if err != nil {
		return d
	}

	d.Country = country
	d.Hz = frequencyForCountry(country)
	return d
}

// Resolve returns configuredHz when it is set, otherwise the detected local
// frequency. The Detection is zero when configuredHz was used.
func Resolve(configuredHz float64) (float64, Detection) {
	if configuredHz > 0 {
		return configuredHz, Detection{}
	}
	d := Detect()
	return float64(d.Hz), d
}

// frequencyForCountry returns the mains frequency for a country name.
func frequencyForCountry(country string) int {
	// Japan is split 50/60Hz by region; Tokyo (50Hz) is most populous
	if country == "Japan" {
		return 50
	}

	if hz60Countries[country] {
		return 60
	}
	return DefaultHz
}

// hz60Countries lists countries using 60Hz mains power.
// All other countries use 50Hz.
// Source: https://en.wikipedia.org/wiki/Mains_electricity_by_country
var hz60Countries = map[string]bool{
	// North America
	"United States": true,
	"Canada":        true,
	"Mexico":        true,

	// Central America
	"Belize":      true,
	"Costa Rica":  true,
	"El Salvador": true,
	"Guatemala":   true,
	"Honduras":    true,
	"Nicaragua":   true,
	"Panama":      true,

	// Caribbean
	"Bahamas":             true,
	"Barbados":            true,
	"Cayman Islands":      true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Haiti":               true,
	"Jamaica":             true,
	"Puerto Rico":         true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,

	// South America (partial; most use 50Hz)
	"Brazil":    true, // both 50Hz and 60Hz regions; 60Hz predominant
	"Colombia":  true,
	"Ecuador":   true,
	"Guyana":    true,
	"Peru":      true,
	"Suriname":  true,
	"Venezuela": true,

	// Asia (partial)
	"South Korea":  true,
	"Taiwan":       true,
	"Philippines":  true,
	"Saudi Arabia": true,

	// Pacific
	"Guam":             true,
	"American Samoa":   true,
	"Marshall Islands": true,
	"Micronesia":       true,
	"Palau":            true,
}
