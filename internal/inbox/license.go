package inbox

import "github.com/railwaystations/inbox-api/internal/models"

// EffectiveLicense applies the country's freedom-of-panorama override:
// the photographer's declared license wins unless the country dictates
// one for all photos taken there.
func EffectiveLicense(photographer models.License, country *models.Country) models.License {
	if country != nil && country.OverrideLicense != "" {
		return country.OverrideLicense
	}
	return photographer
}
