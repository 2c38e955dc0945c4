package models

type License string

const (
	LicenseUnknown  License = "UNKNOWN"
	LicenseCC0      License = "CC0_10"
	LicenseCCBY30   License = "CC_BY_30"
	LicenseCCBYNC40 License = "CC_BY_NC_40_INT"
	LicenseCCBYSA30 License = "CC_BY_SA_30"
	LicenseCCBYSA40 License = "CC_BY_SA_40"
)

type licenseInfo struct {
	displayName string
	url         string
}

// Built once at startup; callers only ever read it.
var licenses = map[License]licenseInfo{
	LicenseCC0:      {"CC0 1.0 Universell (CC0 1.0)", "https://creativecommons.org/publicdomain/zero/1.0/"},
	LicenseCCBY30:   {"CC BY 3.0", "https://creativecommons.org/licenses/by/3.0/"},
	LicenseCCBYNC40: {"CC BY-NC 4.0 International", "https://creativecommons.org/licenses/by-nc/4.0/"},
	LicenseCCBYSA30: {"CC BY-SA 3.0", "https://creativecommons.org/licenses/by-sa/3.0/"},
	LicenseCCBYSA40: {"CC BY-SA 4.0", "https://creativecommons.org/licenses/by-sa/4.0/"},
}

func (l License) DisplayName() string {
	if info, ok := licenses[l]; ok {
		return info.displayName
	}
	return string(LicenseUnknown)
}

func (l License) URL() string {
	if info, ok := licenses[l]; ok {
		return info.url
	}
	return ""
}
