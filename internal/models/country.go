package models

// Country is a directory record. OverrideLicense encodes jurisdictions
// whose freedom-of-panorama rules restrict the license a photographer
// may grant; when set it replaces the photographer's declared license.
type Country struct {
	Code            string
	Name            string
	OverrideLicense License // empty: photographer's license applies
	Active          bool
}
