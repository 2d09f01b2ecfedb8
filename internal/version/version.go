package version

// Tag holds the build version for the Postal binary. It can be overridden at
// build time via: go build -ldflags "-X github.com/corvusHold/postal/internal/version.Tag=v1.2.3".
var Tag = "dev"

// String returns the current Postal version, defaulting to "dev" when Tag is
// unset.
func String() string {
	if Tag == "" {
		return "dev"
	}
	return Tag
}
