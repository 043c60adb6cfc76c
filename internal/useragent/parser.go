// Package useragent normalizes user-agent strings into a closed vocabulary of
// browser family, OS family and device class. Versions are always discarded.
package useragent

import "bytes"

// Browser families.
const (
	BrowserChrome  = "Chrome"
	BrowserSafari  = "Safari"
	BrowserFirefox = "Firefox"
	BrowserEdge    = "Edge"
	BrowserOther   = "Other"
)

// OS families.
const (
	OSAndroid = "Android"
	OSIOS     = "iOS"
	OSWindows = "Windows"
	OSMacOS   = "macOS"
	OSLinux   = "Linux"
	OSOther   = "Other"
)

// Device classes.
const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
	DeviceTablet  = "tablet"
	DeviceUnknown = "unknown"
)

// Info is the normalized form of a user agent.
type Info struct {
	Browser string
	OS      string
	Device  string
}

// Unknown is the Info reported for an empty user agent.
func Unknown() Info {
	return Info{Browser: BrowserOther, OS: OSOther, Device: DeviceUnknown}
}

// Parse maps ua to its closed-vocabulary Info. Matching is case-insensitive and
// allocation-free, so the caller keeps sole ownership of the buffer and can wipe it.
func Parse(ua []byte) Info {
	if len(bytes.TrimSpace(ua)) == 0 {
		return Unknown()
	}
	return Info{
		Browser: browser(ua),
		OS:      osFamily(ua),
		Device:  device(ua),
	}
}

// Edge embeds a Chrome token and Chrome embeds a Safari token, so order matters.
func browser(ua []byte) string {
	switch {
	case containsAny(ua, "Edg/", "Edge/", "EdgA/", "EdgiOS/"):
		return BrowserEdge
	case containsAny(ua, "OPR/", "Opera/"):
		return BrowserOther
	case containsAny(ua, "Chrome/", "CriOS/"):
		return BrowserChrome
	case containsAny(ua, "Firefox/", "FxiOS/"):
		return BrowserFirefox
	case contains(ua, "Safari/") && !contains(ua, "Chrome"):
		return BrowserSafari
	default:
		return BrowserOther
	}
}

func osFamily(ua []byte) string {
	switch {
	case contains(ua, "Android"):
		return OSAndroid
	case containsAny(ua, "iPhone", "iPad", "iPod"):
		return OSIOS
	case contains(ua, "Windows"):
		return OSWindows
	case containsAny(ua, "Macintosh", "Mac OS X"):
		return OSMacOS
	case contains(ua, "Linux"):
		return OSLinux
	default:
		return OSOther
	}
}

func device(ua []byte) string {
	switch {
	case containsAny(ua, "iPad", "Tablet"):
		return DeviceTablet
	case containsAny(ua, "Mobile", "iPhone", "iPod", "Android"):
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

func containsAny(ua []byte, needles ...string) bool {
	for _, n := range needles {
		if contains(ua, n) {
			return true
		}
	}
	return false
}

// contains reports whether needle occurs in ua, ignoring ASCII case.
func contains(ua []byte, needle string) bool {
	n := len(needle)
	for i := 0; i+n <= len(ua); i++ {
		if equalFold(ua[i:i+n], needle) {
			return true
		}
	}
	return false
}

func equalFold(b []byte, s string) bool {
	for i := 0; i < len(s); i++ {
		if lower(b[i]) != lower(s[i]) {
			return false
		}
	}
	return true
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
