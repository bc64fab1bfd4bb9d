package declarative

// redirectResources maps a $redirect/$redirect-rule resource name to the
// extensionPath a declarative redirect action serves it from, following the
// conventional uBlock Origin / AdGuard "redirect resources" naming scheme —
// a small bundle of stub scripts and tracking pixels shipped alongside the
// rule set rather than fetched at match time.
var redirectResources = map[string]string{
	"noopjs":                 "/resources/noop.js",
	"noop.js":                "/resources/noop.js",
	"noopframe":              "/resources/noop.html",
	"noop.html":              "/resources/noop.html",
	"noopcss":                "/resources/noop.css",
	"noop.css":               "/resources/noop.css",
	"noop-0.1s.mp3":          "/resources/noop-0.1s.mp3",
	"noop-1s.mp4":            "/resources/noop-1s.mp4",
	"noop.txt":               "/resources/noop.txt",
	"nooptext":               "/resources/noop.txt",
	"1x1-transparent.gif":    "/resources/1x1-transparent.gif",
	"1x1.gif":                "/resources/1x1-transparent.gif",
	"2x2-transparent.png":    "/resources/2x2-transparent.png",
	"3x2-transparent.png":    "/resources/3x2-transparent.png",
	"32x32-transparent.png":  "/resources/32x32-transparent.png",
	"empty":                  "/resources/noop.txt",
	"googlesyndication_adsbygoogle.js": "/resources/googlesyndication-adsbygoogle.js",
	"google-analytics_analytics.js":    "/resources/google-analytics-analytics.js",
	"google-analytics_ga.js":           "/resources/google-analytics-ga.js",
	"googletagmanager_gtm.js":          "/resources/googletagmanager-gtm.js",
	"prebid-ads.js":                    "/resources/prebid-ads.js",
}

// RedirectExtensionPath returns the bundled resource path for a $redirect
// resource name, and false if name names no known resource — the converter
// treats that as a dropped rule with a SemanticError, never a panic.
func RedirectExtensionPath(name string) (path string, ok bool) {
	path, ok = redirectResources[name]

	return path, ok
}
