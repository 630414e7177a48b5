package classify

// DefaultIgnoreExtensions are file extensions that are never crawled.
// Matching is substring based against the last four characters of an href,
// so "js" also rejects ".jsp" and "css" rejects a path ending in "/css".
var DefaultIgnoreExtensions = []string{
	"png", "javascript", "jpeg", "jpg",
	"js", "css", "gif", "tif", "bmp", "ppm",
	"webp", "svg", "pdf", "ico",
	"xlsx", "csv", "exe", "war", "mp4",
}

// DefaultSessionEndPhrases are markers of links that would end an
// authenticated session if followed.
var DefaultSessionEndPhrases = []string{
	"logout", "log out", "log-out", "log_out",
	"signout", "sign out", "sign-out", "sign_out",
	"logoff", "log-off", "log off", "log_off",
	"signoff", "sign-off", "sign off", "sign_off",
}

// DefaultNonPageSchemes mark hrefs that do not point to a page.
var DefaultNonPageSchemes = []string{"javascript:", "mailto:", "tel:"}

// KnownPageExtensions are extensions of server-rendered pages.
// They are used for reporting only; they never affect filtering.
var KnownPageExtensions = []string{
	"php", "html", "htm", "aspx",
	"jsp", "dj", "asp", "py", "vb",
	"vbjx", "servlet", "sql", "ts",
}
