package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// DefaultLocales are the display locales the API renders money in.
var DefaultLocales = []string{"en", "en-GB", "de", "fr", "es", "it", "nl", "pt", "id", "ja"}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// Locales negotiates a response locale against a fixed supported set.
type Locales struct {
	supported []language.Tag
	matcher   language.Matcher
	fallback  language.Tag
}

// NewLocales builds a negotiator. The fallback is added to the supported set
// when missing.
func NewLocales(fallback string, supported ...string) (*Locales, error) {
	fb, err := language.Parse(fallback)
	if err != nil {
		return nil, err
	}
	tags := []language.Tag{fb}
	for _, s := range supported {
		tag, err := language.Parse(s)
		if err != nil {
			return nil, err
		}
		if tag != fb {
			tags = append(tags, tag)
		}
	}
	return &Locales{supported: tags, matcher: language.NewMatcher(tags), fallback: fb}, nil
}

func (l *Locales) Fallback() language.Tag { return l.fallback }

// Negotiate picks the locale for r. X-Locale wins over Accept-Language; the
// country's likely language comes next and the fallback last.
func (l *Locales) Negotiate(r *http.Request, country string) language.Tag {
	if tag, ok := l.match(r.Header.Get("X-Locale")); ok {
		return tag
	}
	if tag, ok := l.match(r.Header.Get("Accept-Language")); ok {
		return tag
	}
	if country != "" {
		if tag, ok := l.matchCountry(country); ok {
			return tag
		}
	}
	return l.fallback
}

func (l *Locales) match(header string) (language.Tag, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return language.Und, false
	}
	desired, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(desired) == 0 {
		return language.Und, false
	}
	return l.best(desired...)
}

func (l *Locales) matchCountry(country string) (language.Tag, bool) {
	und, err := language.Parse("und-" + strings.ToUpper(country))
	if err != nil {
		return language.Und, false
	}
	base, conf := und.Base()
	if conf == language.No {
		return language.Und, false
	}
	region, _ := und.Region()
	tag, err := language.Compose(base, region)
	if err != nil {
		return language.Und, false
	}
	return l.best(tag)
}

func (l *Locales) best(desired ...language.Tag) (language.Tag, bool) {
	_, index, conf := l.matcher.Match(desired...)
	if conf == language.No {
		return language.Und, false
	}
	return l.supported[index], true
}

// I18N stores the negotiated locale and the resolved country in the request
// context.
func I18N(locales *Locales, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			locale := locales.Negotiate(r, country)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, country)
			}
			w.Header().Set("Content-Language", locale.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		first, _, _ := strings.Cut(xf, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LocaleFromContext returns the negotiated locale, English when none was set.
func LocaleFromContext(ctx context.Context) language.Tag {
	if v, ok := ctx.Value(LocaleKey).(language.Tag); ok {
		return v
	}
	return language.English
}

func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry resolves a best-effort ISO country code for the request:
// proxy headers first, then an explicit region in the locale headers, then
// the GeoIP lookup.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range []string{"X-Country-Code", "CF-IPCountry", "X-Appengine-Country"} {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	for _, key := range []string{"X-Locale", "Accept-Language"} {
		if region := explicitRegion(r.Header.Get(key)); region != "" {
			return region
		}
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}

func explicitRegion(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return ""
	}
	for _, tag := range tags {
		if region, conf := tag.Region(); conf == language.Exact {
			return region.String()
		}
	}
	return ""
}
