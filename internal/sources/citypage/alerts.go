package citypage

import (
	"bytes"
	"context"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/darrenwiens/env-canada/internal/datamart"
	"github.com/darrenwiens/env-canada/internal/sources"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category groups alerts by kind.
type Category int

const (
	Warnings Category = iota
	Watches
	Advisories
	Statements
	Endings
)

type categoryRule struct {
	key      string
	en, fr   string
	keywords map[sources.Language][]string
}

// rules are listed in classification precedence.
var rules = []categoryRule{
	Warnings: {key: "warnings", en: "Warnings", fr: "Alertes", keywords: map[sources.Language][]string{
		sources.English: {"WARNING"},
		sources.French:  {"ALERTE", "AVERTISSEMENT"},
	}},
	Watches: {key: "watches", en: "Watches", fr: "Veilles", keywords: map[sources.Language][]string{
		sources.English: {"WATCH"},
		sources.French:  {"VEILLE"},
	}},
	Advisories: {key: "advisories", en: "Advisories", fr: "Avis", keywords: map[sources.Language][]string{
		sources.English: {"ADVISORY"},
		sources.French:  {"AVIS"},
	}},
	Statements: {key: "statements", en: "Statements", fr: "Bulletins", keywords: map[sources.Language][]string{
		sources.English: {"STATEMENT"},
		sources.French:  {"BULLETIN"},
	}},
	Endings: {key: "endings", en: "Endings", fr: "Terminaisons"},
}

func (c Category) String() string {
	if int(c) < len(rules) {
		return rules[c].key
	}
	return "unknown"
}

// Label is the display name of c in lang.
func (c Category) Label(lang sources.Language) string {
	return lang.Pick(rules[c].en, rules[c].fr)
}

func endMarker(lang sources.Language) string {
	return lang.Pick("ENDED", "TERMINÉ")
}

// Classify returns the first category, in precedence order, that title
// belongs to. An active category needs one of its keywords with no end marker
// anywhere after it; Endings needs the marker anywhere.
func Classify(title string, lang sources.Language) (Category, bool) {
	marker := endMarker(lang)
	for c := Warnings; c < Endings; c++ {
		for _, kw := range rules[c].keywords[lang] {
			i := strings.LastIndex(title, kw)
			if i >= 0 && !strings.Contains(title[i+len(kw):], marker) {
				return c, true
			}
		}
	}
	if strings.Contains(title, marker) {
		return Endings, true
	}
	return 0, false
}

// Alert is one active or ended alert.
type Alert struct {
	Title  string `json:"title"`
	Date   string `json:"date"`
	Detail string `json:"detail"`
}

// AlertGroup is every alert of one category.
type AlertGroup struct {
	Label string  `json:"label"`
	Value []Alert `json:"value"`
}

// Alerts holds one group per category, always present even when empty.
type Alerts struct {
	Warnings   AlertGroup `json:"warnings"`
	Watches    AlertGroup `json:"watches"`
	Advisories AlertGroup `json:"advisories"`
	Statements AlertGroup `json:"statements"`
	Endings    AlertGroup `json:"endings"`
}

func newAlerts(lang sources.Language) Alerts {
	group := func(c Category) AlertGroup {
		return AlertGroup{Label: c.Label(lang), Value: []Alert{}}
	}
	return Alerts{
		Warnings:   group(Warnings),
		Watches:    group(Watches),
		Advisories: group(Advisories),
		Statements: group(Statements),
		Endings:    group(Endings),
	}
}

// Group returns the group for c.
func (a *Alerts) Group(c Category) *AlertGroup {
	switch c {
	case Warnings:
		return &a.Warnings
	case Watches:
		return &a.Watches
	case Advisories:
		return &a.Advisories
	case Statements:
		return &a.Statements
	default:
		return &a.Endings
	}
}

// Count is the total number of alerts.
func (a Alerts) Count() int {
	n := 0
	for c := Warnings; c <= Endings; c++ {
		n += len(a.Group(c).Value)
	}
	return n
}

// Clone returns a deep copy.
func (a Alerts) Clone() Alerts {
	for c := Warnings; c <= Endings; c++ {
		g := a.Group(c)
		g.Value = append([]Alert{}, g.Value...)
	}
	return a
}

// buildAlerts classifies the document's warning events and, when there are
// any, reads their date and detail from the linked report page. A report
// that cannot be fetched leaves date and detail empty.
func buildAlerts(ctx context.Context, d *siteData, lang sources.Language, client *datamart.Client, logger *zap.SugaredLogger) Alerts {
	alerts := newAlerts(lang)

	var titles []string
	for _, e := range d.Warnings.Events {
		if t := strings.TrimSpace(e.Description); t != "" {
			titles = append(titles, t)
		}
	}
	if len(titles) == 0 {
		return alerts
	}

	var report *goquery.Document
	if d.Warnings.URL != "" {
		body, err := client.Fetch(ctx, datamart.Resource{URL: d.Warnings.URL, Encoding: datamart.Sniff})
		if err == nil {
			report, err = goquery.NewDocumentFromReader(bytes.NewReader(body))
		}
		if err != nil {
			logger.Warnf("alert report %s unavailable: %v", d.Warnings.URL, err)
			report = nil
		}
	}

	titleCase := cases.Title(language.Und)
	for _, title := range titles {
		c, ok := Classify(title, lang)
		if !ok {
			logger.Debugf("unclassified alert %q", title)
			continue
		}
		a := Alert{Title: titleCase.String(title)}
		if report != nil {
			a.Date, a.Detail = alertDetail(report, title, c)
		}
		g := alerts.Group(c)
		g.Value = append(g.Value, a)
	}
	return alerts
}

// alertDetail locates the report heading for title and reads the issue date
// that follows it and, for active alerts, the first paragraph after it.
func alertDetail(report *goquery.Document, title string, c Category) (date, detail string) {
	needle := strings.ReplaceAll(strings.ToLower(title), "terminé", "est terminé")

	heading := ""
	report.Find("strong").Each(func(_ int, s *goquery.Selection) {
		if strings.Contains(strings.ToLower(s.Text()), needle) {
			heading = s.Text()
		}
	})
	if heading == "" {
		return "", ""
	}

	quoted := strings.ReplaceAll(heading, `"`, `\"`)
	date = strings.TrimSpace(report.Find(`p:contains("` + quoted + `") span`).First().Text())
	if c != Endings {
		detail = spaceSentences(strings.TrimSpace(report.Find(`p:contains("` + quoted + `") ~ p`).First().Text()))
	}
	return date, detail
}

// spaceSentences inserts a space after every period directly followed by a
// non-space character.
func spaceSentences(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	runes := []rune(s)
	for i, r := range runes {
		b.WriteRune(r)
		if r == '.' && i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
