package citypage

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/darrenwiens/env-canada/internal/datamart"
	"github.com/darrenwiens/env-canada/internal/sources"
	"github.com/darrenwiens/env-canada/pkg/geo"
)

// SiteListPath is the citypage site index.
const SiteListPath = "/citypage_weather/docs/site_list_en.csv"

// excludedProvince marks the marine "HEF" pseudo-province, which has no
// citypage documents.
const excludedProvince = "HEF"

// Site is one citypage forecast location.
type Site struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Province string  `json:"province"`
	Lat      float64 `json:"latitude"`
	Lon      float64 `json:"longitude"`
}

func (s Site) Location() geo.Point {
	return geo.Point{Lat: s.Lat, Lon: s.Lon}
}

// ID is the "PROV/code" form used in configuration.
func (s Site) ID() string {
	return s.Province + "/" + s.Code
}

// Catalog fetches and parses the site index.
func Catalog(ctx context.Context, client *datamart.Client) ([]Site, error) {
	body, err := client.Fetch(ctx, datamart.Resource{
		URL:       client.URL(SiteListPath),
		Encoding:  datamart.UTF8BOM,
		Cacheable: true,
	})
	if err != nil {
		return nil, err
	}
	return parseSites(body)
}

// parseSites reads the index. Its first line is a title, the second the
// column header. Coordinates carry hemisphere suffixes ("45.40N",
// "75.70W").
func parseSites(data []byte) ([]Site, error) {
	nl := bytes.IndexByte(data, '\n')
	if nl < 0 {
		return nil, fmt.Errorf("%w: site list has no header", datamart.ErrDocument)
	}

	r := csv.NewReader(bytes.NewReader(data[nl+1:]))
	r.FieldsPerRecord = -1

	names, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: site list header: %v", datamart.ErrDocument, err)
	}
	header := make(map[string]int, len(names))
	for i, n := range names {
		header[strings.TrimSpace(n)] = i
	}
	for _, want := range []string{"Codes", "English Names", "Province Codes", "Latitude", "Longitude"} {
		if _, ok := header[want]; !ok {
			return nil, fmt.Errorf("%w: site list lacks column %q", datamart.ErrDocument, want)
		}
	}

	get := func(rec []string, name string) string {
		if i := header[name]; i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	var sites []Site
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: site list: %v", datamart.ErrDocument, err)
		}

		prov := get(rec, "Province Codes")
		if prov == excludedProvince {
			continue
		}
		lat := sources.ParseFloat(strings.TrimSuffix(get(rec, "Latitude"), "N"))
		lon := sources.ParseFloat(strings.TrimSuffix(get(rec, "Longitude"), "W"))
		if lat == nil || lon == nil {
			continue
		}
		sites = append(sites, Site{
			Code:     get(rec, "Codes"),
			Name:     get(rec, "English Names"),
			Province: prov,
			Lat:      *lat,
			Lon:      -*lon,
		})
	}
	return sites, nil
}

// ParseSiteID splits "PROV/code".
func ParseSiteID(id string) (province, code string, err error) {
	province, code, ok := strings.Cut(id, "/")
	if !ok || province == "" || code == "" {
		return "", "", fmt.Errorf("citypage station must be PROV/code, got %q", id)
	}
	return strings.ToUpper(province), strings.ToLower(code), nil
}

// DocumentPath is the citypage XML document of a site in one language.
func DocumentPath(province, code string, lang sources.Language) string {
	return fmt.Sprintf("/citypage_weather/xml/%s/%s_%s.xml", province, code, lang.Letter())
}

// RoutingKey selects announcements for every citypage document in province.
func RoutingKey(province string) string {
	return fmt.Sprintf("v02.post.citypage_weather.xml.%s.#", province)
}
