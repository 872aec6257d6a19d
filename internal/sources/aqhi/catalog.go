package aqhi

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/darrenwiens/env-canada/internal/datamart"
	"github.com/darrenwiens/env-canada/internal/sources"
	"github.com/darrenwiens/env-canada/pkg/geo"
)

// RegionListPath is the AQHI zone and region index.
const RegionListPath = "/air_quality/doc/AQHI_XML_File_List.xml"

// Region is one AQHI forecast region within an administrative zone.
type Region struct {
	Zone     string  `json:"zone"`
	ZoneName string  `json:"zone_name"`
	ID       string  `json:"cgndb"`
	Name     string  `json:"name"`
	Lat      float64 `json:"latitude"`
	Lon      float64 `json:"longitude"`
	// Metadata holds the region's child elements by tag, e.g.
	// pathToCurrentObservation.
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (r Region) Location() geo.Point {
	return geo.Point{Lat: r.Lat, Lon: r.Lon}
}

// RegionID is the "zone/region" form used in configuration.
func (r Region) RegionID() string {
	return r.Zone + "/" + r.ID
}

type regionList struct {
	Zones []struct {
		Abbreviation string `xml:"abreviation,attr"`
		NameEN       string `xml:"name_en_CA,attr"`
		NameFR       string `xml:"name_fr_CA,attr"`
		Regions      []struct {
			CGNDB     string `xml:"cgndb,attr"`
			NameEN    string `xml:"nameEn,attr"`
			NameFR    string `xml:"nameFr,attr"`
			Latitude  string `xml:"latitude,attr"`
			Longitude string `xml:"longitude,attr"`
			Children  []struct {
				XMLName xml.Name
				Text    string `xml:",chardata"`
			} `xml:",any"`
		} `xml:"regionList>region"`
	} `xml:"EC_administrativeZone"`
}

// Catalog fetches every region, named in lang.
func Catalog(ctx context.Context, client *datamart.Client, lang sources.Language) ([]Region, error) {
	body, err := client.Fetch(ctx, datamart.Resource{
		URL:       client.URL(RegionListPath),
		Encoding:  datamart.UTF8,
		Cacheable: true,
	})
	if err != nil {
		return nil, err
	}
	return parseRegions(body, lang)
}

func parseRegions(data []byte, lang sources.Language) ([]Region, error) {
	var doc regionList
	if err := datamart.DecodeXML(data, &doc); err != nil {
		return nil, fmt.Errorf("AQHI region list: %w", err)
	}

	var regions []Region
	for _, z := range doc.Zones {
		for _, r := range z.Regions {
			lat := sources.ParseFloat(r.Latitude)
			lon := sources.ParseFloat(r.Longitude)
			if lat == nil || lon == nil {
				continue
			}

			region := Region{
				Zone:     z.Abbreviation,
				ZoneName: lang.Pick(z.NameEN, z.NameFR),
				ID:       r.CGNDB,
				Name:     lang.Pick(r.NameEN, r.NameFR),
				Lat:      *lat,
				Lon:      *lon,
			}
			if len(r.Children) > 0 {
				region.Metadata = make(map[string]string, len(r.Children))
				for _, c := range r.Children {
					region.Metadata[c.XMLName.Local] = strings.TrimSpace(c.Text)
				}
			}
			regions = append(regions, region)
		}
	}
	return regions, nil
}

// ParseRegionID splits "zone/region", normalising the case the Datamart uses
// in its paths.
func ParseRegionID(id string) (zone, region string, err error) {
	zone, region, ok := strings.Cut(id, "/")
	if !ok || zone == "" || region == "" {
		return "", "", fmt.Errorf("AQHI region must be zone/region, got %q", id)
	}
	return strings.ToLower(zone), strings.ToUpper(region), nil
}

// Nearest resolves the region closest to p.
func Nearest(ctx context.Context, client *datamart.Client, p geo.Point) (zone, region string, err error) {
	if err := p.Validate(); err != nil {
		return "", "", err
	}
	regions, err := Catalog(ctx, client, sources.English)
	if err != nil {
		return "", "", fmt.Errorf("loading AQHI regions: %w", err)
	}
	closest, err := geo.Closest(p, regions)
	if err != nil {
		return "", "", fmt.Errorf("resolving AQHI region: %w", err)
	}
	return closest.Zone, closest.ID, nil
}
