package aqhi

import (
	"context"
	"fmt"
	"strings"

	"github.com/darrenwiens/env-canada/internal/datamart"
	"github.com/darrenwiens/env-canada/internal/sources"
	risk "github.com/darrenwiens/env-canada/pkg/aqhi"
)

// RoutingKey selects every AQHI announcement.
const RoutingKey = "v02.post.air_quality.aqhi.#"

// ObservationPath is the current observation file of a region.
func ObservationPath(zone, region string) string {
	return fmt.Sprintf("/air_quality/aqhi/%s/observation/realtime/xml/AQ_OBS_%s_CURRENT.xml", zone, region)
}

// ForecastPath is the current forecast file of a region.
func ForecastPath(zone, region string) string {
	return fmt.Sprintf("/air_quality/aqhi/%s/forecast/realtime/xml/AQ_FCST_%s_CURRENT.xml", zone, region)
}

// Observation is the latest measured index.
type Observation struct {
	Current sources.Field[float64] `json:"current"`
	Risk    sources.Field[string]  `json:"risk"`
	Color   string                 `json:"color,omitempty"`
	UTCTime string                 `json:"utc_time,omitempty"`
}

// Forecasts are the daily and hourly index forecasts.
type Forecasts struct {
	Daily  []Period `json:"daily"`
	Hourly []Period `json:"hourly"`
}

// Period is one forecast entry. Hourly periods are UTC stamps (YYYYMMDDhhmm).
type Period struct {
	Period string  `json:"period"`
	AQHI   float64 `json:"aqhi"`
}

func labels(lang sources.Language) (current, health string) {
	return lang.Pick("Air Quality Health Index", "Cote air santé"),
		lang.Pick("Health Risk", "Risque pour la santé")
}

type observationDoc struct {
	AQHI    string `xml:"airQualityHealthIndex"`
	UTCTime string `xml:"dateStamp>UTCStamp"`
}

// FetchObservation retrieves and parses a region's current observation.
func FetchObservation(ctx context.Context, client *datamart.Client, zone, region string, lang sources.Language) (Observation, error) {
	body, err := client.Fetch(ctx, datamart.Resource{
		URL:      client.URL(ObservationPath(zone, region)),
		Encoding: datamart.UTF8,
	})
	if err != nil {
		return Observation{}, err
	}
	return parseObservation(body, lang)
}

func parseObservation(data []byte, lang sources.Language) (Observation, error) {
	var doc observationDoc
	if err := datamart.DecodeXML(data, &doc); err != nil {
		return Observation{}, fmt.Errorf("AQHI observation: %w", err)
	}

	currentLabel, riskLabel := labels(lang)
	obs := Observation{
		Current: sources.Field[float64]{Label: currentLabel, Value: sources.ParseFloat(doc.AQHI)},
		Risk:    sources.Field[string]{Label: riskLabel},
		UTCTime: strings.TrimSpace(doc.UTCTime),
	}
	if v, ok := obs.Current.Get(); ok {
		label := risk.GetRisk(v).Label(string(lang))
		obs.Risk.Value = &label
		obs.Color = risk.GetColor(v)
	}
	return obs, nil
}

type forecastDoc struct {
	Daily []struct {
		Periods []struct {
			Lang string `xml:"lang,attr"`
			Name string `xml:"forecastName,attr"`
		} `xml:"period"`
		AQHI string `xml:"airQualityHealthIndex"`
	} `xml:"forecastGroup>forecast"`
	Hourly []struct {
		UTCTime string `xml:"UTCTime,attr"`
		AQHI    string `xml:",chardata"`
	} `xml:"hourlyForecastGroup>hourlyForecast"`
}

// FetchForecast retrieves and parses a region's current forecast.
func FetchForecast(ctx context.Context, client *datamart.Client, zone, region string, lang sources.Language) (Forecasts, error) {
	body, err := client.Fetch(ctx, datamart.Resource{
		URL:      client.URL(ForecastPath(zone, region)),
		Encoding: datamart.Latin1,
	})
	if err != nil {
		return Forecasts{}, err
	}
	return parseForecast(body, lang)
}

// parseForecast keeps only daily periods that have both a label in lang and
// an index, and hourly periods that have both a stamp and an index.
func parseForecast(data []byte, lang sources.Language) (Forecasts, error) {
	var doc forecastDoc
	if err := datamart.DecodeXML(data, &doc); err != nil {
		return Forecasts{}, fmt.Errorf("AQHI forecast: %w", err)
	}

	f := Forecasts{Daily: []Period{}, Hourly: []Period{}}
	for _, d := range doc.Daily {
		v := sources.ParseFloat(d.AQHI)
		if v == nil {
			continue
		}
		name := ""
		for _, p := range d.Periods {
			if strings.EqualFold(p.Lang, lang.Abbr()) {
				name = strings.TrimSpace(p.Name)
			}
		}
		if name == "" {
			continue
		}
		f.Daily = append(f.Daily, Period{Period: name, AQHI: *v})
	}

	for _, h := range doc.Hourly {
		v := sources.ParseFloat(h.AQHI)
		stamp := strings.TrimSpace(h.UTCTime)
		if v == nil || stamp == "" {
			continue
		}
		f.Hourly = append(f.Hourly, Period{Period: stamp, AQHI: *v})
	}
	return f, nil
}

// Clone returns a deep copy.
func (o Observation) Clone() Observation {
	o.Current = o.Current.Clone()
	o.Risk = o.Risk.Clone()
	return o
}

// Clone returns a deep copy.
func (f Forecasts) Clone() Forecasts {
	return Forecasts{
		Daily:  append([]Period{}, f.Daily...),
		Hourly: append([]Period{}, f.Hourly...),
	}
}
