package citypage

import (
	"strings"

	"github.com/darrenwiens/env-canada/internal/sources"
)

// DailyForecast is one period of the text forecast.
type DailyForecast struct {
	Period           string  `json:"period"`
	TextSummary      string  `json:"text_summary"`
	IconCode         string  `json:"icon_code"`
	Temperature      float64 `json:"temperature"`
	TemperatureClass string  `json:"temperature_class"`
}

// HourlyForecast is one hour of the hourly forecast.
type HourlyForecast struct {
	Period            string   `json:"period"`
	Condition         string   `json:"condition"`
	Temperature       *float64 `json:"temperature"`
	IconCode          string   `json:"icon_code"`
	PrecipProbability *float64 `json:"precip_probability"`
}

// Forecasts is the forecast group of a document.
type Forecasts struct {
	Time   string           `json:"forecast_time,omitempty"`
	Daily  []DailyForecast  `json:"daily"`
	Hourly []HourlyForecast `json:"hourly"`
}

// forecasts drops daily periods without a temperature and hourly periods
// without a UTC stamp.
func (d *siteData) forecasts() Forecasts {
	f := Forecasts{
		Time:   firstTimeStamp(d.ForecastGroup.DateTimes),
		Daily:  []DailyForecast{},
		Hourly: []HourlyForecast{},
	}

	for _, e := range d.ForecastGroup.Forecasts {
		if len(e.Temperatures) == 0 {
			continue
		}
		t := e.Temperatures[0]
		v := sources.ParseFloat(t.Text)
		if v == nil {
			continue
		}
		f.Daily = append(f.Daily, DailyForecast{
			Period:           strings.TrimSpace(e.Period.Text),
			TextSummary:      strings.TrimSpace(e.TextSummary),
			IconCode:         strings.TrimSpace(e.Abbreviated.IconCode),
			Temperature:      *v,
			TemperatureClass: t.Class,
		})
	}

	for _, h := range d.Hourly {
		period := strings.TrimSpace(h.DateTimeUTC)
		if period == "" {
			continue
		}
		f.Hourly = append(f.Hourly, HourlyForecast{
			Period:            period,
			Condition:         strings.TrimSpace(h.Condition),
			Temperature:       sources.ParseFloat(h.Temperature.text()),
			IconCode:          strings.TrimSpace(h.IconCode),
			PrecipProbability: sources.ParseFloat(h.Lop.text()),
		})
	}
	return f
}

// Clone returns a deep copy.
func (f Forecasts) Clone() Forecasts {
	out := Forecasts{
		Time:   f.Time,
		Daily:  append([]DailyForecast{}, f.Daily...),
		Hourly: make([]HourlyForecast, len(f.Hourly)),
	}
	for i, h := range f.Hourly {
		if h.Temperature != nil {
			v := *h.Temperature
			h.Temperature = &v
		}
		if h.PrecipProbability != nil {
			v := *h.PrecipProbability
			h.PrecipProbability = &v
		}
		out.Hourly[i] = h
	}
	return out
}
