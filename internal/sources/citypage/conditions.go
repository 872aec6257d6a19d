package citypage

import (
	"strings"

	"github.com/darrenwiens/env-canada/internal/sources"
)

// Conditions are the current observations plus the headline values of the
// first forecast periods.
type Conditions struct {
	Temperature       sources.Field[float64] `json:"temperature"`
	Dewpoint          sources.Field[float64] `json:"dewpoint"`
	WindChill         sources.Field[float64] `json:"wind_chill"`
	Humidex           sources.Field[float64] `json:"humidex"`
	Pressure          sources.Field[float64] `json:"pressure"`
	Tendency          sources.Field[string]  `json:"tendency"`
	Humidity          sources.Field[float64] `json:"humidity"`
	Visibility        sources.Field[float64] `json:"visibility"`
	Condition         sources.Field[string]  `json:"condition"`
	WindSpeed         sources.Field[float64] `json:"wind_speed"`
	WindGust          sources.Field[float64] `json:"wind_gust"`
	WindDirection     sources.Field[string]  `json:"wind_dir"`
	WindBearing       sources.Field[float64] `json:"wind_bearing"`
	HighTemp          sources.Field[float64] `json:"high_temp"`
	LowTemp           sources.Field[float64] `json:"low_temp"`
	UVIndex           sources.Field[float64] `json:"uv_index"`
	PrecipProbability sources.Field[float64] `json:"pop"`
	IconCode          sources.Field[string]  `json:"icon_code"`
	PrecipYesterday   sources.Field[string]  `json:"precip_yesterday"`
	TextSummary       sources.Field[string]  `json:"text_summary"`
	AirQuality        sources.Field[float64] `json:"air_quality"`
}

var labels = map[string][2]string{
	"temperature":      {"Temperature", "Température"},
	"dewpoint":         {"Dew Point", "Point de rosée"},
	"wind_chill":       {"Wind Chill", "Refroidissement éolien"},
	"humidex":          {"Humidex", "Humidex"},
	"pressure":         {"Pressure", "Pression"},
	"tendency":         {"Tendency", "Tendance"},
	"humidity":         {"Humidity", "Humidité"},
	"visibility":       {"Visibility", "Visibilité"},
	"condition":        {"Condition", "Condition"},
	"wind_speed":       {"Wind Speed", "Vitesse de vent"},
	"wind_gust":        {"Wind Gust", "Rafale de vent"},
	"wind_dir":         {"Wind Direction", "Direction de vent"},
	"wind_bearing":     {"Wind Bearing", "Palier de vent"},
	"high_temp":        {"High Temperature", "Haute température"},
	"low_temp":         {"Low Temperature", "Basse température"},
	"uv_index":         {"UV Index", "Indice UV"},
	"pop":              {"Chance of Precip.", "Probabilité d'averses"},
	"icon_code":        {"Icon Code", "Code icône"},
	"precip_yesterday": {"Precipitation Yesterday", "Précipitation d'hier"},
	"text_summary":     {"Forecast", "Prévision"},
	"air_quality":      {"Air Quality Health Index", "Cote air santé"},
}

func label(lang sources.Language, key string) string {
	l := labels[key]
	return lang.Pick(l[0], l[1])
}

func numeric(lang sources.Language, key string, m *measure) sources.Field[float64] {
	f := sources.Field[float64]{Label: label(lang, key)}
	if m != nil {
		f.Value = sources.ParseFloat(m.Text)
		f.Unit = m.Units
	}
	return f
}

func textual(lang sources.Language, key string, m *measure) sources.Field[string] {
	f := sources.Field[string]{Label: label(lang, key)}
	if m != nil {
		f.Value = sources.Text(m.Text)
		f.Unit = m.Units
	}
	return f
}

func (d *siteData) conditions(lang sources.Language) Conditions {
	cc := d.Current
	c := Conditions{
		Temperature:   numeric(lang, "temperature", cc.Temperature),
		Dewpoint:      numeric(lang, "dewpoint", cc.Dewpoint),
		WindChill:     numeric(lang, "wind_chill", cc.WindChill),
		Humidex:       numeric(lang, "humidex", cc.Humidex),
		Pressure:      numeric(lang, "pressure", cc.Pressure),
		Tendency:      sources.Field[string]{Label: label(lang, "tendency")},
		Humidity:      numeric(lang, "humidity", cc.RelativeHumidity),
		Visibility:    numeric(lang, "visibility", cc.Visibility),
		Condition:     textual(lang, "condition", cc.Condition),
		WindSpeed:     numeric(lang, "wind_speed", cc.Wind.Speed),
		WindGust:      numeric(lang, "wind_gust", cc.Wind.Gust),
		WindDirection: textual(lang, "wind_dir", cc.Wind.Direction),
		WindBearing:   numeric(lang, "wind_bearing", cc.Wind.Bearing),
		IconCode:      textual(lang, "icon_code", cc.IconCode),

		HighTemp:          numeric(lang, "high_temp", d.forecastTemperature("high")),
		LowTemp:           numeric(lang, "low_temp", d.forecastTemperature("low")),
		UVIndex:           numeric(lang, "uv_index", d.firstUVIndex()),
		PrecipProbability: numeric(lang, "pop", d.firstPop()),
		PrecipYesterday:   textual(lang, "precip_yesterday", d.Yesterday.Precip),
		TextSummary:       sources.Field[string]{Label: label(lang, "text_summary")},
		AirQuality:        sources.Field[float64]{Label: label(lang, "air_quality")},
	}
	if cc.Pressure != nil {
		c.Tendency.Value = sources.Text(cc.Pressure.Tendency)
	}

	if len(d.ForecastGroup.Forecasts) > 0 {
		f := d.ForecastGroup.Forecasts[0]
		period := strings.TrimSpace(f.Period.Name)
		summary := strings.TrimSpace(f.TextSummary)
		if period != "" && summary != "" {
			s := period + ". " + summary
			c.TextSummary.Value = &s
		}
	}
	return c
}

// forecastTemperature returns the first forecast temperature of class.
func (d *siteData) forecastTemperature(class string) *measure {
	for _, f := range d.ForecastGroup.Forecasts {
		for i := range f.Temperatures {
			if f.Temperatures[i].Class == class {
				return &f.Temperatures[i]
			}
		}
	}
	return nil
}

func (d *siteData) firstUVIndex() *measure {
	for _, f := range d.ForecastGroup.Forecasts {
		if f.UVIndex != nil {
			return f.UVIndex
		}
	}
	return nil
}

func (d *siteData) firstPop() *measure {
	for _, f := range d.ForecastGroup.Forecasts {
		if f.Abbreviated.Pop != nil {
			return f.Abbreviated.Pop
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c Conditions) Clone() Conditions {
	c.Temperature = c.Temperature.Clone()
	c.Dewpoint = c.Dewpoint.Clone()
	c.WindChill = c.WindChill.Clone()
	c.Humidex = c.Humidex.Clone()
	c.Pressure = c.Pressure.Clone()
	c.Tendency = c.Tendency.Clone()
	c.Humidity = c.Humidity.Clone()
	c.Visibility = c.Visibility.Clone()
	c.Condition = c.Condition.Clone()
	c.WindSpeed = c.WindSpeed.Clone()
	c.WindGust = c.WindGust.Clone()
	c.WindDirection = c.WindDirection.Clone()
	c.WindBearing = c.WindBearing.Clone()
	c.HighTemp = c.HighTemp.Clone()
	c.LowTemp = c.LowTemp.Clone()
	c.UVIndex = c.UVIndex.Clone()
	c.PrecipProbability = c.PrecipProbability.Clone()
	c.IconCode = c.IconCode.Clone()
	c.PrecipYesterday = c.PrecipYesterday.Clone()
	c.TextSummary = c.TextSummary.Clone()
	c.AirQuality = c.AirQuality.Clone()
	return c
}
