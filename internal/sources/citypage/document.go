package citypage

import (
	"strings"

	"github.com/darrenwiens/env-canada/internal/datamart"
)

// measure is any element whose text is a value and whose attributes qualify it.
type measure struct {
	Text     string `xml:",chardata"`
	Units    string `xml:"units,attr"`
	Class    string `xml:"class,attr"`
	Tendency string `xml:"tendency,attr"`
}

func (m *measure) text() string {
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m.Text)
}

type dateTime struct {
	Name      string `xml:"name,attr"`
	Zone      string `xml:"zone,attr"`
	TimeStamp string `xml:"timeStamp"`
}

type warningEvent struct {
	Type        string `xml:"type,attr"`
	Priority    string `xml:"priority,attr"`
	Description string `xml:"description,attr"`
}

type forecastElem struct {
	Period struct {
		Name string `xml:"textForecastName,attr"`
		Text string `xml:",chardata"`
	} `xml:"period"`
	TextSummary string `xml:"textSummary"`
	Abbreviated struct {
		IconCode string   `xml:"iconCode"`
		Pop      *measure `xml:"pop"`
	} `xml:"abbreviatedForecast"`
	Temperatures []measure `xml:"temperatures>temperature"`
	UVIndex      *measure  `xml:"uv>index"`
}

type hourlyElem struct {
	DateTimeUTC string   `xml:"dateTimeUTC,attr"`
	Condition   string   `xml:"condition"`
	Temperature *measure `xml:"temperature"`
	IconCode    string   `xml:"iconCode"`
	Lop         *measure `xml:"lop"`
}

type siteData struct {
	Location struct {
		Name string `xml:"name"`
	} `xml:"location"`

	Warnings struct {
		URL    string         `xml:"url,attr"`
		Events []warningEvent `xml:"event"`
	} `xml:"warnings"`

	Current struct {
		Station          string     `xml:"station"`
		DateTimes        []dateTime `xml:"dateTime"`
		Condition        *measure   `xml:"condition"`
		IconCode         *measure   `xml:"iconCode"`
		Temperature      *measure   `xml:"temperature"`
		Dewpoint         *measure   `xml:"dewpoint"`
		WindChill        *measure   `xml:"windChill"`
		Humidex          *measure   `xml:"humidex"`
		Pressure         *measure   `xml:"pressure"`
		Visibility       *measure   `xml:"visibility"`
		RelativeHumidity *measure   `xml:"relativeHumidity"`
		Wind             struct {
			Speed     *measure `xml:"speed"`
			Gust      *measure `xml:"gust"`
			Direction *measure `xml:"direction"`
			Bearing   *measure `xml:"bearing"`
		} `xml:"wind"`
	} `xml:"currentConditions"`

	ForecastGroup struct {
		DateTimes []dateTime     `xml:"dateTime"`
		Forecasts []forecastElem `xml:"forecast"`
	} `xml:"forecastGroup"`

	Hourly []hourlyElem `xml:"hourlyForecastGroup>hourlyForecast"`

	Yesterday struct {
		Precip *measure `xml:"precip"`
	} `xml:"yesterdayConditions"`
}

func parseDocument(data []byte) (*siteData, error) {
	var doc siteData
	if err := datamart.DecodeXML(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func firstTimeStamp(dts []dateTime) string {
	for _, dt := range dts {
		if ts := strings.TrimSpace(dt.TimeStamp); ts != "" {
			return ts
		}
	}
	return ""
}

// Metadata identifies the document a snapshot came from.
type Metadata struct {
	Timestamp string `json:"timestamp,omitempty"`
	Location  string `json:"location,omitempty"`
	Station   string `json:"station,omitempty"`
}

func (d *siteData) metadata() Metadata {
	return Metadata{
		Timestamp: firstTimeStamp(d.Current.DateTimes),
		Location:  strings.TrimSpace(d.Location.Name),
		Station:   strings.TrimSpace(d.Current.Station),
	}
}
