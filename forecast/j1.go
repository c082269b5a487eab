package forecast

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// j1 payload as served by wttr.in with ?format=j1. Every scalar is a string.
type j1Payload struct {
	CurrentCondition []j1Condition `json:"current_condition"`
	NearestArea      []j1Area      `json:"nearest_area"`
	Weather          []j1Day       `json:"weather"`
}

type j1Value struct {
	Value string `json:"value"`
}

type j1Condition struct {
	TempF          string    `json:"temp_F"`
	Humidity       string    `json:"humidity"`
	WindspeedMiles string    `json:"windspeedMiles"`
	Winddir16Point string    `json:"winddir16Point"`
	UVIndex        string    `json:"uvIndex"`
	WeatherDesc    []j1Value `json:"weatherDesc"`
}

type j1Area struct {
	AreaName []j1Value `json:"areaName"`
	Country  []j1Value `json:"country"`
}

type j1Day struct {
	Date        string        `json:"date"`
	MaxTempF    string        `json:"maxtempF"`
	MinTempF    string        `json:"mintempF"`
	TotalSnowCm string        `json:"totalSnow_cm"`
	Astronomy   []j1Astronomy `json:"astronomy"`
	Hourly      []j1Hour      `json:"hourly"`
}

type j1Astronomy struct {
	Sunrise   string `json:"sunrise"`
	Sunset    string `json:"sunset"`
	MoonPhase string `json:"moon_phase"`
}

type j1Hour struct {
	Time           string    `json:"time"` // "0", "300", ... "2100"
	TempF          string    `json:"tempF"`
	WindspeedMiles string    `json:"windspeedMiles"`
	Winddir16Point string    `json:"winddir16Point"`
	Humidity       string    `json:"humidity"`
	UVIndex        string    `json:"uvIndex"`
	WeatherDesc    []j1Value `json:"weatherDesc"`
}

const cmPerInch = 2.54

func (p *j1Payload) report() (*Report, error) {
	if len(p.CurrentCondition) == 0 {
		return nil, fmt.Errorf("payload has no current_condition")
	}

	cur, err := p.CurrentCondition[0].current()
	if err != nil {
		return nil, fmt.Errorf("current_condition: %w", err)
	}
	r := &Report{Current: cur}

	if len(p.NearestArea) > 0 {
		a := p.NearestArea[0]
		parts := make([]string, 0, 2)
		if v := first(a.AreaName); v != "" {
			parts = append(parts, v)
		}
		if v := first(a.Country); v != "" {
			parts = append(parts, v)
		}
		r.Location = strings.Join(parts, ", ")
	}

	for i, w := range p.Weather {
		d, err := w.day()
		if err != nil {
			return nil, fmt.Errorf("weather[%d]: %w", i, err)
		}
		r.Days = append(r.Days, d)
	}
	return r, nil
}

func (c j1Condition) current() (Current, error) {
	var (
		out Current
		p   numParser
	)
	out.TemperatureF = p.atoi("temp_F", c.TempF)
	out.Humidity = p.atoi("humidity", c.Humidity)
	out.WindSpeedMph = p.atoi("windspeedMiles", c.WindspeedMiles)
	out.UV = UVIndex(p.atoi("uvIndex", c.UVIndex))
	out.WindDirection = WindDirection(c.Winddir16Point)
	out.Description = first(c.WeatherDesc)
	return out, p.err
}

func (w j1Day) day() (Day, error) {
	date, err := time.Parse("2006-01-02", w.Date)
	if err != nil {
		return Day{}, fmt.Errorf("date: %w", err)
	}

	var p numParser
	d := Day{
		Date:         date,
		HighF:        p.atoi("maxtempF", w.MaxTempF),
		LowF:         p.atoi("mintempF", w.MinTempF),
		SnowfallInch: p.atof("totalSnow_cm", w.TotalSnowCm) / cmPerInch,
	}
	if len(w.Astronomy) > 0 {
		d.Sunrise = w.Astronomy[0].Sunrise
		d.Sunset = w.Astronomy[0].Sunset
		d.MoonPhase = MoonPhase(w.Astronomy[0].MoonPhase)
	}

	for _, h := range w.Hourly {
		hhmm := p.atoi("time", h.Time)
		d.Hours = append(d.Hours, Hour{
			Time:          date.Add(time.Duration(hhmm/100)*time.Hour + time.Duration(hhmm%100)*time.Minute),
			TemperatureF:  p.atoi("tempF", h.TempF),
			WindSpeedMph:  p.atoi("windspeedMiles", h.WindspeedMiles),
			WindDirection: WindDirection(h.Winddir16Point),
			Humidity:      p.atoi("humidity", h.Humidity),
			UV:            UVIndex(p.atoi("uvIndex", h.UVIndex)),
			Description:   first(h.WeatherDesc),
		})
	}
	return d, p.err
}

// numParser parses string fields and keeps the first error.
type numParser struct {
	err error
}

func (p *numParser) atoi(field, s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", field, err)
	}
	return n
}

func (p *numParser) atof(field, s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", field, err)
	}
	return f
}

func first(vs []j1Value) string {
	if len(vs) == 0 {
		return ""
	}
	return strings.TrimSpace(vs[0].Value)
}
