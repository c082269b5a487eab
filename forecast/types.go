package forecast

import "time"

// Report is a forecast for one location, in imperial units.
type Report struct {
	Location string // provider's nearest area, "Paris, France"
	Current  Current
	Days     []Day
}

// Current holds the observed conditions.
type Current struct {
	TemperatureF  int
	Humidity      int // percent
	WindSpeedMph  int
	WindDirection WindDirection
	UV            UVIndex
	Description   string
}

// Day is one daily forecast.
type Day struct {
	Date         time.Time
	HighF        int
	LowF         int
	Sunrise      string
	Sunset       string
	MoonPhase    MoonPhase
	SnowfallInch float64
	Hours        []Hour
}

// Hour is one 3-hourly reading within a Day.
type Hour struct {
	Time          time.Time
	TemperatureF  int
	Description   string
	WindSpeedMph  int
	WindDirection WindDirection
	Humidity      int
	UV            UVIndex
}

// UVIndex is the ultraviolet index reported by the provider.
type UVIndex int

// Band returns the WHO exposure category for the index.
func (u UVIndex) Band() string {
	switch {
	case u <= 2:
		return "Low"
	case u <= 5:
		return "Moderate"
	case u <= 7:
		return "High"
	case u <= 10:
		return "Very High"
	}
	return "Extreme"
}

// WindDirection is a 16-point compass abbreviation such as "NNE".
type WindDirection string

var windNames = map[WindDirection]string{
	"N": "North", "NNE": "North-northeast", "NE": "Northeast", "ENE": "East-northeast",
	"E": "East", "ESE": "East-southeast", "SE": "Southeast", "SSE": "South-southeast",
	"S": "South", "SSW": "South-southwest", "SW": "Southwest", "WSW": "West-southwest",
	"W": "West", "WNW": "West-northwest", "NW": "Northwest", "NNW": "North-northwest",
}

// Name returns the spelled-out direction, or the raw value if unknown.
func (d WindDirection) Name() string {
	if n, ok := windNames[d]; ok {
		return n
	}
	return string(d)
}

// Emoji returns an arrow for the direction's octant.
func (d WindDirection) Emoji() string {
	switch d {
	case "N":
		return "⬆️"
	case "NNE", "NE", "ENE":
		return "↗️"
	case "E":
		return "➡️"
	case "ESE", "SE", "SSE":
		return "↘️"
	case "S":
		return "⬇️"
	case "SSW", "SW", "WSW":
		return "↙️"
	case "W":
		return "⬅️"
	case "WNW", "NW", "NNW":
		return "↖️"
	}
	return "❔"
}

// MoonPhase is the provider's phase name, e.g. "Waxing Gibbous".
type MoonPhase string

var moonEmoji = map[MoonPhase]string{
	"New Moon":        "🌑",
	"Waxing Crescent": "🌒",
	"First Quarter":   "🌓",
	"Waxing Gibbous":  "🌔",
	"Full Moon":       "🌕",
	"Waning Gibbous":  "🌖",
	"Last Quarter":    "🌗",
	"Waning Crescent": "🌘",
}

func (p MoonPhase) Emoji() string {
	if e, ok := moonEmoji[p]; ok {
		return e
	}
	return "🌙"
}
