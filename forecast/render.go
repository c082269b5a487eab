package forecast

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// FahrenheitToCelsius converts a temperature.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) / 1.8
}

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	dayColor     = color.New(color.Bold)
)

// Render writes the current conditions for name followed by the first
// days daily forecasts. flag is shown next to the name.
func Render(w io.Writer, name, flag string, r *Report, days int) {
	headingColor.Fprintln(w, "📅 Daily Forecast:")

	cur := r.Current
	fmt.Fprintf(w, "\n🌡️ Current Weather in %s: %s\n", name, flag)
	if r.Location != "" && !strings.EqualFold(r.Location, name) {
		fmt.Fprintf(w, "  Nearest Area: %s\n", r.Location)
	}
	if cur.Description != "" {
		fmt.Fprintf(w, "  Conditions: %s\n", cur.Description)
	}
	fmt.Fprintf(w, "  Temperature: %s\n", temperature(cur.TemperatureF))
	fmt.Fprintf(w, "  Humidity: %d%%\n", cur.Humidity)
	fmt.Fprintf(w, "  Wind Speed: %d mph, %s (%s)\n", cur.WindSpeedMph, cur.WindDirection.Emoji(), cur.WindDirection.Name())
	fmt.Fprintf(w, "  UV Index: %d (%s)\n\n", cur.UV, cur.UV.Band())

	if days > len(r.Days) || days < 0 {
		days = len(r.Days)
	}
	for _, d := range r.Days[:days] {
		renderDay(w, d)
	}
}

func renderDay(w io.Writer, d Day) {
	dayColor.Fprintf(w, "  Date: %s\n", d.Date.Format("2006-01-02"))
	fmt.Fprintf(w, "  Highest Temperature: %s\n", temperature(d.HighF))
	fmt.Fprintf(w, "  Lowest Temperature: %s\n", temperature(d.LowF))
	fmt.Fprintf(w, "  Sunrise: %s, Sunset: %s\n", d.Sunrise, d.Sunset)
	fmt.Fprintf(w, "  Moon Phase: %s (%s)\n", d.MoonPhase.Emoji(), d.MoonPhase)
	fmt.Fprintf(w, "  Snowfall: %.1f inches\n", d.SnowfallInch)
	fmt.Fprintln(w, "  Hourly Forecast:")
	for _, h := range d.Hours {
		fmt.Fprintf(w, "    → %s: %s, %s\n", h.Time.Format("15:04"), temperature(h.TemperatureF), h.Description)
		fmt.Fprintf(w, "      Wind Speed: %d mph, %s (%s)\n", h.WindSpeedMph, h.WindDirection.Emoji(), h.WindDirection.Name())
		fmt.Fprintf(w, "      Humidity: %d%%, UV Index: %d (%s)\n", h.Humidity, h.UV, h.UV.Band())
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))
}

func temperature(f int) string {
	return fmt.Sprintf("%d°F (%.1f°C)", f, FahrenheitToCelsius(float64(f)))
}
