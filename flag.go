package geoweather

// FlagUnknown is returned by Flag for codes that are not two ASCII letters.
const FlagUnknown = ":question:"

// regionalIndicatorA is REGIONAL INDICATOR SYMBOL LETTER A.
const regionalIndicatorA = 0x1F1E6

// Flag returns the emoji flag for an ISO 3166-1 alpha-2 code ("US" -> 🇺🇸).
// Lowercase letters are accepted.
func Flag(code string) string {
	if len(code) != 2 {
		return FlagUnknown
	}
	runes := make([]rune, 0, 2)
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'Z' {
			return FlagUnknown
		}
		runes = append(runes, rune(regionalIndicatorA+int(c-'A')))
	}
	return string(runes)
}
