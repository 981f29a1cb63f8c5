package domain

// FahrenheitToCelsius converts a threshold configured in °F to the °C the
// temperature field is stored in: 95°F → 35°C.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32.0) * 5.0 / 9.0
}

// CelsiusToFahrenheit is the inverse, used for figure labels.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9.0/5.0 + 32.0
}
