package env

// Sample represents a single environmental measurement (BMP280).
type Sample struct {
	Temperature float64 `json:"temp_c"`      // °C
	Pressure    float64 `json:"pressure_pa"` // Pa
	PressureHPa float64 `json:"pressure_hpa"`
	// Altitude is the ICAO standard-atmosphere pressure altitude in
	// meters, not a GPS altitude.
	Altitude float64 `json:"altitude_m"`
}
