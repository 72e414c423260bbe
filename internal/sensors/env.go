package sensors

import (
	"fmt"
	"math"
	"sync"

	"github.com/relabs-tech/attitude_computer/internal/config"
	"github.com/relabs-tech/attitude_computer/internal/env"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"
)

var (
	baroDev     *bmxx80.Dev
	baroOnce    sync.Once
	baroInitErr error
)

// initBaro initializes the BMP280 once.
func initBaro() {
	baroOnce.Do(func() {
		cfg := config.Get()
		if cfg.BaroSPIDevice == "" {
			baroInitErr = fmt.Errorf("BARO_SPI_DEVICE not configured")
			return
		}

		if _, err := host.Init(); err != nil {
			baroInitErr = fmt.Errorf("periph host init: %w", err)
			return
		}

		bus, err := spireg.Open(cfg.BaroSPIDevice)
		if err != nil {
			baroInitErr = fmt.Errorf("baro SPI open: %w", err)
			return
		}

		baroDev, err = bmxx80.NewSPI(bus, &bmxx80.DefaultOpts)
		if err != nil {
			baroInitErr = fmt.Errorf("baro init: %w", err)
			return
		}
	})
}

// ReadEnv reads the barometer (temp + pressure) and derives the
// standard-atmosphere pressure altitude.
func ReadEnv() (env.Sample, error) {
	initBaro()
	if baroInitErr != nil {
		return env.Sample{}, baroInitErr
	}

	var e physic.Env
	if err := baroDev.Sense(&e); err != nil {
		return env.Sample{}, fmt.Errorf("baro sense: %w", err)
	}

	pressurePa := float64(e.Pressure) / float64(physic.Pascal)
	return env.Sample{
		Temperature: e.Temperature.Celsius(),
		Pressure:    pressurePa,
		PressureHPa: pressurePa / 100.0,
		Altitude:    44330.0 * (1.0 - math.Pow(pressurePa/101325.0, 0.1903)),
	}, nil
}
