package fingerprint

import (
	"fmt"
	"math/rand"
	"time"
)

// GenerateXacfSensorData builds an x-acf-sensor-data payload for Akamai Bot
// Manager's mobile SDK sensor, the format and field ordering ported
// verbatim from the reference implementation: version|bundleID|device
// model|OS version|timestamp|screenWxH|touch-event string|a 3-digit
// counter|accelerometer triple|a 5-digit counter.
func GenerateXacfSensorData(bundleID, version string) string {
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404

	const (
		deviceModel = "iPhone14,3"
		osVersion   = "18.1"
		screenW     = 1170
		screenH     = 2532
	)

	timestamp := time.Now().UnixMilli()

	touchCount := 3 + rng.Intn(5) // [3, 8)
	var touchEvents string
	t := timestamp - int64(2000+rng.Intn(3000))
	for i := 0; i < touchCount; i++ {
		x := 50 + rng.Intn(screenW-100)
		y := 100 + rng.Intn(screenH-200)
		pressure := 0.1 + rng.Float64()*0.8
		touchEvents += fmt.Sprintf("%d,%d,%d,%.2f;", t, x, y, pressure)
		t += int64(100 + rng.Intn(700))
	}

	accelX := -0.5 + rng.Float64()
	accelY := -9.9 + rng.Float64()*0.3
	accelZ := -0.3 + rng.Float64()*0.6

	return fmt.Sprintf(
		"%s|%s|%s|%s|%d|%dx%d|%s|%d|%.4f,%.4f,%.4f|%d",
		version, bundleID, deviceModel, osVersion, timestamp,
		screenW, screenH, touchEvents, 100+rng.Intn(899),
		accelX, accelY, accelZ, 10000+rng.Intn(89999),
	)
}
