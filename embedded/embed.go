// Package embedded содержит встроенные ресурсы приложения.
// Иконки генерируются скриптом scripts/generate_icons.go.
package embedded

import (
	_ "embed"
)

// IconNoSensor - иконка, пока сенсор не подключён (серая).
//
//go:embed icon_no_sensor.png
var IconNoSensor []byte

// IconWarmingUp - иконка во время прогрева сенсора (оранжевая).
//
//go:embed icon_warming_up.png
var IconWarmingUp []byte

// IconListening - иконка, когда распознавание активно (зелёная).
//
//go:embed icon_listening.png
var IconListening []byte
