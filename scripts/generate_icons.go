//go:build ignore

// Скрипт для генерации иконок трея по состояниям сенсора.
// Запуск: go run scripts/generate_icons.go
package main

import (
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
)

func main() {
	dir := "embedded"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("Не удалось создать директорию %s: %v", dir, err)
	}

	icons := []struct {
		name  string
		color color.RGBA
	}{
		{"icon_no_sensor.png", color.RGBA{128, 128, 128, 255}}, // Серый
		{"icon_warming_up.png", color.RGBA{230, 160, 50, 255}}, // Оранжевый
		{"icon_listening.png", color.RGBA{60, 180, 90, 255}},   // Зелёный
	}

	for _, icon := range icons {
		path := filepath.Join(dir, icon.name)
		if err := generateIcon(path, icon.color); err != nil {
			log.Fatalf("Ошибка генерации %s: %v", icon.name, err)
		}
		log.Printf("Создан: %s", path)
	}
}

func generateIcon(path string, c color.RGBA) error {
	const size = 64
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	// Корпус сенсора: скруглённая полоса
	for y := 22; y < 38; y++ {
		for x := 6; x < size-6; x++ {
			img.Set(x, y, c)
		}
	}

	// Решётки микрофонов
	dark := color.RGBA{c.R / 3, c.G / 3, c.B / 3, 255}
	for _, cx := range []int{14, 26, 38, 50} {
		for y := 27; y < 33; y++ {
			for x := cx - 2; x <= cx+2; x++ {
				img.Set(x, y, dark)
			}
		}
	}

	// Подставка
	for y := 38; y < 50; y++ {
		for x := size/2 - 3; x <= size/2+3; x++ {
			img.Set(x, y, c)
		}
	}
	for y := 50; y < 54; y++ {
		for x := size/2 - 12; x <= size/2+12; x++ {
			img.Set(x, y, c)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}
