//go:build !linux

package window

// positionWindow leaves placement to the window manager.
func positionWindow(windowTitle string, width, height int) {}
