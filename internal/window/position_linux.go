//go:build linux

package window

import (
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// positionWindow moves the window to the top-right corner of the screen.
// Requires xdotool; silently does nothing without it.
func positionWindow(windowTitle string, width, height int) {
	// Give the window time to appear
	time.Sleep(100 * time.Millisecond)

	screenWidth, screenHeight := getScreenSize()
	if screenWidth == 0 || screenHeight == 0 {
		return
	}

	x, y := cornerPosition(screenWidth, screenHeight, width, height)

	output, err := exec.Command("xdotool", "search", "--name", windowTitle).Output()
	if err != nil {
		return
	}

	windowIDs := strings.Fields(string(output))
	if len(windowIDs) == 0 {
		return
	}

	exec.Command("xdotool", "windowmove", windowIDs[0], strconv.Itoa(x), strconv.Itoa(y)).Run()
}

// getScreenSize returns the screen dimensions using xdotool.
func getScreenSize() (width, height int) {
	output, err := exec.Command("xdotool", "getdisplaygeometry").Output()
	if err != nil {
		return 0, 0
	}

	parts := strings.Fields(string(output))
	if len(parts) != 2 {
		return 0, 0
	}

	width, _ = strconv.Atoi(parts[0])
	height, _ = strconv.Atoi(parts[1])
	return width, height
}
