package window

// cornerPosition returns the top-left point that places a window of the
// given size in the top-right corner with a margin.
func cornerPosition(screenWidth, screenHeight, width, height int) (x, y int) {
	const margin = 20
	x = screenWidth - width - margin
	y = margin + 30 // Account for top panel
	if x < 0 {
		x = 0
	}
	if y+height > screenHeight {
		y = 0
	}
	return x, y
}
