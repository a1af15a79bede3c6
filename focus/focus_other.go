//go:build !darwin && !windows

package focus

// X11 and Wayland give no portable answer; injection falls back to the
// focused window.
func frontmost() int { return 0 }
