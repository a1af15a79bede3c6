// Package focus reports which application owns keyboard focus.
package focus

// Frontmost returns the pid of the application owning the frontmost window,
// or 0 when it cannot be determined.
func Frontmost() int {
	pid := frontmost()
	if pid < 0 {
		return 0
	}
	return pid
}
