//go:build !darwin

package clipboard

import "github.com/atotto/clipboard"

func readText() (string, error) {
	return clipboard.ReadAll()
}
