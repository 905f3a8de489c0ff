//go:build !linux || !cgo

package generic

import (
	"errors"

	"gitlab.com/tinyland/lab/boardtop/collectors"
)

func openNVML() (Device, error) {
	return nil, collectors.Unavailable(errors.New("nvml requires a cgo build on linux"))
}
