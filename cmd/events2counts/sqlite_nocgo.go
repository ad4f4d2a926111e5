//go:build !cgo
// +build !cgo

package main

import (
	"fmt"

	"github.com/carbocation/flowcompass/countmatrix"
)

func writeSQLite(path string, paired countmatrix.Paired) error {
	return fmt.Errorf("This binary was built without cgo, so it cannot write SQLite output to %s", path)
}
