//go:build cgo
// +build cgo

package main

import (
	"github.com/carbocation/flowcompass/countmatrix"
)

func writeSQLite(path string, paired countmatrix.Paired) error {
	db, err := countmatrix.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := countmatrix.WriteSQLite(db, ConditionStim, paired.Stimulated); err != nil {
		return err
	}

	return countmatrix.WriteSQLite(db, ConditionUnstim, paired.Unstimulated)
}
