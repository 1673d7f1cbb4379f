//go:build tinygo

package main

import (
	"context"

	"rtsense/app"
	"rtsense/hal"
)

func main() {
	// Run only returns if the scheduler could not start.
	panic(app.Run(context.Background(), hal.New()))
}
