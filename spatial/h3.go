// Copyright 2025 The Stadiums Authors
//
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"fmt"

	"github.com/uber/h3-go/v4"
)

// Resolutions at which stadium cells are indexed in the archive.
var H3Resolutions = []int{4, 6, 8}

// H3Cells returns the H3 cell containing c for every resolution in
// H3Resolutions, in the same order.
func (c Coordinate) H3Cells() ([]uint64, error) {
	latLng := h3.NewLatLng(c.Lat, c.Lon)
	ret := make([]uint64, 0, len(H3Resolutions))

	for _, res := range H3Resolutions {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return nil, fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
		}

		ret = append(ret, uint64(cell))
	}

	return ret, nil
}
