// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/footballde/stadiums/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
