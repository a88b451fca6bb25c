// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

package textutils

import "testing"

func TestLowerASCIIFolding(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Estádio do Maracanã", "estadio do maracana"},
		{"  Signal Iduna Park ", "signal iduna park"},
		{"Ülker Stadyumu", "ulker stadyumu"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := LowerASCIIFolding(tc.input); got != tc.expected {
			t.Errorf("%q: expected %q but got %q", tc.input, tc.expected, got)
		}
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"74\u00a0310", "74 310"},
		{"\n  Old   Trafford\t", "Old Trafford"},
		{"Manchester, Greater Manchester", "Manchester, Greater Manchester"},
		{"Sa\u0303o Paulo", "S\u00e3o Paulo"},
		{"   ", ""},
	}

	for _, tc := range tests {
		if got := Clean(tc.input); got != tc.expected {
			t.Errorf("%q: expected %q but got %q", tc.input, tc.expected, got)
		}
	}
}
