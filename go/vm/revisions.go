// Copyright (c) 2025 Tokamak Network
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file.
//
// Change Date: 2029-6-30
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package vm

import (
	"fmt"
	"strings"
)

func (r Revision) String() string {
	switch r {
	case R07_Istanbul:
		return "Istanbul"
	case R09_Berlin:
		return "Berlin"
	case R10_London:
		return "London"
	case R11_Paris:
		return "Paris"
	case R12_Shanghai:
		return "Shanghai"
	case R13_Cancun:
		return "Cancun"
	case R99_UnknownNextRevision:
		return "UnknownNextRevision"
	default:
		return fmt.Sprintf("Revision(%d)", r)
	}
}

// ParseRevision resolves a case-insensitive revision name into its Revision
// value. An error is reported for unknown names.
func ParseRevision(name string) (Revision, error) {
	switch strings.ToLower(name) {
	case "istanbul":
		return R07_Istanbul, nil
	case "berlin":
		return R09_Berlin, nil
	case "london":
		return R10_London, nil
	case "paris":
		return R11_Paris, nil
	case "shanghai":
		return R12_Shanghai, nil
	case "cancun":
		return R13_Cancun, nil
	default:
		return 0, fmt.Errorf("unknown revision: %s", name)
	}
}

// AllKnownRevisions lists every revision with defined semantics, in order.
func AllKnownRevisions() []Revision {
	res := make([]Revision, 0, numRevisions-1)
	for r := R07_Istanbul; r <= R13_Cancun; r++ {
		res = append(res, r)
	}
	return res
}
