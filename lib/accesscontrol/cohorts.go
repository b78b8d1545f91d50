// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package accesscontrol

import "github.com/podstr-project/podstr/lib/turtle"

// Default mode sets per cohort. Admins hold every mode including
// Control; business accounts can write; ordinary members and guests
// can read and add but not overwrite.
var cohortModes = map[string][]turtle.Mode{
	"admin":    {turtle.Read, turtle.Write, turtle.Append, turtle.Control},
	"business": {turtle.Read, turtle.Write, turtle.Append},
	"member":   {turtle.Read, turtle.Append},
	"guest":    {turtle.Read, turtle.Append},
}

// CohortModes returns the deduplicated union of the named cohorts'
// default mode sets, canonically ordered. Unknown cohort names
// contribute nothing.
func CohortModes(cohorts []string) []turtle.Mode {
	var union []turtle.Mode
	for _, cohort := range cohorts {
		union = append(union, cohortModes[cohort]...)
	}
	return turtle.NormalizeModes(union)
}
