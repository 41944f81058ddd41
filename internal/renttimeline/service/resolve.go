package service

import (
	"rentops_backend/internal/renttimeline/repository"
)

// ResolveActive selects the timeline row active on asOf. Among rows whose
// range covers asOf (validFrom <= asOf and validTo open or >= asOf) the
// first match wins. When no row covers asOf (a gap after the last rent
// change, or asOf predates every row) the row with the greatest validFrom
// is returned instead of an error.
// Date strings are ISO-8601, so lexicographic comparison is date order.
func ResolveActive(rows []repository.Row, asOf string) (repository.Row, bool) {
	for _, row := range rows {
		if row.ValidFrom > asOf {
			continue
		}
		if row.OpenEnded() || *row.ValidTo >= asOf {
			return row, true
		}
	}

	found := false
	var latest repository.Row
	for _, row := range rows {
		if !found || row.ValidFrom > latest.ValidFrom {
			latest = row
			found = true
		}
	}
	return latest, found
}
