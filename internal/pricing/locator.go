package pricing

import (
	"fmt"
	"sort"

	"bakery-backend/internal/domain"
)

// FindNearest scans active branches with known coordinates and returns the
// closest one. Candidates are visited in ascending id order and only a
// strictly smaller distance replaces the current best, so ties go to the
// lowest id.
func FindNearest(geo Geo, branches []domain.Branch, lat, lon float64) (domain.NearestBranch, error) {
	if err := ValidateCoordinate(lat, lon); err != nil {
		return domain.NearestBranch{}, err
	}

	candidates := make([]domain.Branch, 0, len(branches))
	for _, b := range branches {
		if b.IsActive && b.HasCoordinates() {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		return domain.NearestBranch{}, fmt.Errorf("%w: no active branch with coordinates", domain.ErrNoBranchAvailable)
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	found := false
	var best domain.NearestBranch
	for _, b := range candidates {
		d, err := geo.Distance(lat, lon, *b.Latitude, *b.Longitude)
		if err != nil {
			// bad stored coordinates disqualify the branch, not the search
			continue
		}
		if !found || d < best.DistanceKm {
			best = domain.NearestBranch{Branch: b, DistanceKm: d}
			found = true
		}
	}
	if !found {
		return domain.NearestBranch{}, fmt.Errorf("%w: no branch with valid coordinates", domain.ErrNoBranchAvailable)
	}
	return best, nil
}
