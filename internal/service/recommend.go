package service

// Recommend picks one record per name. A stable record beats an unstable
// one; between records of equal stability the strictly later ModifiedAt wins,
// so earlier input wins ties. Names keep their first-appearance order.
func Recommend(images []Image) []Image {
	best := make(map[string]int, len(images))
	result := make([]Image, 0, len(images))

	for _, candidate := range images {
		idx, seen := best[candidate.Name]
		if !seen {
			best[candidate.Name] = len(result)
			result = append(result, candidate)
			continue
		}
		if outranks(&candidate, &result[idx]) {
			result[idx] = candidate
		}
	}

	return result
}

// RecommendSecondary is Recommend restricted to records with a secondary
// channel pull reference
func RecommendSecondary(images []Image) []Image {
	withSecondary := make([]Image, 0, len(images))
	for _, img := range images {
		if img.HasSecondary() {
			withSecondary = append(withSecondary, img)
		}
	}
	return Recommend(withSecondary)
}

func outranks(candidate, current *Image) bool {
	if candidate.Stable != current.Stable {
		return candidate.Stable
	}
	return candidate.ModifiedAt.After(current.ModifiedAt)
}
