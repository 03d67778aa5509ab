package scan

// Dedupe collapses movies sharing a duplicate key, keeping the first of each.
// Movies without any identifier are always kept. The dropped movies are
// returned in their original order.
func Dedupe(movies []Movie) (kept, dropped []Movie) {
	seen := make(map[string]struct{}, len(movies))
	for _, m := range movies {
		key := m.DuplicateKey()
		if key == "" {
			kept = append(kept, m)
			continue
		}
		if _, ok := seen[key]; ok {
			dropped = append(dropped, m)
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, m)
	}
	return kept, dropped
}

// FilterExisting drops movies whose duplicate key is already present in the
// destination library, as reported by library.ExistingIDs.
func FilterExisting(movies []Movie, existing map[string]struct{}) (kept, skipped []Movie) {
	if len(existing) == 0 {
		return movies, nil
	}
	for _, m := range movies {
		if _, ok := existing[m.DuplicateKey()]; ok {
			skipped = append(skipped, m)
			continue
		}
		kept = append(kept, m)
	}
	return kept, skipped
}
