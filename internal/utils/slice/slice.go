package slice

// Contains reports whether str is in slice.
func Contains(slice []string, str string) bool {
	for _, item := range slice {
		if item == str {
			return true
		}
	}
	return false
}

// Strings returns the string elements of a decoded YAML or JSON list in
// order, skipping maps, numbers and other values.
func Strings(input []interface{}) []string {
	result := make([]string, 0, len(input))
	for _, v := range input {
		if s, ok := v.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

// Unique returns the elements of input without repeats, keeping the first
// occurrence of each.
func Unique(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, s := range input {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		result = append(result, s)
	}
	return result
}
