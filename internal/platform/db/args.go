package db

// OptionalText maps an empty filter value to SQL NULL.
func OptionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
