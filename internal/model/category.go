package model

// CategoryKeywords is one entry of a CategoryMap.
type CategoryKeywords struct {
	Name     string
	Keywords []string
}

// CategoryMap is the static category → keywords table loaded from configuration.
// Entries keep the order they were declared in; matchers iterate it in that order.
type CategoryMap []CategoryKeywords

// Names returns the category names in declaration order.
func (m CategoryMap) Names() []string {
	names := make([]string, 0, len(m))
	for _, c := range m {
		names = append(names, c.Name)
	}
	return names
}

// Lookup returns the keywords declared for a category.
func (m CategoryMap) Lookup(name string) ([]string, bool) {
	for _, c := range m {
		if c.Name == name {
			return c.Keywords, true
		}
	}
	return nil, false
}

// Has reports whether the category is declared.
func (m CategoryMap) Has(name string) bool {
	_, ok := m.Lookup(name)
	return ok
}

// DefaultCategoryMap returns the built-in map used when no file is configured.
func DefaultCategoryMap() CategoryMap {
	return CategoryMap{
		{Name: "Transport", Keywords: []string{"uber", "fuel", "taxi"}},
		{Name: "Food", Keywords: []string{"groceries", "pizza", "restaurant"}},
		{Name: "Housing", Keywords: []string{"rent"}},
		{Name: "Utilities", Keywords: []string{"internet", "electricity"}},
		{Name: "Communication", Keywords: []string{"airtime", "data"}},
		{Name: "Income", Keywords: []string{"salary", "paycheck"}},
	}
}
