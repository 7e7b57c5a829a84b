package models

// Theme is the persisted UI appearance preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is one of the known themes
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}
