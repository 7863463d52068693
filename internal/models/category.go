package models

// Category is a user-defined label with a display color.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DefaultCategories returns the categories seeded on first run.
func DefaultCategories() []Category {
	return []Category{
		{ID: "cat-1", Name: "Legal", Color: "#ef4444"},
		{ID: "cat-2", Name: "Finance", Color: "#10b981"},
		{ID: "cat-3", Name: "Personal", Color: "#ec4899"},
		{ID: "cat-4", Name: "Work", Color: "#06b6d4"},
	}
}
