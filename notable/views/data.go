package views

import "notable/notable/sources/models"

type SignInData struct {
	Email     string
	Error     string
	Providers []string
	// Next is where to go after signing in.
	Next string
}

type ListData struct {
	Notes []models.Note
	Query string
	// View is "grid" or "list".
	View  string
	Total int
}

// NoteFormData backs both the new and the edit page.
type NoteFormData struct {
	ID      string
	Title   string
	Content string
	Summary string
	Error   string
	Saved   bool
}

type DeleteData struct {
	Note *models.Note
	Back string
}
