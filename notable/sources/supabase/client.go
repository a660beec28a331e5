// Package supabase stores notes in a Supabase project through PostgREST and
// authenticates users against its GoTrue server. Every store is opened with
// the caller's access token so the project's row-level policies apply.
package supabase

import (
	"strings"

	"notable/notable/utils/apperrors"

	supa "github.com/supabase-community/supabase-go"
)

const notesTable = "notes"

type Config struct {
	URL     string
	AnonKey string
}

// newClient builds a client whose requests carry accessToken as the bearer.
// An empty token falls back to the anon key.
func newClient(cfg Config, accessToken string) (*supa.Client, error) {
	var opts *supa.ClientOptions
	if accessToken != "" {
		opts = &supa.ClientOptions{
			Headers: map[string]string{"Authorization": "Bearer " + accessToken},
		}
	}
	return supa.NewClient(cfg.URL, cfg.AnonKey, opts)
}

// classify maps a PostgREST failure onto the error taxonomy. Expired or
// rejected JWTs surface as auth errors so the session gets renewed.
func classify(op string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "JWT") || strings.Contains(msg, "PGRST301") || strings.Contains(msg, "PGRST302") {
		return apperrors.AuthWrap(op, "session expired", err)
	}
	return apperrors.Store(op, err)
}
