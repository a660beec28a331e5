package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signIn struct {
	Email    string `validate:"required,email"`
	Password string `validate:"notblank"`
	Driver   string `validate:"oneof=supabase postgres memory"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(signIn{Email: "a@b.co", Password: "pw", Driver: "memory"}))

	err := Struct(signIn{Email: "nope", Password: "   ", Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email must be a valid email")
	assert.Contains(t, err.Error(), "password is required")
	assert.Contains(t, err.Error(), "driver must be one of: supabase postgres memory")
}
