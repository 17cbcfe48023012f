package model

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserRequest_NewUser(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	req := CreateUserRequest{FirstName: "Ada", LastName: "Lovelace"}

	user := req.NewUser(id)

	assert.Equal(t, id, user.ID)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, "Lovelace", user.LastName)
}

func TestUser_JSONFieldNames(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("0b6e6a52-5d5e-4f0e-9d5a-3f7f4c1e2a10")
	data, err := json.Marshal(User{ID: id, FirstName: "Grace", LastName: "Hopper"})
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"id":"0b6e6a52-5d5e-4f0e-9d5a-3f7f4c1e2a10","first_name":"Grace","last_name":"Hopper"}`,
		string(data),
	)
}
