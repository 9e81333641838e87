package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserJSONHidesPasswordHash(t *testing.T) {
	u := User{
		ID:           7,
		Username:     "jdoe",
		PasswordHash: "$2a$10$secret",
		Role:         "agent",
		Status:       "active",
		EmployeeCode: "EMP-007",
	}

	data, err := json.Marshal(u)
	require.NoError(t, err)
	require.NotContains(t, string(data), "secret")
	require.Contains(t, string(data), `"employee_code":"EMP-007"`)
}
