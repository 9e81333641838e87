package db

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Without an ON DELETE action Postgres rejects deleting any user that ever
// had a shift, report, position or notification, so the admin delete
// endpoint would 500 on every account with history.
func TestSchemaReferencesCarryOnDeleteActions(t *testing.T) {
	schema, err := os.ReadFile("schema.sql")
	require.NoError(t, err)

	ref := regexp.MustCompile(`REFERENCES (users|shifts)\(id\)([^,\n]*)`)
	matches := ref.FindAllStringSubmatch(string(schema), -1)
	require.NotEmpty(t, matches)

	for _, m := range matches {
		require.Contains(t, strings.ToUpper(m[2]), "ON DELETE", m[0])
	}
}
