package memsql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDB_Query(t *testing.T) {
	db := New(nil)

	out, err := db.Query("CREATE TABLE users (id INT, name TEXT);")
	require.NoError(t, err)
	require.Equal(t, "Table 'users' created", out)

	_, err = db.Query("INSERT INTO users VALUES (1, 'ann'), (2, 'bob');")
	require.NoError(t, err)

	out, err = db.Query("SELECT * FROM users WHERE name = 'bob';")
	require.NoError(t, err)
	require.Equal(t, `[[2,"bob"]]`, out)

	res, err := db.Exec("SELECT * FROM users;")
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	require.Equal(t, "ann", res.Rows[0][1].AsText())

	_, err = db.Exec("SELECT * FROM nope;")
	require.ErrorIs(t, err, ErrTableNotFound)

	require.Equal(t, []string{"users"}, db.Tables())
}
