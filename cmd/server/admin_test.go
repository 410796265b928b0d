package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	old := readPassword
	readPassword = func(string) (string, error) {
		if len(answers) == 0 {
			return "", errors.New("no input")
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	t.Cleanup(func() {
		readPassword = old
		adminEmail, adminGenerate = "", false
	})
}

func TestAdminInput_Prompted(t *testing.T) {
	stubPasswords(t, "difference-engine", "difference-engine")
	adminEmail = "root@example.org"

	in, err := adminInput()
	require.NoError(t, err)
	assert.Equal(t, "root@example.org", in.Email)
	assert.Equal(t, "difference-engine", in.Password)
}

func TestAdminInput_Mismatch(t *testing.T) {
	stubPasswords(t, "difference-engine", "analytical-engine")

	_, err := adminInput()
	assert.EqualError(t, err, "passwords do not match")
}

func TestAdminInput_Empty(t *testing.T) {
	stubPasswords(t, "", "")

	_, err := adminInput()
	assert.Error(t, err)
}

func TestAdminInput_Generate(t *testing.T) {
	stubPasswords(t)
	adminGenerate = true

	in, err := adminInput()
	require.NoError(t, err)
	assert.Empty(t, in.Password)
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	for _, name := range []string{"serve", "migrate", "seed", "admin"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
	for _, name := range []string{"config", "dsn", "port", "log-format"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}
