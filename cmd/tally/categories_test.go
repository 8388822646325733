package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoriesCmd(t *testing.T) {
	cmd := categoriesCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.ElementsMatch(t, []string{"add", "list", "delete"}, names)
}

func TestDeleteCategoryCmdForceFlag(t *testing.T) {
	cmd := deleteCategoryCmd()

	flag := cmd.Flag("force")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}
