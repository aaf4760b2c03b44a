package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSchemaName_RootFallback(t *testing.T) {
	assert.Equal(t, DefaultSchema, GetSchemaName(""))
	assert.Equal(t, DefaultSchema, GetSchemaName("/"))
}

func TestGetSchemaName_Deterministic(t *testing.T) {
	a := GetSchemaName("/home/dev/my-project")
	b := GetSchemaName("/home/dev/my-project")
	assert.Equal(t, a, b)
}

func TestGetSchemaName_Format(t *testing.T) {
	s := GetSchemaName("/home/dev/my-project")
	assert.True(t, len(s) == 20, "expected specmem_ + 12 hex chars, got %q (len %d)", s, len(s))
	assert.Regexp(t, `^specmem_[0-9a-f]{12}$`, s)
}

func TestGetSchemaName_CaseAndTrailingSlashInsensitive(t *testing.T) {
	a := GetSchemaName("/Home/Dev/My-Project/")
	b := GetSchemaName("/home/dev/my-project")
	assert.Equal(t, a, b)
}

func TestGetSchemaName_DifferentPathsDiffer(t *testing.T) {
	a := GetSchemaName("/home/dev/project-a")
	b := GetSchemaName("/home/dev/project-b")
	assert.NotEqual(t, a, b)
}
