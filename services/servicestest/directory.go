package servicestest

import (
	"testing"

	"slack-mention-relay/services"
)

// OpenDirectory returns an empty in-memory sqlite directory closed when t ends.
func OpenDirectory(t testing.TB) *services.GormDirectory {
	t.Helper()
	dir, err := services.OpenGormDirectory(":memory:")
	if err != nil {
		t.Fatalf("fail to open test directory: %v", err)
	}
	t.Cleanup(func() { _ = dir.Close() })
	return dir
}
