package engine_test

import (
	"os"
	"testing"

	"codeberg.org/halvard/affinityctl/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init(false, false, false)
	os.Exit(m.Run())
}
