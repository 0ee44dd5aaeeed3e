package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverySnapshot(t *testing.T) {
	ResetRecoveries()

	Recovery(KindClamp)
	Recovery(KindClamp)
	Recovery(KindTimestampParse)

	snap := RecoverySnapshot()
	assert.Equal(t, int64(2), snap[KindClamp])
	assert.Equal(t, int64(1), snap[KindTimestampParse])

	// Snapshot is a copy, not the live map.
	snap[KindClamp] = 99
	assert.Equal(t, int64(2), RecoverySnapshot()[KindClamp])
}
