package obs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerBuildsBothModes(t *testing.T) {
	prod, err := NewLogger(false)
	require.NoError(t, err)
	require.NotNil(t, prod)

	dev, err := NewLogger(true)
	require.NoError(t, err)
	require.NotNil(t, dev)
}
