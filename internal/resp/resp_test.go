package resp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecoderParsesFullCommand(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"))

	cmd, err := d.Next()
	require.NoError(t, err)
	require.Equal(t, "set", cmd.Name())
	require.Equal(t, [][]byte{[]byte("SET"), []byte("foo"), []byte("bar")}, cmd.Args)
}

func TestDecoderIncompleteDoesNotConsume(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("*2\r\n$3\r\nGET\r\n$3\r\nfo"))

	_, err := d.Next()
	require.Error(t, err)
	require.True(t, IsIncomplete(err))

	d.Feed([]byte("o\r\n"))
	cmd, err := d.Next()
	require.NoError(t, err)
	require.Equal(t, "get", cmd.Name())
}

func TestDecoderMultipleCommandsInOneChunk(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPING\r\n"))

	for i := 0; i < 2; i++ {
		cmd, err := d.Next()
		require.NoError(t, err)
		require.Equal(t, "ping", cmd.Name())
	}
	_, err := d.Next()
	require.True(t, IsIncomplete(err))
}

func TestDecoderRejectsOversizedArray(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("*1048577\r\n"))
	_, err := d.Next()
	require.Error(t, err)
	require.False(t, IsIncomplete(err))
}

func TestDecoderSkipsBlankLines(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("\r\n\r\n*1\r\n$4\r\nPING\r\n"))
	cmd, err := d.Next()
	require.NoError(t, err)
	require.Equal(t, "ping", cmd.Name())
}

func TestEncodeShapes(t *testing.T) {
	require.Equal(t, "$-1\r\n", string(Bytes(NilBulk())))
	require.Equal(t, "$3\r\nbar\r\n", string(Bytes(BulkString("bar"))))
	require.Equal(t, ":42\r\n", string(Bytes(Integer(42))))
	require.Equal(t, "+OK\r\n", string(Bytes(Simple("OK"))))
	require.Equal(t, "-ERR boom\r\n", string(Bytes(Error("ERR boom"))))
	require.Equal(t, "*-1\r\n", string(Bytes(NilArray())))
	require.Equal(t, "*2\r\n$1\r\na\r\n$1\r\nb\r\n", string(Bytes(Array(BulkString("a"), BulkString("b")))))
}
