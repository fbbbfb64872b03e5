package conn

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"redisd/internal/command"
	"redisd/internal/store"
)

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	ks := store.NewKeyspace(16)
	disp := command.NewDispatcher(zap.NewNop())
	srv := New(ks, disp, zap.NewNop(), nil, Options{Binds: []string{"127.0.0.1"}, Port: 0}, false)
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	addr := srv.listeners[0].Addr().String()
	return srv, addr
}

func TestConnPingPongOverSocket(t *testing.T) {
	_, addr := startTestServer(t)

	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Write([]byte("*1\r\n$4\r\nPING\r\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(c)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "+PONG\r\n", line)
}

func TestConnSetThenGet(t *testing.T) {
	_, addr := startTestServer(t)

	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer c.Close()
	reader := bufio.NewReader(c)

	_, err = c.Write([]byte("*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n"))
	require.NoError(t, err)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "+OK\r\n", line)

	_, err = c.Write([]byte("*2\r\n$3\r\nGET\r\n$1\r\nk\r\n"))
	require.NoError(t, err)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "$1\r\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "v\r\n", line)
}

func TestConnQuitClosesSocket(t *testing.T) {
	_, addr := startTestServer(t)

	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer c.Close()
	reader := bufio.NewReader(c)

	_, err = c.Write([]byte("*1\r\n$4\r\nQUIT\r\n"))
	require.NoError(t, err)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "+OK\r\n", line)

	_, err = reader.ReadByte()
	require.Error(t, err)
}

func TestConnPubSubDeliversMessageToSubscriber(t *testing.T) {
	_, addr := startTestServer(t)

	sub, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer sub.Close()
	subReader := bufio.NewReader(sub)

	_, err = sub.Write([]byte("*2\r\n$9\r\nSUBSCRIBE\r\n$4\r\nnews\r\n"))
	require.NoError(t, err)
	// subscribe confirmation: *3 array of ["subscribe","news",1]
	for i := 0; i < 6; i++ {
		_, err = subReader.ReadString('\n')
		require.NoError(t, err)
	}

	pub, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer pub.Close()
	pubReader := bufio.NewReader(pub)
	_, err = pub.Write([]byte("*3\r\n$7\r\nPUBLISH\r\n$4\r\nnews\r\n$5\r\nhello\r\n"))
	require.NoError(t, err)
	line, err := pubReader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ":1\r\n", line)

	sub.SetReadDeadline(time.Now().Add(2 * time.Second))
	var lines []string
	for i := 0; i < 7; i++ {
		l, err := subReader.ReadString('\n')
		require.NoError(t, err)
		lines = append(lines, l)
	}
	require.Contains(t, lines, "hello\r\n")
}
