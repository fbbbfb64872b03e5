package aof

import (
	"errors"
	"fmt"
	"os"

	"redisd/internal/command"
	"redisd/internal/resp"
	"redisd/internal/store"
)

// Replay opens path (if it exists) and feeds its bytes through the RESP
// decoder, dispatching each framed command against ks exactly the way a
// live client connection would (spec.md §4.6: "the same way a client
// would... reuse the production command dispatcher"). disp must have its
// AOF sink detached by the caller beforehand so replayed writes are not
// re-appended (self-amplification). A trailing incomplete command — the
// signature of a crash mid-append — truncates the file to the last
// complete command boundary; Replay then returns normally rather than as
// an error, matching spec.md §4.6's recovery contract.
func Replay(path string, disp *command.Dispatcher, ks *store.Keyspace) (commandsApplied int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("aof: read %s: %w", path, err)
	}

	dec := resp.NewDecoder()
	dec.Feed(data)
	sess := &command.Session{Keyspace: ks, DBIndex: 0, ID: -1, Name: "aof-replay"}

	var protoErr error
	for {
		cmd, derr := dec.Next()
		if derr != nil {
			if resp.IsIncomplete(derr) {
				break
			}
			var pe *resp.ProtocolError
			if errors.As(derr, &pe) {
				protoErr = pe
				break
			}
			return commandsApplied, derr
		}
		if len(cmd.Args) == 0 {
			continue
		}
		reply := disp.Dispatch(sess, cmd)
		_ = reply // replay discards replies; errors from individual commands do not abort recovery
		commandsApplied++
	}

	consumed := len(data) - dec.Buffered()
	if consumed < len(data) {
		// Either a trailing incomplete command or (protoErr != nil) a
		// corrupt tail following otherwise-valid records; both are
		// crash-truncation signatures per spec.md §4.6, so the file is
		// trimmed to the last complete boundary either way.
		if err := os.Truncate(path, int64(consumed)); err != nil {
			return commandsApplied, fmt.Errorf("aof: truncate %s: %w", path, err)
		}
	}
	_ = protoErr
	return commandsApplied, nil
}
