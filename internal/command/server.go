package command

import (
	"fmt"
	"strings"

	"redisd/internal/resp"
	"redisd/internal/store"
	"redisd/internal/sysinfo"
)

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func (d *Dispatcher) registerServer() {
	d.register("PING", -1, false, true, cmdPing)
	d.register("ECHO", 2, false, false, cmdEcho)
	d.register("QUIT", 1, false, true, cmdQuit)
	d.register("INFO", -1, false, false, cmdInfo)
	d.register("CONFIG", -2, false, false, cmdConfig)
	d.register("CLIENT", -2, false, true, cmdClient)
	d.register("DEBUG", -2, false, false, cmdDebug)
	d.register("OBJECT", -2, false, false, cmdObject)
	d.register("COMMAND", -1, false, false, cmdCommandCount)
}

func cmdPing(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	if len(args) >= 2 {
		return resp.Bulk(args[1]), nil
	}
	if sess.InSubscribeMode() {
		return resp.Array(resp.BulkString("pong"), resp.BulkString("")), nil
	}
	return resp.Simple("PONG"), nil
}

func cmdEcho(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	return resp.Bulk(args[1]), nil
}

func cmdQuit(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	sess.quit = true
	return resp.Simple("OK"), nil
}

// defaultConfigParams seeds the CONFIG GET/SET table with fixed Redis
// stock defaults clients commonly probe (maxmemory, appendonly,
// databases, ...) so CONFIG GET '*' looks like a real server's rather
// than an empty shell. The values are not read from the running
// server's configuration, and bind/port are not in the table.
func defaultConfigParams() map[string]string {
	return map[string]string{
		"maxmemory":          "0",
		"maxmemory-policy":   "noeviction",
		"appendonly":         "yes",
		"appendfsync":        "everysec",
		"databases":          "16",
		"tcp-keepalive":      "300",
		"timeout":            "0",
		"save":               "3600 1 300 100 60 10000",
		"dir":                ".",
	}
}

func cmdConfig(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	switch {
	case eqFold(args[1], "GET"):
		if len(args) != 3 {
			return nil, store.ErrSyntax
		}
		pattern := string(args[2])
		d.configMu.Lock()
		defer d.configMu.Unlock()
		items := make([]*resp.Reply, 0)
		for k, v := range d.config {
			if store.GlobMatch(pattern, k) {
				items = append(items, resp.BulkString(k), resp.BulkString(v))
			}
		}
		return resp.Array(items...), nil
	case eqFold(args[1], "SET"):
		if len(args) != 4 {
			return nil, store.ErrSyntax
		}
		d.configMu.Lock()
		d.config[strings.ToLower(string(args[2]))] = string(args[3])
		d.configMu.Unlock()
		return resp.Simple("OK"), nil
	case eqFold(args[1], "REWRITE"), eqFold(args[1], "RESETSTAT"):
		return resp.Simple("OK"), nil
	default:
		return nil, store.ErrSyntax
	}
}

func cmdClient(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	switch {
	case eqFold(args[1], "GETNAME"):
		return resp.BulkString(sess.Name), nil
	case eqFold(args[1], "SETNAME"):
		if len(args) != 3 {
			return nil, store.ErrSyntax
		}
		sess.Name = string(args[2])
		return resp.Simple("OK"), nil
	case eqFold(args[1], "ID"):
		return resp.Integer(sess.ID), nil
	case eqFold(args[1], "LIST"):
		return resp.BulkString(fmt.Sprintf("id=%d addr= name=%s db=%d", sess.ID, sess.Name, sess.DBIndex)), nil
	case eqFold(args[1], "NO-EVICT"), eqFold(args[1], "NO-TOUCH"), eqFold(args[1], "REPLY"):
		return resp.Simple("OK"), nil
	default:
		return nil, store.ErrSyntax
	}
}

func cmdInfo(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	clients, uptime, runID, aofEnabled := 0, int64(0), "0000000000000000000000000000000000000000", false
	if d.info != nil {
		clients = d.info.ConnectedClients()
		uptime = d.info.UptimeSeconds()
		runID = d.info.RunID()
		aofEnabled = d.info.AOFEnabled()
	}
	aof := "no"
	if aofEnabled {
		aof = "yes"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Server\r\nredis_version:7.0.0\r\nredis_mode:standalone\r\nrun_id:%s\r\nuptime_in_seconds:%d\r\n\r\n", runID, uptime)
	fmt.Fprintf(&b, "# Clients\r\nconnected_clients:%d\r\n\r\n", clients)
	mem := sysinfo.Collect()
	fmt.Fprintf(&b, "# Memory\r\nused_memory:%d\r\nused_memory_human:%s\r\ntotal_system_memory:%d\r\n\r\n",
		mem.UsedMemoryBytes, humanBytes(mem.UsedMemoryBytes), mem.TotalMemoryBytes)
	fmt.Fprintf(&b, "# Persistence\r\naof_enabled:%s\r\n\r\n", aof)
	fmt.Fprintf(&b, "# Replication\r\nrole:master\r\nconnected_slaves:0\r\n\r\n")
	b.WriteString("# Keyspace\r\n")
	cur := sess.DB()
	for i := 0; i < sess.Keyspace.Count(); i++ {
		db := sess.Keyspace.DB(i)
		var n int
		if db == cur {
			n = db.Size()
		} else {
			db.Lock()
			n = db.Size()
			db.Unlock()
		}
		if n > 0 {
			fmt.Fprintf(&b, "db%d:keys=%d,expires=0,avg_ttl=0\r\n", i, n)
		}
	}
	return resp.Bulk([]byte(b.String())), nil
}

func cmdDebug(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	if !eqFold(args[1], "OBJECT") {
		return resp.Simple("OK"), nil
	}
	if len(args) != 3 {
		return nil, store.ErrSyntax
	}
	v := sess.DB().Get(string(args[2]))
	if v == nil {
		return nil, store.ErrNoSuchKey
	}
	return resp.Simple(fmt.Sprintf("Value at:0x0 refcount:1 encoding:%s serializedlength:%d lru:0 lru_seconds_idle:0",
		v.ObjectEncoding(), len(resp.Bytes(valueToDisplayReply(v))))), nil
}

func cmdObject(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	switch {
	case eqFold(args[1], "ENCODING"):
		if len(args) != 3 {
			return nil, store.ErrSyntax
		}
		v := sess.DB().Get(string(args[2]))
		if v == nil {
			return nil, store.ErrNoSuchKey
		}
		return resp.BulkString(v.ObjectEncoding()), nil
	case eqFold(args[1], "REFCOUNT"), eqFold(args[1], "FREQ"):
		if len(args) != 3 {
			return nil, store.ErrSyntax
		}
		if sess.DB().Get(string(args[2])) == nil {
			return nil, store.ErrNoSuchKey
		}
		return resp.Integer(1), nil
	case eqFold(args[1], "IDLETIME"):
		if len(args) != 3 {
			return nil, store.ErrSyntax
		}
		if sess.DB().Get(string(args[2])) == nil {
			return nil, store.ErrNoSuchKey
		}
		return resp.Integer(0), nil
	default:
		return nil, store.ErrSyntax
	}
}

func cmdCommandCount(d *Dispatcher, sess *Session, args [][]byte) (*resp.Reply, error) {
	if len(args) >= 2 && eqFold(args[1], "COUNT") {
		return resp.Integer(int64(len(d.table))), nil
	}
	return resp.Array(), nil
}

// valueToDisplayReply renders a rough approximation of the value's wire
// form, used only to produce DEBUG OBJECT's serializedlength estimate.
func valueToDisplayReply(v *store.Value) *resp.Reply {
	switch v.Kind {
	case store.KindString:
		return resp.Bulk(v.Str.Bytes())
	default:
		return resp.BulkString(v.ObjectEncoding())
	}
}
