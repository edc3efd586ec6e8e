// Package info renders the INFO command's section-based text report, the
// same key:value-per-line format redis uses.
package info

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Stats is the snapshot of engine state INFO reports on.
type Stats struct {
	Uptime            time.Duration
	Keys              int64
	Shards            uint
	AOFEnabled        bool
	RDBEnabled        bool
	LastSaveUnix      int64
	RewriteInProgress bool
	GCEnabled         bool
	PubSubChans       int64
	ConnectedClients  int
	CommandsProcessed int64
	KeyspaceHits      int64
	KeyspaceMisses    int64
	ExpiredKeys       int64
}

type section struct {
	name  string
	lines []string
}

// Build renders the named sections ("server", "persistence", "stats",
// "memory"), or every section if names is empty, matching INFO [section].
func Build(stats Stats, names ...string) string {
	sections := []section{
		serverSection(stats),
		persistenceSection(stats),
		statsSection(stats),
		memorySection(stats),
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(n)] = true
	}

	var b strings.Builder
	for _, s := range sections {
		if len(want) > 0 && !want[strings.ToLower(s.name)] {
			continue
		}
		b.WriteString("# ")
		b.WriteString(s.name)
		b.WriteString("\r\n")
		for _, line := range s.lines {
			b.WriteString(line)
			b.WriteString("\r\n")
		}
		b.WriteString("\r\n")
	}
	return b.String()
}

func serverSection(s Stats) section {
	return section{
		name: "Server",
		lines: []string{
			"redis_version:7.4.0",
			"moonlight_mode:standalone",
			fmt.Sprintf("uptime_in_seconds:%d", int64(s.Uptime.Seconds())),
			fmt.Sprintf("uptime_in_days:%d", int64(s.Uptime.Hours()/24)),
			fmt.Sprintf("connected_clients:%d", s.ConnectedClients),
		},
	}
}

func persistenceSection(s Stats) section {
	return section{
		name: "Persistence",
		lines: []string{
			fmt.Sprintf("aof_enabled:%d", boolToInt(s.AOFEnabled)),
			fmt.Sprintf("rdb_enabled:%d", boolToInt(s.RDBEnabled)),
			fmt.Sprintf("rdb_last_save_time:%d", s.LastSaveUnix),
			fmt.Sprintf("aof_rewrite_in_progress:%d", boolToInt(s.RewriteInProgress)),
		},
	}
}

func statsSection(s Stats) section {
	return section{
		name: "Stats",
		lines: []string{
			fmt.Sprintf("gc_active:%d", boolToInt(s.GCEnabled)),
			fmt.Sprintf("pubsub_channels:%d", s.PubSubChans),
			fmt.Sprintf("total_commands_processed:%d", s.CommandsProcessed),
			fmt.Sprintf("keyspace_hits:%d", s.KeyspaceHits),
			fmt.Sprintf("keyspace_misses:%d", s.KeyspaceMisses),
			fmt.Sprintf("expired_keys:%d", s.ExpiredKeys),
		},
	}
}

// memorySection reports the process's own heap usage via runtime.MemStats
// alongside the logical key/shard counts — an approximation, not an
// accounting of exactly what the dataset occupies, same caveat redis itself
// gives for used_memory on a GC'd runtime.
func memorySection(s Stats) section {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return section{
		name: "Memory",
		lines: []string{
			fmt.Sprintf("used_memory:%d", m.HeapAlloc),
			fmt.Sprintf("used_memory_rss:%d", m.Sys),
			fmt.Sprintf("db_keys:%d", s.Keys),
			fmt.Sprintf("db_shards:%d", s.Shards),
		},
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
