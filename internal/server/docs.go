package server

import (
	"fmt"
	"strings"

	"github.com/moonlightdb/moonlight/internal/resp"
)

// commandMetadata mirrors redis's COMMAND INFO shape: arity follows the
// redis convention (positive means the exact argument count including the
// command name; negative means "at least abs(n)").
type commandMetadata struct {
	arity    int
	flags    []string
	firstKey int
	lastKey  int
	step     int
}

var commandRegistry = map[string]commandMetadata{
	"PING": {-1, []string{"fast", "stale"}, 0, 0, 0},
	"ECHO": {2, []string{"fast"}, 0, 0, 0},

	"SET":      {-3, []string{"write", "denyoom"}, 1, 1, 1},
	"GET":      {2, []string{"readonly", "fast"}, 1, 1, 1},
	"GETBIT":   {3, []string{"readonly", "fast"}, 1, 1, 1},
	"SETBIT":   {4, []string{"write", "denyoom"}, 1, 1, 1},
	"BITCOUNT": {-2, []string{"readonly"}, 1, 1, 1},
	"BITPOS":   {-3, []string{"readonly"}, 1, 1, 1},
	"BITOP":    {-4, []string{"write", "denyoom"}, 2, -1, 1},

	"PFADD":   {-2, []string{"write", "denyoom"}, 1, 1, 1},
	"PFCOUNT": {-2, []string{"readonly"}, 1, -1, 1},
	"PFMERGE": {-2, []string{"write", "denyoom"}, 1, -1, 1},

	"DEL":       {-2, []string{"write"}, 1, -1, 1},
	"EXISTS":    {-2, []string{"readonly", "fast"}, 1, -1, 1},
	"TYPE":      {2, []string{"readonly", "fast"}, 1, 1, 1},
	"EXPIRE":    {3, []string{"write", "fast"}, 1, 1, 1},
	"PEXPIRE":   {3, []string{"write", "fast"}, 1, 1, 1},
	"EXPIREAT":  {3, []string{"write", "fast"}, 1, 1, 1},
	"TTL":       {2, []string{"readonly", "fast"}, 1, 1, 1},
	"PTTL":      {2, []string{"readonly", "fast"}, 1, 1, 1},
	"PERSIST":   {2, []string{"write", "fast"}, 1, 1, 1},
	"RENAME":    {3, []string{"write"}, 1, 2, 1},
	"FLUSHALL":  {-1, []string{"write"}, 0, 0, 0},

	"HSET":    {-4, []string{"write", "denyoom"}, 1, 1, 1},
	"HGET":    {3, []string{"readonly", "fast"}, 1, 1, 1},
	"HDEL":    {-3, []string{"write"}, 1, 1, 1},
	"HKEYS":   {2, []string{"readonly"}, 1, 1, 1},
	"HVALS":   {2, []string{"readonly"}, 1, 1, 1},
	"HGETALL": {2, []string{"readonly"}, 1, 1, 1},

	"LPUSH": {-3, []string{"write", "denyoom", "fast"}, 1, 1, 1},
	"RPUSH": {-3, []string{"write", "denyoom", "fast"}, 1, 1, 1},
	"LPOP":  {2, []string{"write", "fast"}, 1, 1, 1},
	"RPOP":  {2, []string{"write", "fast"}, 1, 1, 1},
	"LLEN":  {2, []string{"readonly", "fast"}, 1, 1, 1},
	"LRANGE": {4, []string{"readonly"}, 1, 1, 1},

	"SADD":        {-3, []string{"write", "denyoom"}, 1, 1, 1},
	"SREM":        {-3, []string{"write"}, 1, 1, 1},
	"SCARD":       {2, []string{"readonly", "fast"}, 1, 1, 1},
	"SMEMBERS":    {2, []string{"readonly"}, 1, 1, 1},
	"SISMEMBER":   {3, []string{"readonly", "fast"}, 1, 1, 1},
	"SMOVE":       {4, []string{"write", "fast"}, 1, 2, 1},
	"SPOP":        {-2, []string{"write", "fast"}, 1, 1, 1},
	"SRANDMEMBER": {-2, []string{"readonly"}, 1, 1, 1},
	"SINTER":      {-2, []string{"readonly"}, 1, -1, 1},
	"SUNION":      {-2, []string{"readonly"}, 1, -1, 1},
	"SDIFF":       {-2, []string{"readonly"}, 1, -1, 1},

	"ZADD":         {-4, []string{"write", "denyoom"}, 1, 1, 1},
	"ZREM":         {-3, []string{"write"}, 1, 1, 1},
	"ZCARD":        {2, []string{"readonly", "fast"}, 1, 1, 1},
	"ZCOUNT":       {4, []string{"readonly", "fast"}, 1, 1, 1},
	"ZSCORE":       {3, []string{"readonly", "fast"}, 1, 1, 1},
	"ZINCRBY":      {4, []string{"write", "denyoom", "fast"}, 1, 1, 1},
	"ZRANGE":       {-4, []string{"readonly"}, 1, 1, 1},
	"ZREVRANGE":    {-4, []string{"readonly"}, 1, 1, 1},
	"ZRANGEBYSCORE": {-4, []string{"readonly"}, 1, 1, 1},

	"SUBSCRIBE":   {-2, []string{"pubsub", "loading", "stale"}, 0, 0, 0},
	"UNSUBSCRIBE": {-1, []string{"pubsub", "loading", "stale"}, 0, 0, 0},
	"PUBLISH":     {3, []string{"pubsub", "loading", "stale", "fast"}, 0, 0, 0},
	"PUBSUB":      {-2, []string{"pubsub", "loading", "stale"}, 0, 0, 0},

	"MULTI":   {1, []string{"loading", "stale", "fast"}, 0, 0, 0},
	"EXEC":    {1, []string{"loading", "stale"}, 0, 0, 0},
	"DISCARD": {1, []string{"loading", "stale", "fast"}, 0, 0, 0},
	"WATCH":   {-2, []string{"loading", "stale", "fast"}, 1, -1, 1},
	"UNWATCH": {1, []string{"loading", "stale", "fast"}, 0, 0, 0},

	"SAVE":     {1, []string{"admin"}, 0, 0, 0},
	"BGSAVE":   {1, []string{"admin"}, 0, 0, 0},
	"LASTSAVE": {1, []string{"readonly", "fast"}, 0, 0, 0},
	"INFO":     {-1, []string{"readonly"}, 0, 0, 0},
	"SHUTDOWN": {-1, []string{"admin", "loading", "stale"}, 0, 0, 0},
	"COMMAND":  {-1, []string{"random", "loading", "stale"}, 0, 0, 0},
}

// writeCommands is the set of commands whose successful execution must be
// logged to AOF, per the persisted-write classification.
var writeCommands = map[string]bool{
	"SET": true, "DEL": true, "EXPIRE": true, "PEXPIRE": true, "EXPIREAT": true,
	"PERSIST": true, "RENAME": true, "FLUSHALL": true,
	"SETBIT": true, "BITOP": true,
	"PFADD": true, "PFMERGE": true,
	"HSET": true, "HDEL": true,
	"LPUSH": true, "RPUSH": true, "LPOP": true, "RPOP": true,
	"SADD": true, "SREM": true, "SMOVE": true, "SPOP": true,
	"ZADD": true, "ZREM": true, "ZINCRBY": true,
}

func isWriteCommand(name string) bool {
	return writeCommands[strings.ToUpper(name)]
}

// checkArity validates args (which excludes the command name itself)
// against name's registered arity, redis-style.
func checkArity(name string, args []resp.Value) error {
	meta, ok := commandRegistry[name]
	if !ok {
		return fmt.Errorf("unknown command '%s'", strings.ToLower(name))
	}
	argc := len(args) + 1
	if meta.arity >= 0 {
		if argc != meta.arity {
			return fmt.Errorf("wrong number of arguments for '%s' command", strings.ToLower(name))
		}
		return nil
	}
	if argc < -meta.arity {
		return fmt.Errorf("wrong number of arguments for '%s' command", strings.ToLower(name))
	}
	return nil
}

type commandDoc struct {
	summary    string
	complexity string
	group      string
	since      string
}

var commandDocsRegistry = map[string]commandDoc{
	"PING": {"Ping the server.", "O(1)", "connection", "1.0.0"},
	"ECHO": {"Echo the given string.", "O(1)", "connection", "1.0.0"},

	"SET": {"Set the string value of a key.", "O(1)", "string", "1.0.0"},
	"GET": {"Get the value of a key.", "O(1)", "string", "1.0.0"},

	"GETBIT":   {"Returns the bit value at offset in the string value stored at key.", "O(1)", "bitmap", "1.0.0"},
	"SETBIT":   {"Sets or clears the bit at offset in the string value stored at key.", "O(1)", "bitmap", "1.0.0"},
	"BITCOUNT": {"Count set bits in a string.", "O(N)", "bitmap", "1.0.0"},
	"BITPOS":   {"Find first bit set or clear in a string.", "O(N)", "bitmap", "1.0.0"},
	"BITOP":    {"Perform bitwise operations between strings.", "O(N)", "bitmap", "1.0.0"},

	"PFADD":   {"Adds elements to a HyperLogLog structure.", "O(1)", "hyperloglog", "1.0.0"},
	"PFCOUNT": {"Returns the approximated cardinality of a HyperLogLog.", "O(1)", "hyperloglog", "1.0.0"},
	"PFMERGE": {"Merges N HyperLogLog values into a single one.", "O(N)", "hyperloglog", "1.0.0"},

	"DEL":      {"Delete a key.", "O(N)", "generic", "1.0.0"},
	"EXISTS":   {"Determine if a key exists.", "O(N)", "generic", "1.0.0"},
	"TYPE":     {"Determine the type stored at key.", "O(1)", "generic", "1.0.0"},
	"EXPIRE":   {"Set a key's time to live in seconds.", "O(1)", "generic", "1.0.0"},
	"PEXPIRE":  {"Set a key's time to live in milliseconds.", "O(1)", "generic", "1.0.0"},
	"EXPIREAT": {"Set the expiration for a key as a unix timestamp.", "O(1)", "generic", "1.0.0"},
	"TTL":      {"Get the time to live for a key in seconds.", "O(1)", "generic", "1.0.0"},
	"PTTL":     {"Get the time to live for a key in milliseconds.", "O(1)", "generic", "1.0.0"},
	"PERSIST":  {"Remove the expiration from a key.", "O(1)", "generic", "1.0.0"},
	"RENAME":   {"Rename a key.", "O(1)", "generic", "1.0.0"},
	"FLUSHALL": {"Remove all keys from the keyspace.", "O(N)", "generic", "1.0.0"},

	"HSET":    {"Set the field-value pairs of a hash.", "O(N)", "hash", "1.0.0"},
	"HGET":    {"Get the value of a hash field.", "O(1)", "hash", "1.0.0"},
	"HDEL":    {"Delete one or more hash fields.", "O(N)", "hash", "1.0.0"},
	"HKEYS":   {"Get all the fields in a hash.", "O(N)", "hash", "1.0.0"},
	"HVALS":   {"Get all the values in a hash.", "O(N)", "hash", "1.0.0"},
	"HGETALL": {"Get all the fields and values in a hash.", "O(N)", "hash", "1.0.0"},

	"LPUSH":  {"Prepend one or more elements to a list.", "O(N)", "list", "1.0.0"},
	"RPUSH":  {"Append one or more elements to a list.", "O(N)", "list", "1.0.0"},
	"LPOP":   {"Remove and get the first element in a list.", "O(1)", "list", "1.0.0"},
	"RPOP":   {"Remove and get the last element in a list.", "O(1)", "list", "1.0.0"},
	"LLEN":   {"Get the length of a list.", "O(1)", "list", "1.0.0"},
	"LRANGE": {"Get a range of elements from a list.", "O(S+N)", "list", "1.0.0"},

	"SADD":        {"Add one or more members to a set.", "O(N)", "set", "1.0.0"},
	"SREM":        {"Remove one or more members from a set.", "O(N)", "set", "1.0.0"},
	"SCARD":       {"Get the number of members in a set.", "O(1)", "set", "1.0.0"},
	"SMEMBERS":    {"Get all the members in a set.", "O(N)", "set", "1.0.0"},
	"SISMEMBER":   {"Determine if a member belongs to a set.", "O(1)", "set", "1.0.0"},
	"SMOVE":       {"Move a member from one set to another.", "O(1)", "set", "1.0.0"},
	"SPOP":        {"Remove and return one or more random members from a set.", "O(N)", "set", "1.0.0"},
	"SRANDMEMBER": {"Get one or more random members from a set.", "O(N)", "set", "1.0.0"},
	"SINTER":      {"Intersect multiple sets.", "O(N*M)", "set", "1.0.0"},
	"SUNION":      {"Add multiple sets.", "O(N)", "set", "1.0.0"},
	"SDIFF":       {"Subtract multiple sets.", "O(N)", "set", "1.0.0"},

	"ZADD":          {"Add one or more members to a sorted set, or update its score.", "O(log(N))", "sorted-set", "1.0.0"},
	"ZREM":          {"Remove one or more members from a sorted set.", "O(log(N))", "sorted-set", "1.0.0"},
	"ZCARD":         {"Get the number of members in a sorted set.", "O(1)", "sorted-set", "1.0.0"},
	"ZCOUNT":        {"Count members in a sorted set within a score range.", "O(log(N))", "sorted-set", "1.0.0"},
	"ZSCORE":        {"Get the score of a member in a sorted set.", "O(1)", "sorted-set", "1.0.0"},
	"ZINCRBY":       {"Increment the score of a member in a sorted set.", "O(log(N))", "sorted-set", "1.0.0"},
	"ZRANGE":        {"Get members in a sorted set within a range of indices.", "O(log(N)+M)", "sorted-set", "1.0.0"},
	"ZREVRANGE":     {"Get members in a sorted set within a range of indices, in reverse order.", "O(log(N)+M)", "sorted-set", "1.0.0"},
	"ZRANGEBYSCORE": {"Get members in a sorted set within a range of scores.", "O(log(N)+M)", "sorted-set", "1.0.0"},

	"SUBSCRIBE":   {"Listen for messages published to channels.", "O(N)", "pubsub", "1.0.0"},
	"UNSUBSCRIBE": {"Stop listening for messages posted to channels.", "O(N)", "pubsub", "1.0.0"},
	"PUBLISH":     {"Post a message to a channel.", "O(N+M)", "pubsub", "1.0.0"},
	"PUBSUB":      {"Introspect the pub/sub system.", "O(N)", "pubsub", "1.0.0"},

	"MULTI":   {"Mark the start of a transaction block.", "O(1)", "transactions", "1.0.0"},
	"EXEC":    {"Execute all commands issued after MULTI.", "O(N)", "transactions", "1.0.0"},
	"DISCARD": {"Discard all commands issued after MULTI.", "O(1)", "transactions", "1.0.0"},
	"WATCH":   {"Watch the given keys to determine execution of a transaction.", "O(1)", "transactions", "1.0.0"},
	"UNWATCH": {"Forget about all watched keys.", "O(1)", "transactions", "1.0.0"},

	"SAVE":     {"Synchronously save the dataset to disk.", "O(N)", "server", "1.0.0"},
	"BGSAVE":   {"Asynchronously save the dataset to disk.", "O(N)", "server", "1.0.0"},
	"LASTSAVE": {"Get the unix time of the last successful save.", "O(1)", "server", "1.0.0"},
	"INFO":     {"Get information and statistics about the server.", "O(1)", "server", "1.0.0"},
	"SHUTDOWN": {"Synchronously save the dataset to disk and then shut down the server.", "O(N)", "server", "1.0.0"},
	"COMMAND":  {"Get array of command details.", "O(N)", "server", "1.0.0"},
}

func makeFlagsArray(flags []string) resp.Value {
	vals := make([]resp.Value, len(flags))
	for i, f := range flags {
		vals[i] = resp.MakeSimpleString(f)
	}
	return resp.MakeArray(vals)
}

func makeInfoCmdArray(name string) []resp.Value {
	meta := commandRegistry[name]
	return []resp.Value{
		resp.MakeBulkString(strings.ToLower(name)),
		resp.MakeInteger(int64(meta.arity)),
		makeFlagsArray(meta.flags),
		resp.MakeInteger(int64(meta.firstKey)),
		resp.MakeInteger(int64(meta.lastKey)),
		resp.MakeInteger(int64(meta.step)),
	}
}

func getAllCommands() resp.Value {
	cmdArray := make([]resp.Value, 0, len(commandRegistry))
	for name := range commandRegistry {
		cmdArray = append(cmdArray, resp.MakeArray(makeInfoCmdArray(name)))
	}
	return resp.MakeArray(cmdArray)
}

// getCommandsDocs returns documentation for specified commands, or every
// command if none are named. Format: [name, [summary, val, since, val,
// group, val, complexity, val], name, [...]].
func getCommandsDocs(args []resp.Value) resp.Value {
	var targets []string
	if len(args) == 0 {
		targets = make([]string, 0, len(commandDocsRegistry))
		for name := range commandDocsRegistry {
			targets = append(targets, name)
		}
	} else {
		targets = make([]string, 0, len(args))
		for _, arg := range args {
			targets = append(targets, strings.ToUpper(string(arg.String)))
		}
	}

	result := make([]resp.Value, 0, len(targets)*2)
	for _, name := range targets {
		doc, ok := commandDocsRegistry[name]
		if !ok {
			continue
		}
		result = append(result, resp.MakeBulkString(strings.ToLower(name)))
		result = append(result, resp.MakeArray([]resp.Value{
			resp.MakeBulkString("summary"),
			resp.MakeBulkString(doc.summary),
			resp.MakeBulkString("since"),
			resp.MakeBulkString(doc.since),
			resp.MakeBulkString("group"),
			resp.MakeBulkString(doc.group),
			resp.MakeBulkString("complexity"),
			resp.MakeBulkString(doc.complexity),
		}))
	}
	return resp.MakeArray(result)
}
