package server

// registerCommands wires every handler into the engine's command table.
// Split by data type across the commands_*.go files, mirroring how the
// storage package itself is split.
func (e *Engine) registerCommands() {
	e.registerConnectionCommands()
	e.registerStringCommands()
	e.registerKeyCommands()
	e.registerHashCommands()
	e.registerListCommands()
	e.registerSetCommands()
	e.registerZSetCommands()
	e.registerBitmapCommands()
	e.registerHLLCommands()
	e.registerPubSubCommands()
	e.registerTransactionCommands()
	e.registerAdminCommands()
}
