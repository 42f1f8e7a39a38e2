// Package startup implements the fail-fast startup sequence of the chat
// proxy server.
//
// The sequence is:
//
//  1. Warn (without aborting) when OPENAI_API_KEY is absent
//  2. Validate mandatory configuration (PORT, MONGODB_URI)
//  3. Build the HTTP server with CORS and JSON body parsing
//  4. Connect to MongoDB within CHATPROXY_DB_CONNECT_TIMEOUT
//  5. Mount /api/chat and GET /
//  6. Bind the listener and serve
//
// Any failure before serving moves the sequencer to StateAborted and is
// returned from Run; deciding the exit status is left to the caller.
package startup
