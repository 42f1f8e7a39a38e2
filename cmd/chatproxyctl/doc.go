// Command chatproxyctl runs the ChatGPT proxy server.
//
// The server exposes a single chat endpoint that forwards messages to the
// OpenAI chat completions API and stores the conversations in MongoDB.
//
// # Quick Start
//
//	export PORT=6000
//	export MONGODB_URI=mongodb://localhost/chat
//	export OPENAI_API_KEY=sk-...
//
//	# Start the server
//	chatproxyctl server
//
//	# Wait for it from a script
//	chatproxyctl wait --port 6000
//
//	# Inspect the effective configuration
//	chatproxyctl configuration show
//
// # Environment Variables
//
//   - PORT: Server port (required)
//   - MONGODB_URI: MongoDB connection string (required)
//   - OPENAI_API_KEY: OpenAI credential (optional; chat requests fail without it)
//   - BIND_ADDRESS: Listen address (default: 0.0.0.0)
//   - CHATPROXY_DB_CONNECT_TIMEOUT: Initial database connection bound (default: 10s)
//   - CHATPROXY_LOG_LEVEL: Log level (debug, info, warn, error)
//
// The same keys may be supplied in a .env file in the working directory;
// values already present in the environment win.
package main
