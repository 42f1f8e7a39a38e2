// Package config provides configuration management for the chat proxy.
//
// Configuration is built once at process entry by Load and passed by pointer
// to the components that need it. Nothing in this package reads the
// environment after Load returns.
//
// # Configuration Sources
//
// In increasing order of precedence:
//
//   - Built-in defaults
//   - YAML file at $CHATPROXY_CONFIG_PATH/chatproxy.yml (optional)
//   - Overlay file, an env-style .env file (optional)
//   - Process environment
//
// # Key Configuration Options
//
//   - PORT: Server listen port (required)
//   - MONGODB_URI: MongoDB connection string (required)
//   - OPENAI_API_KEY: OpenAI credential (optional, warned about when absent)
//   - OPENAI_MODEL, OPENAI_BASE_URL: Upstream model and endpoint
//   - CHATPROXY_DB_CONNECT_TIMEOUT: Bound on the initial database connection
//   - CHATPROXY_LOG_LEVEL: Logging verbosity
package config
