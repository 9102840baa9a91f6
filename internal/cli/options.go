package cli

// Options contains the configuration shared by the commands.
type Options struct {
	Dir      string
	Entry    string // Empty means detected from Dir
	Thread   string
	LogLevel string
	Gap      int
	// Tools is the process tools config. Empty means tools.yaml in Dir.
	Tools string

	// Store selects transcript persistence: "", "memory", "file[:dir]", "bolt:path" or "redis".
	Store     string
	RedisAddr string
	// EncryptionKey is a hex encoded AES-256 key. Transcripts are encrypted when set.
	EncryptionKey string
	// Redact lists regular expressions masked in saved transcripts.
	Redact []string

	Watch bool
	JSON  bool
}
