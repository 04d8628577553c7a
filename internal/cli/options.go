package cli

// DefaultToolsFile is looked up in the repository when --tools is not given.
const DefaultToolsFile = "apparatus.yaml"

// EnvEncryptionKey holds a base64 AES-256 key that seals persisted runs.
const EnvEncryptionKey = "FOUNDRY_ENCRYPTION_KEY"

// Options holds the flags shared by every command.
type Options struct {
	RepoPath  string
	ToolsPath string
	MaxSteps  int
	Debug     bool
	LogFile   string
	RedisURL  string
	// RunsDir keeps run records as JSON files; ignored when RedisURL is set.
	RunsDir string
	// Mask lists regular expressions of output keys masked before persistence.
	Mask []string
}

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Options
	Alignment string
	// Instruction replaces the stored instruction when non-nil.
	Instruction *string
	RunID       string
	JSON        bool
}

// ServeOptions configures the HTTP and MCP servers.
type ServeOptions struct {
	Options
	Port      int
	Transport string
}
