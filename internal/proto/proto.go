package proto

// Error represents an error response.
type Error struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ControlCommand is a server lifecycle command.
type ControlCommand string

const (
	ControlShutdown ControlCommand = "shutdown"
)

// MarshalText implements the [encoding.TextMarshaler] interface.
func (c ControlCommand) MarshalText() ([]byte, error) {
	return []byte(c), nil
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
func (c *ControlCommand) UnmarshalText(text []byte) error {
	*c = ControlCommand(text)
	return nil
}

// ServerControl represents a control request sent to the server.
type ServerControl struct {
	Command ControlCommand `json:"command"`
}

// VersionInfo describes the server build.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	StartedAt int64  `json:"started_at"`
}
