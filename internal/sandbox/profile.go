package sandbox

// Profile describes how to materialize an isolated runtime for a piece of
// untrusted code: which interpreter to launch and what file extension its
// entrypoint carries. Profiles decouple the executor from any specific
// packaging mechanism.
type Profile interface {
	// Name is the configuration key for this profile.
	Name() string

	// Extension is the entrypoint file extension, including the dot.
	Extension() string

	// Command builds the argv to execute entry with args inside the session
	// directory.
	Command(entry string, args []string) []string
}

// PythonProfile runs code under an isolated Python interpreter. -I ignores
// user site-packages and environment hooks; -B suppresses bytecode files in
// the session directory.
type PythonProfile struct {
	// Interpreter defaults to "python3".
	Interpreter string
}

func (p PythonProfile) Name() string      { return "python" }
func (p PythonProfile) Extension() string { return ".py" }

func (p PythonProfile) Command(entry string, args []string) []string {
	interp := p.Interpreter
	if interp == "" {
		interp = "python3"
	}
	return append([]string{interp, "-I", "-B", entry}, args...)
}

// ShellProfile runs POSIX shell scripts.
type ShellProfile struct {
	// Shell defaults to "sh".
	Shell string
}

func (p ShellProfile) Name() string      { return "shell" }
func (p ShellProfile) Extension() string { return ".sh" }

func (p ShellProfile) Command(entry string, args []string) []string {
	shell := p.Shell
	if shell == "" {
		shell = "sh"
	}
	return append([]string{shell, entry}, args...)
}

// DefaultProfiles returns the profiles shipped with the agent, keyed by name.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		"python": PythonProfile{},
		"shell":  ShellProfile{},
	}
}
