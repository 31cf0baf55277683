package skills

import (
	"fmt"
	"regexp"
	"time"

	"github.com/lbaylis/hearth/internal/registry"
)

// Status is the lifecycle state of a skill. Transitions are monotonic:
// proposed -> testing -> installed | rejected, with disabled reachable from
// installed. A rejected name can be proposed again only after removal.
type Status string

const (
	StatusProposed  Status = "proposed"
	StatusTesting   Status = "testing"
	StatusInstalled Status = "installed"
	StatusRejected  Status = "rejected"
	StatusDisabled  Status = "disabled"
)

// Permissions a skill may declare. Anything else fails validation.
const (
	PermReadFiles  = "read_files"
	PermWriteFiles = "write_files"
	PermNetwork    = "network"
	PermShell      = "shell"
)

var allowedPermissions = map[string]bool{
	PermReadFiles:  true,
	PermWriteFiles: true,
	PermNetwork:    true,
	PermShell:      true,
}

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// Manifest declares a skill: its schema, its permissions, and its version.
type Manifest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Inputs      *registry.Schema `json:"inputs,omitempty"`
	Outputs     *registry.Schema `json:"outputs,omitempty"`
	Permissions []string         `json:"permissions,omitempty"`
	Version     int              `json:"version"`
}

// ValidationError reports a manifest that fails schema or permission
// validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid skill manifest: %s: %s", e.Field, e.Reason)
}

// Validate checks the manifest against the naming rules and the permission
// whitelist.
func (m *Manifest) Validate() error {
	if !namePattern.MatchString(m.Name) {
		return &ValidationError{Field: "name", Reason: "must match ^[a-z][a-z0-9_]{0,63}$"}
	}
	if m.Description == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	for _, perm := range m.Permissions {
		if !allowedPermissions[perm] {
			return &ValidationError{Field: "permissions", Reason: fmt.Sprintf("unknown permission %q", perm)}
		}
	}
	if m.Inputs != nil && m.Inputs.Type != "object" {
		return &ValidationError{Field: "inputs", Reason: `schema type must be "object"`}
	}
	return nil
}

// Tier maps the declared permissions to the risk tier the approval gate
// sees when the installed skill is invoked.
func (m *Manifest) Tier() registry.Tier {
	tier := registry.TierReadOnly
	for _, perm := range m.Permissions {
		var t registry.Tier
		switch perm {
		case PermWriteFiles:
			t = registry.TierWrite
		case PermNetwork, PermShell:
			t = registry.TierNetworkShell
		default:
			t = registry.TierReadOnly
		}
		if t > tier {
			tier = t
		}
	}
	return tier
}

// Record is the persisted form of a skill: manifest plus code, tests, and
// install state.
type Record struct {
	Manifest    Manifest  `json:"manifest"`
	Status      Status    `json:"status"`
	Code        string    `json:"code"`
	Tests       string    `json:"tests,omitempty"`
	Profile     string    `json:"profile"`
	Dir         string    `json:"dir,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	InstalledAt time.Time `json:"installed_at,omitzero"`
}
