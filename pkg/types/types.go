// Package types provides JSON output types for instcore commands.
//
// This package is intended for use by external applications that want to
// parse instcore's JSON output programmatically. All types are serializable
// to JSON and match the structure of instcore's --json output.
//
// Example usage:
//
//	import "github.com/cachyos/instcore/pkg/types"
//
//	// Parse instcore probe --json output
//	var probe types.ProbeOutput
//	json.Unmarshal(data, &probe)
package types

// =============================================================================
// Progress Events (Streaming JSON Lines)
// =============================================================================

// EventType represents the type of progress event.
type EventType string

const (
	EventTypeStep     EventType = "step"
	EventTypeProgress EventType = "progress"
	EventTypeMessage  EventType = "message"
	EventTypeWarning  EventType = "warning"
	EventTypeError    EventType = "error"
	EventTypeComplete EventType = "complete"
)

// ProgressEvent represents a single line of JSON Lines output for streaming
// progress. Used by the install pipeline for real-time progress updates.
type ProgressEvent struct {
	Type       EventType `json:"type"`
	Timestamp  string    `json:"timestamp"`
	Step       int       `json:"step,omitzero"`
	TotalSteps int       `json:"total_steps,omitzero"`
	StepName   string    `json:"step_name,omitempty"`
	Message    string    `json:"message,omitempty"`
	Percent    int       `json:"percent,omitzero"`
	Details    any       `json:"details,omitempty"`
}

// =============================================================================
// Block-Device Query Output
// =============================================================================

// PartitionOutput represents a partition in JSON output.
type PartitionOutput struct {
	Device      string `json:"device"`
	PartNumber  int    `json:"part_number"`
	Size        uint64 `json:"size"`
	SizeHuman   string `json:"size_human"`
	FSType      string `json:"fstype,omitempty"`
	Label       string `json:"label,omitempty"`
	UUID        string `json:"uuid,omitempty"`
	PartUUID    string `json:"partuuid,omitempty"`
	MountPoint  string `json:"mount_point,omitempty"`
	IsMounted   bool   `json:"is_mounted"`
}

// DiskOutput represents a disk in JSON output.
type DiskOutput struct {
	Device      string            `json:"device"`
	Size        uint64            `json:"size"`
	SizeHuman   string            `json:"size_human"`
	Model       string            `json:"model,omitempty"`
	Transport   string            `json:"transport,omitempty"`
	Rotational  bool              `json:"rotational"`
	IsRemovable bool              `json:"is_removable"`
	Partitions  []PartitionOutput `json:"partitions"`
}

// ProbeOutput represents the JSON output structure for the probe/list command.
type ProbeOutput struct {
	Disks []DiskOutput `json:"disks"`
}

// =============================================================================
// Validate / Plan Command Output
// =============================================================================

// ValidateOutput represents the JSON output structure for the validate command.
type ValidateOutput struct {
	Device   string   `json:"device"`
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// PlanOutput represents the JSON output structure for a partition-scheme
// preview (the "plan" command's --json form).
type PlanOutput struct {
	Device      string   `json:"device"`
	TableType   string   `json:"table_type"`
	Script      string   `json:"script"`
	Partitions  []string `json:"partitions"`
}

// =============================================================================
// Install Command Output
// =============================================================================

// InstallResult describes the completed install, returned by the pipeline
// and echoed to the caller via Reporter.Complete.
type InstallResult struct {
	Device         string   `json:"device"`
	TableType      string   `json:"table_type"`
	FilesystemType string   `json:"filesystem_type"`
	BootloaderType string   `json:"bootloader_type"`
	Encrypted      bool     `json:"encrypted"`
	MountPoint     string   `json:"mount_point"`
	Warnings       []string `json:"warnings,omitempty"`
	DurationSecs   float64  `json:"duration_seconds"`
}
