package server

// Remote panel statuses during which limits cannot be changed.
const (
	RemoteStatusInstalling      = "installing"
	RemoteStatusTransferring    = "transferring"
	RemoteStatusRestoringBackup = "restoring_backup"
)

func IsBusyRemoteStatus(status string) bool {
	switch status {
	case RemoteStatusInstalling, RemoteStatusTransferring, RemoteStatusRestoringBackup:
		return true
	default:
		return false
	}
}

// Flags are derived from the remote state on every read and never stored.
type Flags struct {
	Suspended   bool
	Unreachable bool
}
