package common

// RemoteRoot is the top-level path under which every SyncId owns exactly one
// document, e.g. healthData/k3j9x0ab.
const RemoteRoot = "healthData"

// RemotePath returns the document location for syncID.
func RemotePath(syncID string) string {
	return RemoteRoot + "/" + syncID
}
