package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// minFreeBytes is the space floor below which a session is not worth
// starting; a single RAW burst can easily exceed it.
const minFreeBytes = 1 << 30

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies the filesystem holding path has room for a
// session's worth of images.
func CheckDiskSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%.1f GiB free", float64(free)/(1<<30))
	if free < minFreeBytes {
		return Result{Name: name, Detail: detail + " (below 1 GiB floor)"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckRemoteStore verifies the wireless card answers a listing request.
func CheckRemoteStore(ctx context.Context, baseURL string, remote RemotePinger) Result {
	const name = "Remote store"

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := remote.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s unreachable (%v)", baseURL, err)}
	}
	return Result{Name: name, Passed: true, Detail: baseURL + " reachable"}
}
