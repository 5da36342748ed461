package preflight

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"mkvkeep/internal/config"
	"mkvkeep/internal/deps"
	"mkvkeep/internal/fileutil"
)

// CheckDirectoryAccess passes when path is a directory the process can list,
// read and write. The detail reports the free space on its filesystem.
func CheckDirectoryAccess(name, path string) Result {
	fail := func(reason string) Result {
		return Result{Name: name, Detail: path + " (" + reason + ")"}
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fail("does not exist")
	case err != nil:
		return fail("stat: " + err.Error())
	case !info.IsDir():
		return fail("not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fail("not writable: " + err.Error())
	}
	detail := path
	if free, err := fileutil.FreeSpace(path); err == nil {
		detail += " (" + humanize.IBytes(free) + " free)"
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps reports on mkvmerge, the only external executable used.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(ctx, []deps.Requirement{{
		Name:        "mkvmerge",
		Command:     cfg.MkvmergeBinary(),
		Description: "identifies tracks and writes the filtered files",
		VersionArgs: []string{"--version"},
	}})
}
