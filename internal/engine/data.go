package engine

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
	"github.com/ZeraTS/ironbullet-sub001/internal/fsutil"
)

// fsLocks serializes writes to shared paths (a progress file, a hits file)
// across every worker in the process, per internal/fsutil's package doc.
var fsLocks = fsutil.NewPathLock()

func init() {
	register(block.TypeCreatePath, handleFileSystem(block.FsCreatePath))
	register(block.TypeFileRead, handleFileSystem(block.FsFileRead))
	register(block.TypeFileWrite, handleFileSystem(block.FsFileWrite))
	register(block.TypeFileAppend, handleFileSystem(block.FsFileAppend))
	register(block.TypeFileCopy, handleFileSystem(block.FsFileCopy))
	register(block.TypeFileMove, handleFileSystem(block.FsFileMove))
	register(block.TypeFileDelete, handleFileSystem(block.FsFileDelete))
	register(block.TypeFileExists, handleFileSystem(block.FsFileExists))
	register(block.TypeFileReadLines, handleFileSystem(block.FsFileReadLines))
	register(block.TypeFileWriteLines, handleFileSystem(block.FsFileWriteLines))
	register(block.TypeFileReadBytes, handleFileSystem(block.FsFileReadBytes))
	register(block.TypeFileWriteBytes, handleFileSystem(block.FsFileWriteBytes))
	register(block.TypeFolderDelete, handleFileSystem(block.FsFolderDelete))
	register(block.TypeFolderExists, handleFileSystem(block.FsFolderExists))
	register(block.TypeGetFilesInFolder, handleFileSystem(block.FsGetFilesInFolder))
}

// handleFileSystem returns a handler bound to one FileSystemOp — each
// legacy Type constant maps to exactly one Op, so the settings' own Op
// field is a documentation aid rather than something dispatch reads.
func handleFileSystem(op block.FileSystemOp) handler {
	return func(ec *Context, b block.Block, result *block.Result) error {
		settings, ok := b.Settings.(*block.FileSystemSettings)
		if !ok {
			return fmt.Errorf("%s: settings type mismatch", op)
		}
		path := ec.Vars.Interpolate(settings.Path)

		switch op {
		case block.FsCreatePath:
			return fsCreatePath(ec, path, result)
		case block.FsFileRead:
			return fsFileRead(ec, settings, path, result)
		case block.FsFileWrite:
			return fsFileWrite(ec, settings, path, false, result)
		case block.FsFileAppend:
			return fsFileWrite(ec, settings, path, true, result)
		case block.FsFileCopy:
			return fsFileCopy(ec, settings, path, result)
		case block.FsFileMove:
			return fsFileMove(ec, settings, path, result)
		case block.FsFileDelete:
			return fsFileDelete(ec, path, result)
		case block.FsFileExists:
			return fsFileExists(ec, settings, path, result)
		case block.FsFileReadLines:
			return fsFileReadLines(ec, settings, path, result)
		case block.FsFileWriteLines:
			return fsFileWriteLines(ec, settings, path, result)
		case block.FsFileReadBytes:
			return fsFileReadBytes(ec, settings, path, result)
		case block.FsFileWriteBytes:
			return fsFileWriteBytes(ec, settings, path, result)
		case block.FsFolderDelete:
			return fsFolderDelete(ec, path, result)
		case block.FsFolderExists:
			return fsFolderExists(ec, settings, path, result)
		case block.FsGetFilesInFolder:
			return fsGetFilesInFolder(ec, settings, path, result)
		default:
			return fmt.Errorf("filesystem: unknown op %q", op)
		}
	}
}

func fsCreatePath(ec *Context, path string, result *block.Result) error {
	unlock := fsLocks.Lock(path)
	defer unlock()
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("createpath: %w", err)
	}
	result.LogMessage = "createpath: " + path
	return nil
}

func fsFileRead(ec *Context, settings *block.FileSystemSettings, path string, result *block.Result) error {
	unlock := fsLocks.Lock(path)
	defer unlock()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fileread: %w", err)
	}
	ec.Vars.SetUser(settings.OutputVar, string(data), settings.Capture)
	result.LogMessage = fmt.Sprintf("fileread: %d byte(s)", len(data))
	return nil
}

func fsFileWrite(ec *Context, settings *block.FileSystemSettings, path string, forceAppend bool, result *block.Result) error {
	unlock := fsLocks.Lock(path)
	defer unlock()

	flags := os.O_CREATE | os.O_WRONLY
	if forceAppend || settings.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("filewrite: %w", err)
	}
	defer f.Close()

	content := ec.Vars.Interpolate(settings.Content)
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("filewrite: %w", err)
	}
	result.LogMessage = fmt.Sprintf("filewrite: %d byte(s) -> %s", len(content), path)
	return nil
}

func fsFileCopy(ec *Context, settings *block.FileSystemSettings, path string, result *block.Result) error {
	dest := ec.Vars.Interpolate(settings.DestPath)
	unlockSrc := fsLocks.Lock(path)
	defer unlockSrc()
	unlockDest := fsLocks.Lock(dest)
	defer unlockDest()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("filecopy: reading source: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("filecopy: writing destination: %w", err)
	}
	result.LogMessage = fmt.Sprintf("filecopy: %s -> %s", path, dest)
	return nil
}

func fsFileMove(ec *Context, settings *block.FileSystemSettings, path string, result *block.Result) error {
	dest := ec.Vars.Interpolate(settings.DestPath)
	unlockSrc := fsLocks.Lock(path)
	defer unlockSrc()
	unlockDest := fsLocks.Lock(dest)
	defer unlockDest()

	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("filemove: %w", err)
	}
	result.LogMessage = fmt.Sprintf("filemove: %s -> %s", path, dest)
	return nil
}

func fsFileDelete(ec *Context, path string, result *block.Result) error {
	unlock := fsLocks.Lock(path)
	defer unlock()
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("filedelete: %w", err)
	}
	result.LogMessage = "filedelete: " + path
	return nil
}

func fsFileExists(ec *Context, settings *block.FileSystemSettings, path string, result *block.Result) error {
	_, err := os.Stat(path)
	exists := err == nil
	ec.Vars.SetUser(settings.OutputVar, strconv.FormatBool(exists), settings.Capture)
	result.LogMessage = fmt.Sprintf("fileexists: %v", exists)
	return nil
}

func fsFileReadLines(ec *Context, settings *block.FileSystemSettings, path string, result *block.Result) error {
	unlock := fsLocks.Lock(path)
	defer unlock()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("filereadlines: %w", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	ec.Vars.SetUser(settings.OutputVar, strings.Join(lines, "\n"), settings.Capture)
	result.LogMessage = fmt.Sprintf("filereadlines: %d line(s)", len(lines))
	return nil
}

func fsFileWriteLines(ec *Context, settings *block.FileSystemSettings, path string, result *block.Result) error {
	unlock := fsLocks.Lock(path)
	defer unlock()

	flags := os.O_CREATE | os.O_WRONLY
	if settings.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("filewritelines: %w", err)
	}
	defer f.Close()

	content := ec.Vars.Interpolate(settings.Content)
	if _, err := f.WriteString(content + "\n"); err != nil {
		return fmt.Errorf("filewritelines: %w", err)
	}
	result.LogMessage = "filewritelines: " + path
	return nil
}

func fsFileReadBytes(ec *Context, settings *block.FileSystemSettings, path string, result *block.Result) error {
	unlock := fsLocks.Lock(path)
	defer unlock()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("filereadbytes: %w", err)
	}
	ec.Vars.SetUser(settings.OutputVar, base64.StdEncoding.EncodeToString(data), settings.Capture)
	result.LogMessage = fmt.Sprintf("filereadbytes: %d byte(s)", len(data))
	return nil
}

func fsFileWriteBytes(ec *Context, settings *block.FileSystemSettings, path string, result *block.Result) error {
	unlock := fsLocks.Lock(path)
	defer unlock()

	data, err := base64.StdEncoding.DecodeString(ec.Vars.Interpolate(settings.Content))
	if err != nil {
		return fmt.Errorf("filewritebytes: decoding base64 content: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if settings.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("filewritebytes: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("filewritebytes: %w", err)
	}
	result.LogMessage = fmt.Sprintf("filewritebytes: %d byte(s) -> %s", len(data), path)
	return nil
}

func fsFolderDelete(ec *Context, path string, result *block.Result) error {
	unlock := fsLocks.Lock(path)
	defer unlock()
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("folderdelete: %w", err)
	}
	result.LogMessage = "folderdelete: " + path
	return nil
}

func fsFolderExists(ec *Context, settings *block.FileSystemSettings, path string, result *block.Result) error {
	info, err := os.Stat(path)
	exists := err == nil && info.IsDir()
	ec.Vars.SetUser(settings.OutputVar, strconv.FormatBool(exists), settings.Capture)
	result.LogMessage = fmt.Sprintf("folderexists: %v", exists)
	return nil
}

func fsGetFilesInFolder(ec *Context, settings *block.FileSystemSettings, path string, result *block.Result) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("getfilesinfolder: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, filepath.Join(path, e.Name()))
		}
	}
	ec.Vars.SetUser(settings.OutputVar, strings.Join(names, "\n"), settings.Capture)
	result.LogMessage = fmt.Sprintf("getfilesinfolder: %d file(s)", len(names))
	return nil
}
