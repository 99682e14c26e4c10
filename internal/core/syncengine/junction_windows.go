//go:build windows

package syncengine

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// fsctlSetReparsePoint is FSCTL_SET_REPARSE_POINT; not re-exported by
// golang.org/x/sys/windows under that name, so it is defined locally.
const fsctlSetReparsePoint = 0x900A4

// createJunction creates a Windows directory junction at link pointing at
// target, used as the second fallback after a plain directory symlink
// fails (e.g. Developer Mode is off and the process lacks
// SeCreateSymbolicLinkPrivilege).
func createJunction(target, link string) error {
	if err := windows.CreateDirectory(windows.StringToUTF16Ptr(link), nil); err != nil {
		return fmt.Errorf("creating junction directory: %w", err)
	}

	h, err := windows.CreateFile(
		windows.StringToUTF16Ptr(link),
		windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OPEN_REPARSE_POINT,
		0,
	)
	if err != nil {
		_ = windows.RemoveDirectory(windows.StringToUTF16Ptr(link))
		return fmt.Errorf("opening junction handle: %w", err)
	}
	defer windows.CloseHandle(h)

	buf := buildReparseBuffer(target)
	var bytesReturned uint32
	err = windows.DeviceIoControl(
		h,
		fsctlSetReparsePoint,
		&buf[0],
		uint32(len(buf)),
		nil,
		0,
		&bytesReturned,
		nil,
	)
	if err != nil {
		_ = windows.RemoveDirectory(windows.StringToUTF16Ptr(link))
		return fmt.Errorf("setting reparse point: %w", err)
	}
	return nil
}

// reparseDataBuffer layout mirrors REPARSE_DATA_BUFFER for
// IO_REPARSE_TAG_MOUNT_POINT, per the Windows DDK.
const (
	reparseTagMountPoint     = 0xA0000003
	reparseMountPointHdrSize = 8 // substitute name offset/length + print name offset/length
)

func buildReparseBuffer(target string) []byte {
	// Mount points use the NT device path form: \??\<absolute path>
	subst := `\??\` + target
	substU16 := windows.StringToUTF16(subst)
	printU16 := windows.StringToUTF16(target)

	substBytes := utf16ToBytes(substU16[:len(substU16)-1]) // drop the NUL terminator
	printBytes := utf16ToBytes(printU16[:len(printU16)-1])

	pathBufLen := len(substBytes) + 2 + len(printBytes) + 2
	dataLen := reparseMountPointHdrSize + 2 + pathBufLen // +2 reserved field
	total := 8 + dataLen                                 // 8-byte reparse header

	buf := make([]byte, total)
	putU32(buf[0:4], reparseTagMountPoint)
	putU16(buf[4:6], uint16(dataLen))
	// buf[6:8] reserved, left zero

	off := 8
	putU16(buf[off:off+2], 0)                           // SubstituteNameOffset
	putU16(buf[off+2:off+4], uint16(len(substBytes)))    // SubstituteNameLength
	putU16(buf[off+4:off+6], uint16(len(substBytes)+2))  // PrintNameOffset
	putU16(buf[off+6:off+8], uint16(len(printBytes)))    // PrintNameLength
	off += reparseMountPointHdrSize
	off += 2 // reserved

	copy(buf[off:], substBytes)
	off += len(substBytes) + 2
	copy(buf[off:], printBytes)

	return buf
}

func utf16ToBytes(u []uint16) []byte {
	b := make([]byte, len(u)*2)
	for i, v := range u {
		putU16(b[i*2:i*2+2], v)
	}
	return b
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// isJunction reports whether path is a Windows directory junction (a
// reparse point tagged IO_REPARSE_TAG_MOUNT_POINT), as opposed to an
// ordinary directory symlink. The distinction matters for removal: a
// symlink-to-dir uses remove_file (DeleteFile), a junction uses
// remove_dir (RemoveDirectory).
func isJunction(path string) (bool, error) {
	data, err := windows.GetFileAttributes(windows.StringToUTF16Ptr(path))
	if err != nil {
		return false, err
	}
	if data&windows.FILE_ATTRIBUTE_REPARSE_POINT == 0 {
		return false, nil
	}

	var fd windows.Win32finddata
	h, err := windows.FindFirstFile(windows.StringToUTF16Ptr(path), &fd)
	if err != nil {
		return false, err
	}
	_ = windows.FindClose(h)
	return fd.Reserved0 == reparseTagMountPoint, nil
}

func removeReparsePoint(path string, junction bool) error {
	if junction {
		return windows.RemoveDirectory(windows.StringToUTF16Ptr(path))
	}
	return windows.DeleteFile(windows.StringToUTF16Ptr(path))
}
