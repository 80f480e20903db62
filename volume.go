package osal

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/behrlich/osal/internal/ramdisk"
)

// VolumeType selects a volume's storage backing, per spec.md §4.5.
type VolumeType int

const (
	// VolumeRam is an in-memory ramdisk, formatted at mkfs time.
	VolumeRam VolumeType = iota
	// VolumeFsBased maps onto an already-mounted host directory.
	VolumeFsBased
)

// ramBlockSize is the only block size mkfs accepts for Ram volumes
// (spec.md §6).
const ramBlockSize = 512

type volumeRow struct {
	mounted            bool
	volumeName         string
	mountPoint         string
	physicalDeviceName string
	volumeType         VolumeType
	blockSize          uint32
	numBlocks          uint32
	disk               *ramdisk.Disk
}

// VolumeInfo is the result of VolumeGetInfo.
type VolumeInfo struct {
	DeviceName         string
	VolumeName         string
	Mounted            bool
	MountPoint         string
	PhysicalDeviceName string
	VolumeType         VolumeType
	BlockSize          uint32
}

// VolumeMkfs reserves a volume table row named devname and constructs
// its backing: a formatted ramdisk for VolumeRam, or a reference to an
// already-mounted host directory for VolumeFsBased. address supplies
// the physical device name directly for VolumeFsBased (the host
// directory path); for VolumeRam it is optional and defaults to a
// synthesized ramdisk label.
func VolumeMkfs(address, devname, volname string, blockSize, numBlocks uint32, volType VolumeType) (uint32, Status) {
	if devname == "" || volname == "" {
		return 0, StatusFsInvalidPointer
	}

	s := current()
	id, err := s.volumes.Reserve(devname)
	if err != nil {
		return 0, volumeStatusFromRegistryErr(err)
	}

	var disk *ramdisk.Disk
	physical := address

	switch volType {
	case VolumeRam:
		if blockSize != ramBlockSize {
			_ = s.volumes.Release(id)
			return 0, StatusFsDriveNotCreated
		}
		disk = ramdisk.New(int64(blockSize), int64(numBlocks))
		if physical == "" {
			physical = fmt.Sprintf("ramdisk:%s", devname)
		}
	case VolumeFsBased:
		info, statErr := os.Stat(physical)
		if statErr != nil || !info.IsDir() {
			_ = s.volumes.Release(id)
			return 0, StatusFsDriveNotCreated
		}
	default:
		_ = s.volumes.Release(id)
		return 0, StatusFsError
	}

	fillErr := s.volumes.Fill(id, func(r *volumeRow) {
		r.volumeName = volname
		r.physicalDeviceName = physical
		r.volumeType = volType
		r.blockSize = blockSize
		r.numBlocks = numBlocks
		r.disk = disk
	})
	if fillErr != nil {
		_ = s.volumes.Release(id)
		return 0, StatusFsError
	}
	return id, StatusSuccess
}

// VolumeRmfs tears down and releases a volume row. Returns
// StatusFsDeviceNotFree if the volume is still mounted.
func VolumeRmfs(devname string) Status {
	s := current()
	id, err := s.volumes.FindByName(devname)
	if err != nil {
		return volumeStatusFromRegistryErr(err)
	}

	var mounted bool
	var disk *ramdisk.Disk
	_ = s.volumes.Get(id, func(_ string, r *volumeRow) {
		mounted = r.mounted
		disk = r.disk
	})
	if mounted {
		return StatusFsDeviceNotFree
	}
	if disk != nil {
		disk.Close()
	}
	return volumeStatusFromRegistryErr(s.volumes.Release(id))
}

// VolumeInitfs reformats an already-created volume in place: a Ram
// volume's backing store is zeroed by reallocation; a FsBased volume's
// initfs is a no-op since the host filesystem already owns formatting.
func VolumeInitfs(devname string) Status {
	s := current()
	id, err := s.volumes.FindByName(devname)
	if err != nil {
		return volumeStatusFromRegistryErr(err)
	}

	return volumeStatusFromRegistryErr(s.volumes.Mutate(id, func(r *volumeRow) {
		if r.volumeType == VolumeRam {
			r.disk = ramdisk.New(int64(r.blockSize), int64(r.numBlocks))
		}
	}))
}

// VolumeMount attaches devname at mountpoint, which must be
// `/`-rooted.
func VolumeMount(devname, mountpoint string) Status {
	if !strings.HasPrefix(mountpoint, "/") {
		return StatusFsPathInvalid
	}

	s := current()
	id, err := s.volumes.FindByName(devname)
	if err != nil {
		return volumeStatusFromRegistryErr(err)
	}

	return volumeStatusFromRegistryErr(s.volumes.Mutate(id, func(r *volumeRow) {
		r.mounted = true
		r.mountPoint = mountpoint
	}))
}

// VolumeUnmount detaches whichever volume is mounted at mountpoint.
func VolumeUnmount(mountpoint string) Status {
	s := current()

	var found uint32
	ok := false
	s.volumes.Each(func(id uint32, _ string, r *volumeRow) {
		if r.mounted && r.mountPoint == mountpoint {
			found = id
			ok = true
		}
	})
	if !ok {
		return StatusFsError
	}

	return volumeStatusFromRegistryErr(s.volumes.Mutate(found, func(r *volumeRow) {
		r.mounted = false
		r.mountPoint = ""
	}))
}

// VolumeFsBlocksFree returns the number of blocks free on the volume
// mounted at virtual: for VolumeRam, the count of blocks the ramdisk has
// never been written to (internal/ramdisk.Disk.BlocksFree); for
// VolumeFsBased, the host filesystem's statvfs free-block count.
// virtual is resolved through the same longest-mount-point-prefix rule
// as TranslatePath, matching the original's OS_fsBlocksFree, which calls
// OS_TranslatePath before statvfs
// (_examples/original_source/src/os/rtems/osfilesys.c).
func VolumeFsBlocksFree(virtual string) (uint32, Status) {
	row, status := resolveMountedVolume(virtual)
	if status != StatusSuccess {
		return 0, status
	}

	if row.volumeType == VolumeRam {
		if row.blockSize == 0 {
			return 0, StatusFsError
		}
		return uint32(row.disk.BlocksFree()), StatusSuccess
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(row.physicalDeviceName, &stat); err != nil {
		return 0, StatusFsError
	}
	return uint32(stat.Bavail), StatusSuccess
}

// VolumeFsBytesFree returns the number of free bytes on the volume
// mounted at virtual, resolved and reported by the same rule as
// VolumeFsBlocksFree.
func VolumeFsBytesFree(virtual string) (uint64, Status) {
	row, status := resolveMountedVolume(virtual)
	if status != StatusSuccess {
		return 0, status
	}

	if row.volumeType == VolumeRam {
		return uint64(row.disk.BlocksFree()) * uint64(row.blockSize), StatusSuccess
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(row.physicalDeviceName, &stat); err != nil {
		return 0, StatusFsError
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize), StatusSuccess
}

// FsGetPhysDriveName returns the physical device name backing
// whichever volume is mounted at mountpoint.
func FsGetPhysDriveName(mountpoint string) (string, Status) {
	s := current()

	var physical string
	ok := false
	s.volumes.Each(func(_ uint32, _ string, r *volumeRow) {
		if r.mounted && r.mountPoint == mountpoint {
			physical = r.physicalDeviceName
			ok = true
		}
	})
	if !ok {
		return "", StatusFsError
	}
	return physical, StatusSuccess
}

// findMountedVolume resolves virtual to the row mounted at the longest
// matching mount-point prefix, the shared rule TranslatePath and the
// free-space queries all resolve virtual paths by.
func findMountedVolume(s *system, virtual string) (volumeRow, bool) {
	bestLen := -1
	var best volumeRow
	s.volumes.Each(func(_ uint32, _ string, r *volumeRow) {
		if !r.mounted {
			return
		}
		if strings.HasPrefix(virtual, r.mountPoint) && len(r.mountPoint) > bestLen {
			bestLen = len(r.mountPoint)
			best = *r
		}
	})
	return best, bestLen >= 0
}

// resolveMountedVolume validates virtual and resolves it to the row
// mounted at its longest matching mount point. Unlike TranslatePath,
// callers that need an actual mounted volume (VolumeFsBlocksFree,
// VolumeFsBytesFree) treat "no mount matches" as an error rather than
// falling back to identity.
func resolveMountedVolume(virtual string) (volumeRow, Status) {
	if virtual == "" || len(virtual) > MaxPathLen {
		return volumeRow{}, StatusFsPathTooLong
	}
	if !strings.HasPrefix(virtual, "/") {
		return volumeRow{}, StatusFsPathInvalid
	}

	row, ok := findMountedVolume(current(), virtual)
	if !ok {
		return volumeRow{}, StatusFsPathInvalid
	}
	return row, StatusSuccess
}

// TranslatePath rewrites a `/`-rooted virtual path to its host-local
// path: on the longest matching mounted volume's mount point, the
// prefix is rewritten to that volume's physical device name; with no
// match, virtual and physical paths coincide (the degenerate case
// spec.md §4.5 calls the "RTOS" configuration).
func TranslatePath(virtual string) (string, Status) {
	if virtual == "" || len(virtual) > MaxPathLen {
		return "", StatusFsPathTooLong
	}
	if !strings.HasPrefix(virtual, "/") {
		return "", StatusFsPathInvalid
	}

	row, ok := findMountedVolume(current(), virtual)
	if !ok {
		return virtual, StatusSuccess
	}
	return row.physicalDeviceName + virtual[len(row.mountPoint):], StatusSuccess
}

// VolumeGetIdByName resolves a device name to its id.
func VolumeGetIdByName(devname string) (uint32, Status) {
	id, err := current().volumes.FindByName(devname)
	return id, volumeStatusFromRegistryErr(err)
}

// VolumeGetInfo returns a snapshot of a volume row.
func VolumeGetInfo(id uint32) (VolumeInfo, Status) {
	var info VolumeInfo
	err := current().volumes.Get(id, func(name string, r *volumeRow) {
		info = VolumeInfo{
			DeviceName:         name,
			VolumeName:         r.volumeName,
			Mounted:            r.mounted,
			MountPoint:         r.mountPoint,
			PhysicalDeviceName: r.physicalDeviceName,
			VolumeType:         r.volumeType,
			BlockSize:          r.blockSize,
		}
	})
	return info, volumeStatusFromRegistryErr(err)
}

// volumeStatusFromRegistryErr maps registry sentinel errors onto the
// filesystem-flavored Status codes spec.md §7 reserves for this kind. A
// stale or unknown id is the exception: it reports StatusInvalidId, as it
// does for every other kind.
func volumeStatusFromRegistryErr(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	switch statusFromRegistryErr(err) {
	case StatusNameTooLong:
		return StatusFsNameTooLong
	case StatusNoFreeIds, StatusNameTaken:
		return StatusFsDeviceNotFree
	case StatusInvalidId:
		return StatusInvalidId
	case StatusNameNotFound:
		return StatusFsError
	default:
		return StatusFsError
	}
}
