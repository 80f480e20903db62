// Package ramdisk provides an in-memory block store used as the `Ram`
// volume type's backing.
package ramdisk

import (
	"fmt"
	"sync"
)

// ShardSize bounds the lock granularity: a disk is divided into
// ShardSize-byte shards so concurrent I/O against disjoint regions
// doesn't serialize behind one whole-disk lock.
const ShardSize = 64 * 1024

// Disk is a sharded-lock, in-memory block device sized in whole blocks
// of BlockSize bytes. Unlike a plain byte buffer, it tracks which blocks
// have actually been written so BlocksFree can report real usage instead
// of always reporting full capacity — there is no on-disk superblock to
// ask, so a block counts as allocated the first time WriteAt touches it.
type Disk struct {
	data      []byte
	size      int64
	blockSize int64
	numBlocks int64
	shards    []sync.RWMutex

	blockMu sync.Mutex
	written []bool
}

// New allocates a ramdisk of numBlocks blocks of blockSize bytes each,
// with every block initially unwritten.
func New(blockSize, numBlocks int64) *Disk {
	size := blockSize * numBlocks
	numShards := (size + ShardSize - 1) / ShardSize
	if numShards == 0 {
		numShards = 1
	}
	return &Disk{
		data:      make([]byte, size),
		size:      size,
		blockSize: blockSize,
		numBlocks: numBlocks,
		shards:    make([]sync.RWMutex, numShards),
		written:   make([]bool, numBlocks),
	}
}

func (d *Disk) shardRange(off, length int64) (start, end int) {
	start = int(off / ShardSize)
	end = int((off + length - 1) / ShardSize)
	if end >= len(d.shards) {
		end = len(d.shards) - 1
	}
	return start, end
}

// ReadAt reads into p starting at byte offset off, short-reading at the
// end of the device rather than erroring.
func (d *Disk) ReadAt(p []byte, off int64) (int, error) {
	if off >= d.size {
		return 0, nil
	}

	available := d.size - off
	if int64(len(p)) > available {
		p = p[:available]
	}

	startShard, endShard := d.shardRange(off, int64(len(p)))
	for i := startShard; i <= endShard; i++ {
		d.shards[i].RLock()
	}
	n := copy(p, d.data[off:off+int64(len(p))])
	for i := startShard; i <= endShard; i++ {
		d.shards[i].RUnlock()
	}
	return n, nil
}

// WriteAt writes p starting at byte offset off. Writing at or beyond the
// end of the device is an error.
func (d *Disk) WriteAt(p []byte, off int64) (int, error) {
	if off >= d.size {
		return 0, fmt.Errorf("ramdisk: write beyond end of device")
	}

	available := d.size - off
	if int64(len(p)) > available {
		p = p[:available]
	}

	startShard, endShard := d.shardRange(off, int64(len(p)))
	for i := startShard; i <= endShard; i++ {
		d.shards[i].Lock()
	}
	n := copy(d.data[off:off+int64(len(p))], p)
	for i := startShard; i <= endShard; i++ {
		d.shards[i].Unlock()
	}
	d.markWritten(off, int64(n))
	return n, nil
}

// markWritten flags every block touched by [off, off+n) as allocated.
// Guarded by its own mutex, independent of the byte-range shard locks,
// since the bitmap is orders of magnitude smaller than the data it
// tracks and would otherwise force false contention between writers to
// disjoint shards.
func (d *Disk) markWritten(off, n int64) {
	if n <= 0 {
		return
	}
	startBlock := off / d.blockSize
	endBlock := (off + n - 1) / d.blockSize
	d.blockMu.Lock()
	for b := startBlock; b <= endBlock && b < d.numBlocks; b++ {
		d.written[b] = true
	}
	d.blockMu.Unlock()
}

// Size returns the device's total byte size.
func (d *Disk) Size() int64 { return d.size }

// BlockSize returns the configured block size.
func (d *Disk) BlockSize() int64 { return d.blockSize }

// BlocksFree reports the number of blocks WriteAt has never touched,
// the ramdisk's stand-in for a real allocator's free-block count.
func (d *Disk) BlocksFree() int64 {
	d.blockMu.Lock()
	defer d.blockMu.Unlock()
	free := int64(0)
	for _, w := range d.written {
		if !w {
			free++
		}
	}
	return free
}

// Flush is a no-op: the ramdisk has no write-back target.
func (d *Disk) Flush() error { return nil }

// Close releases the backing buffer.
func (d *Disk) Close() error {
	d.data = nil
	return nil
}
