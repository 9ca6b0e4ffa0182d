// Package mmap maps peripheral register windows from /dev/mem. The PIO and
// DMA blocks are programmed exclusively through 32-bit register accesses
// into windows opened here.
package mmap

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MemoryMap is a mapped physical register window.
type MemoryMap struct {
	addr   uintptr
	size   uintptr
	region []byte
}

// New maps size bytes of physical memory starting at addr. addr must be
// page-aligned; register block bases are.
func New(addr, size uintptr) (*MemoryMap, error) {
	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open /dev/mem: %v", err)
	}
	defer f.Close()

	region, err := unix.Mmap(
		int(f.Fd()),
		int64(addr),
		int(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap 0x%x: %v", addr, err)
	}

	return &MemoryMap{
		addr:   addr,
		size:   size,
		region: region,
	}, nil
}

// Close unmaps the window.
func (m *MemoryMap) Close() error {
	if m.region == nil {
		return nil
	}
	err := unix.Munmap(m.region)
	m.region = nil
	return err
}

// Base returns the physical base address of the window.
func (m *MemoryMap) Base() uintptr { return m.addr }

// Read32 reads the 32-bit register at the given byte offset.
func (m *MemoryMap) Read32(offset uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(&m.region[offset]))
}

// Write32 writes the 32-bit register at the given byte offset.
func (m *MemoryMap) Write32(offset uintptr, value uint32) {
	*(*uint32)(unsafe.Pointer(&m.region[offset])) = value
}
