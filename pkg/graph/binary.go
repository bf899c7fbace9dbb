package graph

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"unsafe"
)

const (
	magicBytes = "CHROUTER"
	version    = uint32(1)
	maxNodes   = 10_000_000
	maxEdges   = 200_000_000
)

// ErrInvalidFile is returned by ReadBinary for files it did not write or
// that were damaged since.
var ErrInvalidFile = errors.New("invalid graph file")

const (
	flagCoords     = 1 << 0
	flagGeographic = 1 << 1
)

// fileHeader is the binary header.
type fileHeader struct {
	Magic        [8]byte
	Version      uint32
	Flags        uint32
	NumNodes     uint32
	NumEdges     uint32 // augmented outgoing edges, shortcuts included
	NumShortcuts uint32
}

// WriteBinary serializes a RankedGraph to a binary file. The outgoing
// adjacency is flattened to CSR; incoming lists are rebuilt on read.
// Uses unsafe.Slice for fast zero-copy I/O.
func WriteBinary(path string, rg *RankedGraph) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // clean up on error
	}()

	crcWriter := crc32Writer{w: f, hash: crc32.NewIEEE()}
	w := &crcWriter

	n := rg.NumNodes
	firstOut := make([]uint32, n+1)
	var head []uint32
	var cost []int64
	var via []int32
	for u := uint32(0); u < n; u++ {
		for _, e := range rg.out[u] {
			head = append(head, e.To)
			cost = append(cost, e.Cost)
			via = append(via, e.Via)
		}
		firstOut[u+1] = uint32(len(head))
	}

	hdr := fileHeader{
		Version:      version,
		NumNodes:     n,
		NumEdges:     uint32(len(head)),
		NumShortcuts: rg.NumShortcuts,
	}
	if rg.HasCoords() {
		hdr.Flags |= flagCoords
	}
	if rg.Geographic {
		hdr.Flags |= flagGeographic
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if err := writeSlice(w, rg.Rank); err != nil {
		return fmt.Errorf("write Rank: %w", err)
	}
	if err := writeSlice(w, rg.Level); err != nil {
		return fmt.Errorf("write Level: %w", err)
	}
	if err := writeSlice(w, firstOut); err != nil {
		return fmt.Errorf("write FirstOut: %w", err)
	}
	if err := writeSlice(w, head); err != nil {
		return fmt.Errorf("write Head: %w", err)
	}
	if err := writeSlice(w, cost); err != nil {
		return fmt.Errorf("write Cost: %w", err)
	}
	if err := writeSlice(w, via); err != nil {
		return fmt.Errorf("write Via: %w", err)
	}
	if rg.HasCoords() {
		if err := writeSlice(w, rg.coords); err != nil {
			return fmt.Errorf("write Coords: %w", err)
		}
	}

	// Write CRC32 trailer.
	checksum := crcWriter.hash.Sum32()
	if err := binary.Write(f, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Atomic rename.
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

// ReadBinary deserializes a RankedGraph from a binary file.
func ReadBinary(path string) (*RankedGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	crcReader := crc32Reader{r: f, hash: crc32.NewIEEE()}
	r := &crcReader

	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if string(hdr.Magic[:]) != magicBytes {
		return nil, fmt.Errorf("%w: magic bytes %q", ErrInvalidFile, hdr.Magic)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFile, hdr.Version)
	}
	if hdr.NumNodes > maxNodes {
		return nil, fmt.Errorf("%w: NumNodes %d exceeds limit %d", ErrInvalidFile, hdr.NumNodes, maxNodes)
	}
	if hdr.NumEdges > maxEdges {
		return nil, fmt.Errorf("%w: NumEdges %d exceeds limit %d", ErrInvalidFile, hdr.NumEdges, maxEdges)
	}

	n := int(hdr.NumNodes)
	m := int(hdr.NumEdges)

	rank, err := readSlice[uint32](r, n)
	if err != nil {
		return nil, fmt.Errorf("read Rank: %w", err)
	}
	level, err := readSlice[int32](r, n)
	if err != nil {
		return nil, fmt.Errorf("read Level: %w", err)
	}
	firstOut, err := readSlice[uint32](r, n+1)
	if err != nil {
		return nil, fmt.Errorf("read FirstOut: %w", err)
	}
	head, err := readSlice[uint32](r, m)
	if err != nil {
		return nil, fmt.Errorf("read Head: %w", err)
	}
	cost, err := readSlice[int64](r, m)
	if err != nil {
		return nil, fmt.Errorf("read Cost: %w", err)
	}
	via, err := readSlice[int32](r, m)
	if err != nil {
		return nil, fmt.Errorf("read Via: %w", err)
	}
	var coords []Coord
	if hdr.Flags&flagCoords != 0 {
		if coords, err = readSlice[Coord](r, n); err != nil {
			return nil, fmt.Errorf("read Coords: %w", err)
		}
	}

	// Read and validate CRC32.
	expectedCRC := crcReader.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("read CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("%w: CRC32 mismatch: stored=%08x computed=%08x", ErrInvalidFile, storedCRC, expectedCRC)
	}

	if err := validateCSR(firstOut, head, hdr.NumNodes); err != nil {
		return nil, fmt.Errorf("%w: CSR: %w", ErrInvalidFile, err)
	}

	g := New(hdr.NumNodes)
	g.coords = coords
	g.Geographic = hdr.Flags&flagGeographic != 0
	for u := uint32(0); u < hdr.NumNodes; u++ {
		for e := firstOut[u]; e < firstOut[u+1]; e++ {
			if cost[e] < 0 {
				return nil, fmt.Errorf("%w: edge %d: %w", ErrInvalidFile, e, ErrNegativeCost)
			}
			if via[e] < NoVia || via[e] >= int32(hdr.NumNodes) {
				return nil, fmt.Errorf("%w: edge %d via %d", ErrInvalidFile, e, via[e])
			}
			g.out[u] = append(g.out[u], Edge{To: head[e], Cost: cost[e], Via: via[e]})
			g.in[head[e]] = append(g.in[head[e]], Edge{To: u, Cost: cost[e], Via: via[e]})
		}
	}

	rg := &RankedGraph{
		Graph:        g,
		Rank:         rank,
		Level:        level,
		NumShortcuts: hdr.NumShortcuts,
	}
	if err := rg.CheckRanks(); err != nil {
		return nil, fmt.Errorf("%w: rank: %w", ErrInvalidFile, err)
	}
	return rg, nil
}

// validateCSR checks CSR invariants.
func validateCSR(firstOut, head []uint32, numNodes uint32) error {
	if uint32(len(firstOut)) != numNodes+1 {
		return fmt.Errorf("FirstOut length %d != NumNodes+1 %d", len(firstOut), numNodes+1)
	}
	numEdges := firstOut[numNodes]
	if uint32(len(head)) != numEdges {
		return fmt.Errorf("Head length %d != FirstOut[NumNodes] %d", len(head), numEdges)
	}
	for i := uint32(1); i <= numNodes; i++ {
		if firstOut[i] < firstOut[i-1] {
			return fmt.Errorf("FirstOut not monotonic at %d: %d < %d", i, firstOut[i], firstOut[i-1])
		}
	}
	for i, h := range head {
		if h >= numNodes {
			return fmt.Errorf("Head[%d]=%d >= NumNodes=%d", i, h, numNodes)
		}
	}
	return nil
}

// Zero-copy I/O helpers using unsafe.Slice.

type fixedSize interface {
	~uint32 | ~int32 | ~int64 | Coord
}

func writeSlice[T fixedSize](w io.Writer, s []T) error {
	if len(s) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(s[0]))
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*size)
	_, err := w.Write(b)
	return err
}

func readSlice[T fixedSize](r io.Reader, n int) ([]T, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]T, n)
	size := int(unsafe.Sizeof(s[0]))
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*size)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

// CRC32 wrapping writers/readers.

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
