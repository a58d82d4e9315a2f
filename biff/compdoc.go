package biff

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"
)

const (
	EOCSID  = -2 // End of chain
	FREESID = -1 // Free sector
	SATSID  = -3 // Sector allocation table
	MSATSID = -4 // Master sector allocation table
	EVILSID = -5 // Invalid sector
)

// CompDocError represents an error in compound document handling.
type CompDocError struct {
	Message string
}

func (e *CompDocError) Error() string {
	return e.Message
}

// DirNode represents a directory entry in an OLE2 compound document.
type DirNode struct {
	DID      int
	Name     string
	EType    int // 1=storage, 2=stream, 5=root
	FirstSID int
	TotSize  int
	Children []int
	Parent   int
	leftDID  int
	rightDID int
	rootDID  int
}

// CompDoc handles OLE2 compound document files.
type CompDoc struct {
	// Mem is the raw contents of the file.
	Mem []byte

	// Logfile is the file to which messages are written.
	Logfile io.Writer

	// DEBUG is the debug level.
	DEBUG int

	// IgnoreWorkbookCorruption indicates whether to ignore workbook corruption errors.
	IgnoreWorkbookCorruption bool

	// Internal fields
	secSize          int
	shortSecSize     int
	SAT              []int
	SSAT             []int
	SSCS             []byte
	dirList          []*DirNode
	memDataSecs      int
	memDataLen       int
	minSizeStdStream int
	seen             []int
}

// LocateNamedStream locates a named stream in the compound document.
// Returns (mem, base, streamLen, error)
func (cd *CompDoc) LocateNamedStream(qname string) ([]byte, int, int, error) {
	// Search for the stream in the directory
	path := strings.Split(qname, "/")
	d := cd.dirSearch(path, 0)
	if d == nil {
		return nil, 0, 0, nil
	}

	if d.TotSize > cd.memDataLen {
		return nil, 0, 0, &CompDocError{
			Message: fmt.Sprintf("%q stream length (%d bytes) > file data size (%d bytes)",
				qname, d.TotSize, cd.memDataLen),
		}
	}

	if d.TotSize >= cd.minSizeStdStream {
		// Standard stream
		result, base, streamLen, err := cd.locateStream(
			cd.Mem, 512, cd.SAT, cd.secSize, d.FirstSID,
			d.TotSize, qname, d.DID+6)
		if err != nil {
			return nil, 0, 0, err
		}
		return result, base, streamLen, nil
	} else {
		// Short stream (from SSCS)
		result := cd.getStream(
			cd.SSCS, 0, cd.SSAT, cd.shortSecSize, d.FirstSID,
			d.TotSize, qname+" (from SSCS)", 0)
		return result, 0, d.TotSize, nil
	}
}

// dirSearch searches for a directory entry by path.
func (cd *CompDoc) dirSearch(path []string, storageDID int) *DirNode {
	if len(path) == 0 {
		return nil
	}

	head := strings.ToLower(path[0])
	tail := path[1:]
	dl := cd.dirList

	if storageDID < 0 || storageDID >= len(dl) {
		return nil
	}

	for _, child := range dl[storageDID].Children {
		if strings.ToLower(dl[child].Name) == head {
			et := dl[child].EType
			if et == 2 {
				// Stream found
				if len(tail) == 0 {
					return dl[child]
				}
				return nil
			}
			if et == 1 {
				// Storage - recurse
				if len(tail) == 0 {
					return nil
				}
				return cd.dirSearch(tail, child)
			}
		}
	}
	return nil
}

func xDumpLine(alist []int, stride int, f io.Writer, dpos int, equal bool) {
	marker := " "
	if equal {
		marker = "="
	}
	fmt.Fprintf(f, "%5d%s ", dpos, marker)
	for _, value := range alist[dpos:minInt(dpos+stride, len(alist))] {
		fmt.Fprintf(f, "%d ", value)
	}
	fmt.Fprintln(f)
}

func dumpList(alist []int, stride int, f io.Writer) {
	pos := -1
	oldpos := -1
	for pos = 0; pos < len(alist); pos += stride {
		if oldpos == -1 {
			xDumpLine(alist, stride, f, pos, false)
			oldpos = pos
			continue
		}
		if !intSliceEqual(alist[oldpos:minInt(oldpos+stride, len(alist))],
			alist[pos:minInt(pos+stride, len(alist))]) {
			if pos-oldpos > stride {
				xDumpLine(alist, stride, f, pos-stride, true)
			}
			xDumpLine(alist, stride, f, pos, false)
			oldpos = pos
		}
	}
	if oldpos != -1 && pos != -1 && pos != oldpos {
		xDumpLine(alist, stride, f, pos, true)
	}
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// locateStream locates a stream and returns (mem, base, streamLen).
func (cd *CompDoc) locateStream(mem []byte, base int, sat []int, secSize int, startSID int, expectedStreamSize int, qname string, seenID int) ([]byte, int, int, error) {
	s := startSID
	if s < 0 {
		return nil, 0, 0, &CompDocError{Message: fmt.Sprintf("_locate_stream: start_sid (%d) is negative", startSID)}
	}

	foundLimit := (expectedStreamSize + secSize - 1) / secSize
	totFound := 0
	slices := []struct{ start, end int }{}

	for s >= 0 {
		if s >= len(cd.seen) {
			break
		}

		// Check for corruption: if this sector has already been seen
		if cd.seen[s] != 0 {
			if !cd.IgnoreWorkbookCorruption {
				return nil, 0, 0, &CompDocError{
					Message: fmt.Sprintf("%s corruption: seen[%d] == %d", qname, s, cd.seen[s]),
				}
			}
			if cd.DEBUG > 0 {
				fmt.Fprintf(cd.Logfile, "_locate_stream(%s): seen\n", qname)
			}
			break
		}
		cd.seen[s] = seenID
		totFound++

		if totFound > foundLimit {
			return nil, 0, 0, &CompDocError{
				Message: fmt.Sprintf("%s: size exceeds expected %d bytes; corrupt?", qname, foundLimit*secSize),
			}
		}

		startPos := base + s*secSize
		endPos := startPos + secSize

		if len(slices) > 0 && slices[len(slices)-1].end == startPos {
			// Extend previous slice (contiguous)
			slices[len(slices)-1].end = endPos
		} else {
			// Start new slice
			slices = append(slices, struct{ start, end int }{startPos, endPos})
		}

		if s < 0 || s >= len(sat) {
			return nil, 0, 0, &CompDocError{
				Message: fmt.Sprintf("OLE2 stream %q: sector allocation table invalid entry (%d)", qname, s),
			}
		}
		s = sat[s]
	}

	// For now, return contiguous result if possible
	if len(slices) == 1 {
		startPos := slices[0].start
		streamLen := slices[0].end - startPos
		if streamLen > expectedStreamSize {
			streamLen = expectedStreamSize
		}
		return mem, startPos, streamLen, nil
	}

	// For fragmented streams, rebuild a contiguous byte slice.
	if len(slices) > 0 {
		result := make([]byte, 0, expectedStreamSize)
		for _, part := range slices {
			if part.start < 0 || part.end > len(mem) || part.start >= part.end {
				continue
			}
			result = append(result, mem[part.start:part.end]...)
			if len(result) >= expectedStreamSize {
				result = result[:expectedStreamSize]
				break
			}
		}
		// The sector chain can end (or skip an invalid entry) before
		// accumulating expectedStreamSize bytes; report the length
		// actually assembled, not the declared one, so callers never
		// read past the end of result.
		return result, 0, len(result), nil
	}

	return nil, 0, 0, nil
}

// getStream gets a stream from the sector allocation table.
func (cd *CompDoc) getStream(mem []byte, base int, sat []int, secSize int, startSID int, size int, name string, seenID int) []byte {
	var sectors [][]byte
	s := startSID

	todo := size
	for s >= 0 && todo > 0 {
		if s >= len(sat) {
			if cd.IgnoreWorkbookCorruption {
				fmt.Fprintf(cd.Logfile, "WARNING *** OLE2 stream %q: sector allocation table invalid entry (%d)\n", name, s)
				break
			}
			return nil
		}

		// Check for corruption: if this sector has already been seen
		// Skip corruption check for short streams (seenID == 0, equivalent to None in Python)
		if seenID != 0 && s < len(cd.seen) && cd.seen[s] != 0 {
			if !cd.IgnoreWorkbookCorruption {
				fmt.Fprintf(cd.Logfile, "_get_stream(%s): seen corruption at sector %d (value %d)\n", name, s, cd.seen[s])
				return nil
			}
			fmt.Fprintf(cd.Logfile, "_get_stream(%s): ignoring corruption at sector %d (value %d)\n", name, s, cd.seen[s])
		}
		if seenID != 0 && s < len(cd.seen) {
			cd.seen[s] = seenID
		}

		startPos := base + s*secSize
		grab := secSize
		if grab > todo {
			grab = todo
		}
		if startPos+grab > len(mem) {
			break
		}
		sectors = append(sectors, mem[startPos:startPos+grab])
		todo -= grab
		s = sat[s]
	}

	result := make([]byte, 0, size)
	for _, sector := range sectors {
		result = append(result, sector...)
	}
	if todo != 0 && cd.Logfile != nil {
		fmt.Fprintf(cd.Logfile, "WARNING *** OLE2 stream %q: expected size %d, actual size %d\n", name, size, size-todo)
	}
	return result
}

// NewCompDoc creates a new CompDoc instance.
func NewCompDoc(mem []byte, logfile io.Writer, debug int, ignoreWorkbookCorruption bool) (*CompDoc, error) {
	if len(mem) < 8 {
		return nil, &CompDocError{Message: "File too short to be an OLE2 compound document"}
	}

	if string(mem[:8]) != string(XLS_SIGNATURE) {
		return nil, &CompDocError{Message: "Not an OLE2 compound document"}
	}

	// The header proper runs through byte 512 (the 109-entry MSAT table
	// fills mem[76:512]), and memDataLen below assumes a file is at least
	// that long; a shorter file must fail here rather than drive
	// memDataLen negative.
	if len(mem) < 512 {
		return nil, &CompDocError{Message: "File too short"}
	}

	if mem[28] != 0xFE || mem[29] != 0xFF {
		return nil, &CompDocError{Message: "Expected little-endian marker"}
	}

	cd := &CompDoc{
		Mem:                      mem,
		Logfile:                  logfile,
		DEBUG:                    debug,
		IgnoreWorkbookCorruption: ignoreWorkbookCorruption,
	}

	warnf := func(format string, args ...interface{}) {
		if cd.Logfile != nil {
			fmt.Fprintf(cd.Logfile, format, args...)
		}
	}
	fail := func(msg string) error {
		if cd.IgnoreWorkbookCorruption {
			warnf("WARNING *** %s\n", msg)
			return nil
		}
		return &CompDocError{Message: msg}
	}

	// Parse header
	ssz := int(binary.LittleEndian.Uint16(mem[30:32]))
	sssz := int(binary.LittleEndian.Uint16(mem[32:34]))

	if ssz > 20 {
		warnf("WARNING: sector size (2**%d) is preposterous; assuming 512 and continuing ...\n", ssz)
		ssz = 9 // Default to 512 bytes
	}
	if sssz > ssz {
		warnf("WARNING: short stream sector size (2**%d) is preposterous; assuming 64 and continuing ...\n", sssz)
		sssz = 6 // Default to 64 bytes
	}

	cd.secSize = 1 << ssz
	cd.shortSecSize = 1 << sssz

	// Parse header fields
	_ = int(binary.LittleEndian.Uint32(mem[44:48])) // SATTotSecs - not used yet
	dirFirstSecSID := int(binary.LittleEndian.Uint32(mem[48:52]))
	cd.minSizeStdStream = int(binary.LittleEndian.Uint32(mem[56:60]))
	SSATFirstSecSID := int(binary.LittleEndian.Uint32(mem[60:64]))
	SSATTotSecs := int(binary.LittleEndian.Uint32(mem[64:68]))
	_ = int(binary.LittleEndian.Uint32(mem[68:72])) // MSATXFirstSecSID - not used yet
	_ = int(binary.LittleEndian.Uint32(mem[72:76])) // MSATXTotSecs - not used yet

	memDataLen := len(mem) - 512
	memDataSecs := (memDataLen + cd.secSize - 1) / cd.secSize
	cd.memDataSecs = memDataSecs
	cd.memDataLen = memDataLen
	cd.seen = make([]int, memDataSecs)
	if memDataLen%cd.secSize != 0 {
		warnf("WARNING *** file size (%d) not 512 + multiple of sector size (%d)\n", len(mem), cd.secSize)
	}

	// Build MSAT (Master Sector Allocation Table)
	MSAT := make([]int, 109)
	for i := 0; i < 109; i++ {
		MSAT[i] = int(int32(binary.LittleEndian.Uint32(mem[76+i*4 : 80+i*4])))
	}
	nent := cd.secSize / 4
	satSectorsReqd := (memDataSecs + nent - 1) / nent
	expectedMSATXSectors := 0
	if satSectorsReqd > 109 {
		expectedMSATXSectors = (satSectorsReqd - 109 + nent - 2) / (nent - 1)
	}
	actualMSATXSectors := 0

	// Handle MSAT extensions if present
	MSATXFirstSecSID := int(int32(binary.LittleEndian.Uint32(mem[68:72])))
	MSATXTotSecs := int(binary.LittleEndian.Uint32(mem[72:76]))

	// Check if MSAT extension exists
	hasMSATExt := true
	if MSATXTotSecs == 0 && (MSATXFirstSecSID == EOCSID || MSATXFirstSecSID == FREESID || MSATXFirstSecSID == 0) {
		hasMSATExt = false // No extension
	}

	if hasMSATExt {
		sid := MSATXFirstSecSID
		for sid != EOCSID && sid != FREESID && sid != MSATSID {
			if sid >= memDataSecs {
				if err := fail(fmt.Sprintf("MSAT extension: accessing sector %d but only %d in file", sid, memDataSecs)); err != nil {
					return nil, err
				}
				break
			}
			if sid < 0 {
				if err := fail(fmt.Sprintf("MSAT extension: invalid sector id: %d", sid)); err != nil {
					return nil, err
				}
				break
			}
			if cd.seen[sid] != 0 {
				if err := fail(fmt.Sprintf("MSAT corruption: seen[%d] == %d", sid, cd.seen[sid])); err != nil {
					return nil, err
				}
				break
			}
			cd.seen[sid] = 1
			actualMSATXSectors++
			if cd.DEBUG > 0 && actualMSATXSectors > expectedMSATXSectors {
				warnf("[1]===>>> %d %d %d %d %d\n", memDataSecs, nent, satSectorsReqd, expectedMSATXSectors, actualMSATXSectors)
			}

			offset := 512 + sid*cd.secSize
			if offset+cd.secSize > len(mem) {
				break
			}

			// Read MSAT extension sector
			extMSAT := make([]int, cd.secSize/4)
			for j := 0; j < len(extMSAT); j++ {
				extMSAT[j] = int(int32(binary.LittleEndian.Uint32(mem[offset+j*4 : offset+(j+1)*4])))
			}

			MSAT = append(MSAT, extMSAT[:len(extMSAT)-1]...) // Last entry is next sector pointer
			sid = extMSAT[len(extMSAT)-1]                    // Next sector in chain
		}
	}
	if cd.DEBUG > 0 && actualMSATXSectors != expectedMSATXSectors {
		warnf("[2]===>>> %d %d %d %d %d\n", memDataSecs, nent, satSectorsReqd, expectedMSATXSectors, actualMSATXSectors)
	}

	// Build SAT (Sector Allocation Table)
	cd.SAT = make([]int, 0)
	actualSATSec := 0
	dumpAgain := false
	truncWarned := false

	for _, msid := range MSAT {
		if msid == FREESID || msid == EOCSID {
			continue
		}
		if msid < 0 || msid >= memDataSecs {
			if !truncWarned {
				warnf("WARNING *** File is truncated, or OLE2 MSAT is corrupt!!\n")
				warnf("INFO: Trying to access sector %d but only %d available\n", msid, memDataSecs)
				truncWarned = true
			}
			dumpAgain = true
			continue
		}
		if cd.seen[msid] != 0 {
			if err := fail(fmt.Sprintf("MSAT extension corruption: seen[%d] == %d", msid, cd.seen[msid])); err != nil {
				return nil, err
			}
			break
		}
		cd.seen[msid] = 2
		actualSATSec++
		if cd.DEBUG > 0 && actualSATSec > satSectorsReqd {
			warnf("[3]===>>> %d %d %d %d %d %d %d\n",
				memDataSecs, nent, satSectorsReqd, expectedMSATXSectors, actualMSATXSectors, actualSATSec, msid)
		}
		offset := 512 + msid*cd.secSize
		if offset+cd.secSize > len(mem) {
			continue
		}
		sector := make([]int, nent)
		for i := 0; i < nent; i++ {
			sector[i] = int(int32(binary.LittleEndian.Uint32(mem[offset+i*4 : offset+(i+1)*4])))
		}
		cd.SAT = append(cd.SAT, sector...)
	}
	if cd.DEBUG > 0 && dumpAgain {
		for satx := memDataSecs; satx < len(cd.SAT); satx++ {
			cd.SAT[satx] = EVILSID
		}
	}

	// Build directory - need to calculate directory size first
	// Directory is typically multiple sectors, but we'll read until we hit EOCSID
	dirSize := 0
	sid := dirFirstSecSID
	seenDir := make(map[int]bool)
	for sid >= 0 && sid < len(cd.SAT) {
		if seenDir[sid] {
			if err := fail(fmt.Sprintf("Directory chain corruption: seen[%d] twice", sid)); err != nil {
				return nil, err
			}
			break
		}
		seenDir[sid] = true
		dirSize += cd.secSize
		nextSid := cd.SAT[sid]
		if nextSid == EOCSID {
			break
		}
		sid = nextSid
	}
	dirBytes := cd.getStream(mem, 512, cd.SAT, cd.secSize, dirFirstSecSID, dirSize, "directory", 3)
	cd.dirList = make([]*DirNode, 0)

	for pos := 0; pos < len(dirBytes); pos += 128 {
		if pos+128 > len(dirBytes) {
			break
		}
		dent := dirBytes[pos : pos+128]

		cbufsize := binary.LittleEndian.Uint16(dent[64:66])
		etype := int(dent[66])
		leftDID := int(int32(binary.LittleEndian.Uint32(dent[68:72])))
		rightDID := int(int32(binary.LittleEndian.Uint32(dent[72:76])))
		rootDID := int(int32(binary.LittleEndian.Uint32(dent[76:80])))
		firstSID := int(int32(binary.LittleEndian.Uint32(dent[116:120])))
		totSize := int(int32(binary.LittleEndian.Uint32(dent[120:124])))

		var name string
		if cbufsize >= 2 && cbufsize <= 64 {
			nameBytes := dent[0 : cbufsize-2]
			// Convert UTF-16LE to string
			if len(nameBytes)%2 == 0 {
				words := make([]uint16, len(nameBytes)/2)
				for i := 0; i < len(words); i++ {
					words[i] = binary.LittleEndian.Uint16(nameBytes[i*2 : (i+1)*2])
				}
				name = string(utf16.Decode(words))
			}
		}

		did := len(cd.dirList)
		dn := &DirNode{
			DID:      did,
			Name:     name,
			EType:    etype,
			FirstSID: firstSID,
			TotSize:  totSize,
			Children: make([]int, 0),
			Parent:   -1,
			leftDID:  leftDID,
			rightDID: rightDID,
			rootDID:  rootDID,
		}
		cd.dirList = append(cd.dirList, dn)
	}

	// Build family tree
	if len(cd.dirList) > 0 {
		cd.buildFamilyTree(0, cd.dirList[0].rootDID)
	}

	// Get SSCS (Short Stream Container Stream)
	if len(cd.dirList) > 0 {
		sscsDir := cd.dirList[0]
		if sscsDir.FirstSID >= 0 && sscsDir.TotSize > 0 {
			cd.SSCS = cd.getStream(mem, 512, cd.SAT, cd.secSize, sscsDir.FirstSID, sscsDir.TotSize, "SSCS", 4)
		} else {
			cd.SSCS = []byte{}
		}

		// Build SSAT (Short Sector Allocation Table)
		cd.SSAT = make([]int, 0)
		if SSATTotSecs > 0 && sscsDir.TotSize == 0 {
			warnf("WARNING *** OLE2 inconsistency: SSCS size is 0 but SSAT size is non-zero\n")
		}
		if SSATTotSecs > 0 && len(cd.SSCS) > 0 {
			sid := SSATFirstSecSID
			nsecs := SSATTotSecs
			for sid >= 0 && nsecs > 0 {
				if sid < len(cd.seen) && cd.seen[sid] != 0 {
					if err := fail(fmt.Sprintf("SSAT corruption: seen[%d] == %d", sid, cd.seen[sid])); err != nil {
						return nil, err
					}
					break
				}
				if sid < len(cd.seen) {
					cd.seen[sid] = 5
				}
				if sid >= len(cd.SAT) {
					break
				}
				offset := 512 + sid*cd.secSize
				if offset+cd.secSize > len(mem) {
					break
				}
				sector := make([]int, nent)
				for i := 0; i < nent; i++ {
					sector[i] = int(int32(binary.LittleEndian.Uint32(mem[offset+i*4 : offset+(i+1)*4])))
				}
				cd.SSAT = append(cd.SSAT, sector...)
				sid = cd.SAT[sid]
				nsecs--
			}
			if nsecs != 0 || sid != EOCSID {
				if err := fail("SSAT chain ended prematurely"); err != nil {
					return nil, err
				}
			}
		}
	}

	return cd, nil
}

// buildFamilyTree builds the directory tree structure, starting the walk
// fresh each time it's called from outside itself.
func (cd *CompDoc) buildFamilyTree(parentDID, childDID int) {
	visited := make([]bool, len(cd.dirList))
	cd.buildFamilyTreeWalk(parentDID, childDID, visited)
}

// buildFamilyTreeWalk is buildFamilyTree's recursive body. A crafted
// directory entry whose leftDID/rightDID/rootDID loops back on an
// ancestor would otherwise recurse forever, so each DID is visited at
// most once per walk.
func (cd *CompDoc) buildFamilyTreeWalk(parentDID, childDID int, visited []bool) {
	if childDID < 0 || childDID >= len(cd.dirList) || visited[childDID] {
		return
	}
	visited[childDID] = true
	cd.buildFamilyTreeWalk(parentDID, cd.dirList[childDID].leftDID, visited)
	cd.dirList[parentDID].Children = append(cd.dirList[parentDID].Children, childDID)
	cd.dirList[childDID].Parent = parentDID
	cd.buildFamilyTreeWalk(parentDID, cd.dirList[childDID].rightDID, visited)
	if cd.dirList[childDID].EType == 1 {
		cd.buildFamilyTreeWalk(childDID, cd.dirList[childDID].rootDID, visited)
	}
}
