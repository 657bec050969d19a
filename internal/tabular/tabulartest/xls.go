package tabulartest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"unicode/utf16"
)

// BIFF8 record types
const (
	recBOF        = 0x0809
	recEOF        = 0x000A
	recBoundSheet = 0x0085
	recLabel      = 0x0204
	recNumber     = 0x0203
	recRK         = 0x027E
)

// Compound file layout: header, one FAT sector, one directory sector, then the workbook stream
const (
	sectorSize     = 512
	miniCutoff     = 4096
	freeSect       = 0xFFFFFFFF
	endOfChain     = 0xFFFFFFFE
	fatSect        = 0xFFFFFFFD
	noStream       = 0xFFFFFFFF
	firstDataSect  = 2
	maxDataSectors = sectorSize/4 - firstDataSect
)

var errStreamTooLarge = errors.New("workbook stream does not fit one FAT sector")

// XLS builds a single-sheet legacy BIFF8 workbook in an OLE2 container.
// Strings become LABEL records, small non-negative ints RK records, and other
// numbers (including DateCell serials) NUMBER records. nil leaves a cell empty.
func XLS(t testing.TB, rows ...[]any) []byte {
	t.Helper()

	var sheet bytes.Buffer
	writeRecord(&sheet, recBOF, bof(0x0010))
	for i, row := range rows {
		for j, v := range row {
			cell := make([]byte, 6)
			binary.LittleEndian.PutUint16(cell[0:], uint16(i))
			binary.LittleEndian.PutUint16(cell[2:], uint16(j))

			switch v := v.(type) {
			case nil:
			case string:
				units := utf16.Encode([]rune(v))
				data := binary.LittleEndian.AppendUint16(cell, uint16(len(units)))
				data = append(data, 0x01)
				for _, u := range units {
					data = binary.LittleEndian.AppendUint16(data, u)
				}
				writeRecord(&sheet, recLabel, data)
			case int:
				if v >= 0 && v < 1<<29 {
					writeRecord(&sheet, recRK, binary.LittleEndian.AppendUint32(cell, uint32(v)<<2|0x02))
				} else {
					writeRecord(&sheet, recNumber, binary.LittleEndian.AppendUint64(cell, math.Float64bits(float64(v))))
				}
			case float64:
				writeRecord(&sheet, recNumber, binary.LittleEndian.AppendUint64(cell, math.Float64bits(v)))
			case DateCell:
				writeRecord(&sheet, recNumber, binary.LittleEndian.AppendUint64(cell, math.Float64bits(v.Serial)))
			default:
				t.Fatalf("xls cell %d,%d: unsupported value %T", i, j, v)
			}
		}
	}
	writeRecord(&sheet, recEOF, nil)

	name := []byte("Sheet1")
	var globals bytes.Buffer
	writeRecord(&globals, recBOF, bof(0x0005))
	// BOUNDSHEET points at the sheet substream, which follows the globals EOF
	sheetPos := globals.Len() + 4 + 8 + len(name) + 4
	bound := binary.LittleEndian.AppendUint32(nil, uint32(sheetPos))
	bound = append(bound, 0x00, 0x00, byte(len(name)), 0x00)
	bound = append(bound, name...)
	writeRecord(&globals, recBoundSheet, bound)
	writeRecord(&globals, recEOF, nil)

	stream := append(globals.Bytes(), sheet.Bytes()...)
	if len(stream) < miniCutoff {
		stream = append(stream, make([]byte, miniCutoff-len(stream))...)
	}
	content, err := compoundFile(stream)
	if err != nil {
		t.Fatalf("build xls: %v", err)
	}
	return content
}

func writeRecord(buf *bytes.Buffer, kind uint16, data []byte) {
	_ = binary.Write(buf, binary.LittleEndian, kind)
	_ = binary.Write(buf, binary.LittleEndian, uint16(len(data)))
	buf.Write(data)
}

// bof returns BIFF8 BOF record data for a substream type
func bof(kind uint16) []byte {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint16(data[0:], 0x0600)
	binary.LittleEndian.PutUint16(data[2:], kind)
	return data
}

// compoundFile wraps a workbook stream in a version 3 compound file
func compoundFile(stream []byte) ([]byte, error) {
	sectors := (len(stream) + sectorSize - 1) / sectorSize
	if sectors > maxDataSectors {
		return nil, errStreamTooLarge
	}
	padded := make([]byte, sectors*sectorSize)
	copy(padded, stream)

	header := make([]byte, sectorSize)
	copy(header, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	le16 := binary.LittleEndian.PutUint16
	le32 := binary.LittleEndian.PutUint32
	le16(header[0x18:], 0x003E) // minor version
	le16(header[0x1A:], 0x0003) // major version
	le16(header[0x1C:], 0xFFFE) // byte order
	le16(header[0x1E:], 0x0009) // 512-byte sectors
	le16(header[0x20:], 0x0006) // 64-byte mini sectors
	le32(header[0x2C:], 1)      // FAT sectors
	le32(header[0x30:], 1)      // first directory sector
	le32(header[0x38:], miniCutoff)
	le32(header[0x3C:], endOfChain) // no mini FAT
	le32(header[0x44:], endOfChain) // no DIFAT sectors
	le32(header[0x4C:], 0)          // FAT lives in sector 0
	for i := 1; i < 109; i++ {
		le32(header[0x4C+4*i:], freeSect)
	}

	fat := make([]byte, sectorSize)
	for i := 0; i < sectorSize/4; i++ {
		le32(fat[4*i:], freeSect)
	}
	le32(fat[0:], fatSect)
	le32(fat[4:], endOfChain)
	for i := 0; i < sectors; i++ {
		next := uint32(firstDataSect + i + 1)
		if i == sectors-1 {
			next = endOfChain
		}
		le32(fat[4*(firstDataSect+i):], next)
	}

	dir := make([]byte, sectorSize)
	dirEntry(dir[0:128], "Root Entry", 5, 1, endOfChain, 0)
	dirEntry(dir[128:256], "Workbook", 2, noStream, firstDataSect, uint64(len(stream)))

	out := make([]byte, 0, len(header)+len(fat)+len(dir)+len(padded))
	out = append(out, header...)
	out = append(out, fat...)
	out = append(out, dir...)
	return append(out, padded...), nil
}

func dirEntry(entry []byte, name string, kind byte, child, start uint32, size uint64) {
	units := utf16.Encode([]rune(name))
	for i, u := range units {
		binary.LittleEndian.PutUint16(entry[2*i:], u)
	}
	binary.LittleEndian.PutUint16(entry[64:], uint16(2*(len(units)+1)))
	entry[66] = kind
	entry[67] = 1 // black
	binary.LittleEndian.PutUint32(entry[68:], noStream)
	binary.LittleEndian.PutUint32(entry[72:], noStream)
	binary.LittleEndian.PutUint32(entry[76:], child)
	binary.LittleEndian.PutUint32(entry[116:], start)
	binary.LittleEndian.PutUint64(entry[120:], size)
}
