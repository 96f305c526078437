package disk

import "fmt"

// DefaultSectorSize is the logical block size assumed for disk images.
const DefaultSectorSize = 512

// Scheme identifies the partitioning scheme a Partition was decoded from.
type Scheme uint8

const (
	SchemeMBR Scheme = iota + 1
	SchemeGPT
	SchemeAPM
)

func (s Scheme) String() string {
	switch s {
	case SchemeMBR:
		return "MBR"
	case SchemeGPT:
		return "GPT"
	case SchemeAPM:
		return "APM"
	}
	return "unknown"
}

// CHS is a decoded Cylinder-Head-Sector address from an MBR entry.
type CHS struct {
	Cylinder uint16
	Head     uint8
	Sector   uint8
}

func (c CHS) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.Cylinder, c.Head, c.Sector)
}

// Partition is one decoded partition table entry, normalized across
// schemes. EndLBA is exclusive everywhere: SectorCount == EndLBA - StartLBA.
// Schemes whose on-disk ending field is inclusive (GPT) are converted at
// decode time.
type Partition struct {
	Scheme      Scheme
	Num         int
	StartLBA    uint64
	EndLBA      uint64 // exclusive
	SectorCount uint64
	Bootable    bool
	TypeID      string // "0x07" for MBR, a GUID for GPT, a type string for APM
	TypeName    string
	Name        string // GPT/APM only

	// CHS addresses are only present for MBR entries.
	StartCHS *CHS
	EndCHS   *CHS
}

// Offset returns the byte offset of the partition's first sector.
func (p *Partition) Offset() uint64 {
	return p.StartLBA * DefaultSectorSize
}

// Size returns the partition size in bytes.
func (p *Partition) Size() uint64 {
	return p.SectorCount * DefaultSectorSize
}

// PartitionTable is the result of probing an image: the detected scheme
// and its decoded entries in physical disk order.
type PartitionTable struct {
	Scheme     Scheme
	Partitions []Partition
}
