package disk

import (
	"bytes"
	"fmt"

	"github.com/kregerl/diskprobe/internal/fs"
)

// Detect probes the image's first sectors and returns the partition table
// decoded with whichever scheme claims the disk. A valid MBR whose entries
// include the 0xEE protective type hands the disk over to GPT.
func Detect(img fs.File) (*PartitionTable, error) {
	var sector [DefaultSectorSize]byte
	if err := readLBA(img, 0, sector[:]); err != nil {
		return nil, err
	}

	if bytes.Equal(sector[0:2], apmDriverSignature) {
		partitions, err := ParseAPMPartitions(img)
		if err != nil {
			return nil, err
		}
		return &PartitionTable{Scheme: SchemeAPM, Partitions: partitions}, nil
	}

	if mbr, err := ParseMBR(sector[:]); err == nil {
		for i := range mbr.PartitionEntries {
			if mbr.PartitionEntries[i].PartitionType == mbrTypeGPT {
				partitions, err := ParseGPTPartitions(img)
				if err != nil {
					return nil, err
				}
				return &PartitionTable{Scheme: SchemeGPT, Partitions: partitions}, nil
			}
		}
		partitions, err := ParseMBRPartitions(img)
		if err != nil {
			return nil, err
		}
		return &PartitionTable{Scheme: SchemeMBR, Partitions: partitions}, nil
	}

	return nil, fmt.Errorf("%w: no MBR, GPT or APM structures found", ErrUnsupportedScheme)
}
