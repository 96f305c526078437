// Copyright (c) 2025 kregerl
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kregerl/diskprobe/internal/disk"
	"github.com/kregerl/diskprobe/internal/fs"
	"github.com/kregerl/diskprobe/pkg/util/format"
	"github.com/spf13/cobra"
)

func DefinePartitionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "partitions <image>",
		Short:        "List the partitions of an image file or disk",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunPartitions,
	}

	cmd.Flags().Bool("show-chs", false, "include CHS start/end columns (MBR only)")
	cmd.Flags().String("scheme", "", "force a partition scheme (mbr, gpt or apm) instead of probing")

	return cmd
}

func RunPartitions(cmd *cobra.Command, args []string) error {
	path := fs.NormalizeVolumePath(args[0])
	showCHS, _ := cmd.Flags().GetBool("show-chs")
	scheme, _ := cmd.Flags().GetString("scheme")

	img, err := fs.Open(path)
	if err != nil {
		return err
	}
	defer img.Close()

	table, err := resolveTable(img, scheme)
	if err != nil {
		return err
	}

	fmt.Printf("[INFO] Partition scheme: \t%s\n", table.Scheme)
	fmt.Printf("[INFO] Partitions found: \t%d\n", len(table.Partitions))
	fmt.Println()

	printPartitions(table, showCHS)
	return nil
}

func resolveTable(img fs.File, scheme string) (*disk.PartitionTable, error) {
	switch scheme {
	case "":
		return disk.Detect(img)
	case "mbr":
		partitions, err := disk.ParseMBRPartitions(img)
		if err != nil {
			return nil, err
		}
		return &disk.PartitionTable{Scheme: disk.SchemeMBR, Partitions: partitions}, nil
	case "gpt":
		partitions, err := disk.ParseGPTPartitions(img)
		if err != nil {
			return nil, err
		}
		return &disk.PartitionTable{Scheme: disk.SchemeGPT, Partitions: partitions}, nil
	case "apm":
		partitions, err := disk.ParseAPMPartitions(img)
		if err != nil {
			return nil, err
		}
		return &disk.PartitionTable{Scheme: disk.SchemeAPM, Partitions: partitions}, nil
	default:
		return nil, fmt.Errorf("unknown partition scheme %q", scheme)
	}
}

func printPartitions(table *disk.PartitionTable, showCHS bool) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprint(w, "Num\tStart LBA\tEnd LBA\tSectors\tSize\tBoot\tType\tName")
	if showCHS {
		fmt.Fprint(w, "\tStart CHS\tEnd CHS")
	}
	fmt.Fprintln(w)

	for _, p := range table.Partitions {
		boot := ""
		if p.Bootable {
			boot = "*"
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\t%s\t%s (%s)\t%s",
			p.Num, p.StartLBA, p.EndLBA, p.SectorCount,
			format.FormatBytes(int64(p.Size())), boot, p.TypeName, p.TypeID, p.Name)
		if showCHS {
			fmt.Fprintf(w, "\t%s\t%s", chsColumn(p.StartCHS), chsColumn(p.EndCHS))
		}
		fmt.Fprintln(w)
	}
}

func chsColumn(chs *disk.CHS) string {
	if chs == nil {
		return "-"
	}
	return chs.String()
}
