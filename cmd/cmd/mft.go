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
	"time"

	"github.com/kregerl/diskprobe/internal/disk"
	"github.com/kregerl/diskprobe/internal/env"
	"github.com/kregerl/diskprobe/internal/fs"
	"github.com/kregerl/diskprobe/internal/logger"
	"github.com/kregerl/diskprobe/internal/ntfs"
	"github.com/kregerl/diskprobe/pkg/dfxml"
	"github.com/spf13/cobra"
)

func DefineMftCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "mft <image>",
		Short:        "List MFT file records of an NTFS partition",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunMft,
	}

	cmd.Flags().IntP("partition", "p", -1, "partition number to inspect (default: first NTFS partition)")
	cmd.Flags().Bool("include-deleted", false, "also list records no longer in use")
	cmd.Flags().StringP("output", "o", "", "write a DFXML timeline report to the given file")
	cmd.Flags().String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")

	return cmd
}

func RunMft(cmd *cobra.Command, args []string) error {
	path := fs.NormalizeVolumePath(args[0])

	pnum, _ := cmd.Flags().GetInt("partition")
	includeDeleted, _ := cmd.Flags().GetBool("include-deleted")
	outputFile, _ := cmd.Flags().GetString("output")
	logLevel, _ := cmd.Flags().GetString("log-level")

	log := logger.New(os.Stderr, logger.ParseLevel(logLevel))

	img, err := fs.Open(path)
	if err != nil {
		return err
	}
	defer img.Close()

	store, err := openStore(img, pnum, log)
	if err != nil {
		return err
	}

	records := store.Records()
	if !includeDeleted {
		live := records[:0]
		for _, rec := range records {
			if rec.InUse() {
				live = append(live, rec)
			}
		}
		records = live
	}
	log.Infof("decoded %d of %d record slots", len(records), store.RecordCount())

	if outputFile != "" {
		if err := writeTimelineReport(outputFile, path, img, records); err != nil {
			return err
		}
		fmt.Printf("[INFO] Report saved to: \t%s\n", outputFile)
		return nil
	}

	printRecords(records)
	return nil
}

// openStore picks the NTFS partition to inspect. With pnum < 0 every
// partition is probed in order and the first valid NTFS boot sector wins.
func openStore(img fs.File, pnum int, log *logger.Logger) (*ntfs.RecordStore, error) {
	table, err := disk.Detect(img)
	if err != nil {
		return nil, err
	}

	candidates := table.Partitions
	if pnum >= 0 {
		if pnum >= len(table.Partitions) {
			return nil, fmt.Errorf("partition %d not found (%d partitions)", pnum, len(table.Partitions))
		}
		candidates = table.Partitions[pnum : pnum+1]
	}

	for i := range candidates {
		vol, err := ntfs.OpenVolume(img, &candidates[i])
		if err != nil {
			log.Debugf("partition %d: %v", candidates[i].Num, err)
			continue
		}
		log.Infof("NTFS volume on partition %d (cluster size %d, record size %d)",
			candidates[i].Num, vol.Boot.BytesPerCluster(), vol.Boot.FileRecordSize())
		return ntfs.OpenRecordStore(vol)
	}
	return nil, fmt.Errorf("no NTFS volume found")
}

func printRecords(records []*ntfs.Record) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "Record\tIn use\tName\tNamespace\t$SI Created\t$SI Modified\t$FN Created\t$FN Modified")
	for _, rec := range records {
		si := rec.StandardInformation()
		names := rec.FileNames()
		if len(names) == 0 {
			continue
		}
		for _, fn := range names {
			fmt.Fprintf(w, "%d\t%v\t%s\t%s\t%s\t%s\t%s\t%s\n",
				rec.Num, rec.InUse(), fn.Name, ntfs.NamespaceName(fn.Namespace),
				timeColumn(si, func(s *ntfs.StandardInformation) uint64 { return s.Created }),
				timeColumn(si, func(s *ntfs.StandardInformation) uint64 { return s.Modified }),
				formatFiletime(fn.Created), formatFiletime(fn.Modified))
		}
	}
}

func timeColumn(si *ntfs.StandardInformation, field func(*ntfs.StandardInformation) uint64) string {
	if si == nil {
		return "-"
	}
	return formatFiletime(field(si))
}

func formatFiletime(ft uint64) string {
	return ntfs.FiletimeToTime(ft).Format(time.RFC3339)
}

func writeTimelineReport(reportFile, imagePath string, img fs.File, records []*ntfs.Record) error {
	outFile, err := os.Create(reportFile)
	if err != nil {
		return err
	}
	defer outFile.Close()

	info, err := img.Stat()
	if err != nil {
		return err
	}

	w := dfxml.NewDFXMLWriter(outFile)
	err = w.WriteHeader(dfxml.DFXMLHeader{
		XmlOutput: dfxml.XmlOutputVersion,
		Metadata:  dfxml.DefaultMetadata,
		Creator: dfxml.Creator{
			Package:              env.AppName,
			Version:              env.Version,
			ExecutionEnvironment: dfxml.GetExecEnv(),
		},
		Source: dfxml.Source{
			ImageFilename: imagePath,
			SectorSize:    disk.DefaultSectorSize,
			ImageSize:     uint64(info.Size()),
		},
	})
	if err != nil {
		return err
	}

	for _, rec := range records {
		alloc := 0
		if rec.InUse() {
			alloc = 1
		}
		si := rec.StandardInformation()
		for _, fn := range rec.FileNames() {
			obj := dfxml.FileObject{
				Filename: fn.Name,
				NameType: ntfs.NamespaceName(fn.Namespace),
				FileSize: fn.RealSize,
				Inode:    rec.Num,
				Alloc:    alloc,
				CrTime:   reportTime(fn.Created),
				MTime:    reportTime(fn.Modified),
				ATime:    reportTime(fn.Accessed),
			}
			if si != nil {
				// $SI timestamps take precedence over the $FN copies.
				obj.CrTime = reportTime(si.Created)
				obj.MTime = reportTime(si.Modified)
				obj.CTime = reportTime(si.MFTModified)
				obj.ATime = reportTime(si.Accessed)
			}
			if err := w.WriteFileObject(obj); err != nil {
				return err
			}
		}
	}
	return w.Close()
}

func reportTime(ft uint64) string {
	return ntfs.FiletimeToTime(ft).Format("2006-01-02T15:04:05Z")
}
