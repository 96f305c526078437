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
	"time"

	"github.com/kregerl/diskprobe/internal/fs"
	"github.com/kregerl/diskprobe/internal/logger"
	"github.com/spf13/cobra"
)

func DefineTimestompCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "timestomp <image>",
		Short:        "Rewrite the NTFS timestamps of a single file record",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         RunTimestomp,
	}

	cmd.Flags().StringP("name", "n", "", "exact file name of the target record")
	cmd.Flags().Int64P("timestamp", "t", 0, "replacement timestamp as Unix epoch seconds")
	cmd.Flags().IntP("partition", "p", -1, "partition number to inspect (default: first NTFS partition)")
	cmd.Flags().String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")

	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("timestamp")

	return cmd
}

func RunTimestomp(cmd *cobra.Command, args []string) error {
	path := fs.NormalizeVolumePath(args[0])

	name, _ := cmd.Flags().GetString("name")
	epoch, _ := cmd.Flags().GetInt64("timestamp")
	pnum, _ := cmd.Flags().GetInt("partition")
	logLevel, _ := cmd.Flags().GetString("log-level")

	log := logger.New(os.Stderr, logger.ParseLevel(logLevel))

	// A single read-write handle serves both the scan and the patch.
	img, err := fs.OpenRW(path)
	if err != nil {
		return err
	}
	defer img.Close()

	store, err := openStore(img, pnum, log)
	if err != nil {
		return err
	}

	ts := time.Unix(epoch, 0).UTC()
	if err := store.Timestomp(img, name, ts); err != nil {
		return err
	}
	fmt.Printf("[INFO] Timestomped %q to %s\n", name, ts.Format(time.RFC3339))
	return nil
}
