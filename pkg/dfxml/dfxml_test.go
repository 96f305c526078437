package dfxml_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kregerl/diskprobe/pkg/dfxml"
	"github.com/stretchr/testify/require"
)

func testHeader() dfxml.DFXMLHeader {
	return dfxml.DFXMLHeader{
		XmlOutput: dfxml.XmlOutputVersion,
		Metadata:  dfxml.DefaultMetadata,
		Creator: dfxml.Creator{
			Package:              "diskprobe",
			Version:              "0.1.0",
			ExecutionEnvironment: dfxml.GetExecEnv(),
		},
		Source: dfxml.Source{
			ImageFilename: "evidence.dd",
			SectorSize:    512,
			ImageSize:     1 << 20,
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	objects := []dfxml.FileObject{
		{
			Filename: "alpha.txt",
			NameType: "Win32",
			FileSize: 900,
			Inode:    27,
			Alloc:    1,
			MTime:    "2023-11-14T22:13:20Z",
			CTime:    "2023-11-14T22:13:20Z",
			ATime:    "2023-11-15T08:00:00Z",
			CrTime:   "2023-11-01T00:00:00Z",
		},
		{
			Filename: "ghost.txt",
			NameType: "POSIX",
			FileSize: 0,
			Inode:    31,
			Alloc:    0,
		},
	}

	var buf bytes.Buffer
	w := dfxml.NewDFXMLWriter(&buf)
	require.NoError(t, w.WriteHeader(testHeader()))
	for _, obj := range objects {
		require.NoError(t, w.WriteFileObject(obj))
	}
	require.NoError(t, w.Close())

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "<?xml"))
	require.Contains(t, out, `xmloutputversion="1.0"`)
	require.Contains(t, out, "<dc:type>MFT Timeline Report</dc:type>")
	require.Contains(t, out, "<image_filename>evidence.dd</image_filename>")

	parsed, err := dfxml.ReadFileObjects(&buf)
	require.NoError(t, err)
	require.Len(t, parsed, 2)

	require.Equal(t, "alpha.txt", parsed[0].Filename)
	require.Equal(t, uint64(27), parsed[0].Inode)
	require.Equal(t, 1, parsed[0].Alloc)
	require.Equal(t, "2023-11-14T22:13:20Z", parsed[0].MTime)
	require.Equal(t, "2023-11-01T00:00:00Z", parsed[0].CrTime)

	require.Equal(t, "ghost.txt", parsed[1].Filename)
	require.Equal(t, 0, parsed[1].Alloc)
	require.Empty(t, parsed[1].MTime)
}

func TestReadFileObjectsEmptyDocument(t *testing.T) {
	var buf bytes.Buffer
	w := dfxml.NewDFXMLWriter(&buf)
	require.NoError(t, w.WriteHeader(testHeader()))
	require.NoError(t, w.Close())

	parsed, err := dfxml.ReadFileObjects(&buf)
	require.NoError(t, err)
	require.Empty(t, parsed)
}
