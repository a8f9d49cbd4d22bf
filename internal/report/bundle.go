package report

import (
	"archive/zip"
	"bytes"
	"fmt"
)

type File struct {
	Name string
	Data []byte
}

// Bundle packs files into a single zip archive in the given order.
func Bundle(files []File) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, f := range files {
		w, err := zw.Create(f.Name)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("bundle %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WorkbookName is the file name used for a campaign's donations export.
func WorkbookName(campaignID fmt.Stringer) string {
	return fmt.Sprintf("campaign-%s-donations.xlsx", campaignID)
}
