package ingest

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var pdfcpuOnce sync.Once

// PageBytes cuts page pageIndex (0-based) out of the file as a standalone PDF.
func PageBytes(path string, pageIndex int) ([]byte, error) {
	pdfcpuOnce.Do(api.DisableConfigDir)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var out bytes.Buffer
	if err := api.Trim(f, &out, []string{strconv.Itoa(pageIndex + 1)}, conf); err != nil {
		return nil, fmt.Errorf("failed to split page %d: %w", pageIndex+1, err)
	}
	return out.Bytes(), nil
}
