package pdf

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"pdfapi/internal/config"
)

// ErrInvalidPDF is returned when the input bytes cannot be parsed as a PDF document.
var ErrInvalidPDF = errors.New("invalid pdf")

// Processor is the page-level PDF toolkit used by the extraction flow.
type Processor interface {
	// PageCount parses rs and returns its number of pages.
	PageCount(rs io.ReadSeeker) (int, error)
	// Collect writes a new document to w made of copies of the given 1-based pages, in order.
	// A page listed more than once is copied more than once.
	Collect(rs io.ReadSeeker, w io.Writer, pages []int) error
}

var disableConfigDir sync.Once

// pdfcpuProcessor implements Processor with pdfcpu.
// A fresh configuration is built per call since pdfcpu mutates it while processing.
type pdfcpuProcessor struct {
	mode int
}

// NewPDFCPU returns a Processor backed by pdfcpu.
func NewPDFCPU(cfg config.PDFConfig) Processor {
	// pdfcpu would otherwise create a config directory under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)

	mode := model.ValidationRelaxed
	if strings.EqualFold(cfg.ValidationMode, "strict") {
		mode = model.ValidationStrict
	}
	return &pdfcpuProcessor{mode: mode}
}

func (p *pdfcpuProcessor) conf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = p.mode
	return conf
}

func (p *pdfcpuProcessor) PageCount(rs io.ReadSeeker) (int, error) {
	n, err := api.PageCount(rs, p.conf())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	return n, nil
}

func (p *pdfcpuProcessor) Collect(rs io.ReadSeeker, w io.Writer, pages []int) error {
	if len(pages) == 0 {
		return errors.New("collect: no pages selected")
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind source: %w", err)
	}

	selected := make([]string, len(pages))
	for i, pg := range pages {
		selected[i] = strconv.Itoa(pg)
	}

	if err := api.Collect(rs, w, selected, p.conf()); err != nil {
		return fmt.Errorf("%w: collect pages: %v", ErrInvalidPDF, err)
	}
	return nil
}
