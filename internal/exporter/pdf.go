package exporter

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"
)

// writePDF embeds a rendered PNG into a single-page PDF whose page size
// matches the figure's physical dimensions, so the chart prints at true
// scale.
func writePDF(pngData []byte, widthCM, heightCM float64, path string) error {
	if widthCM <= 0 || heightCM <= 0 {
		return fmt.Errorf("invalid figure size %gx%g cm", widthCM, heightCM)
	}

	wMM, hMM := widthCM*10, heightCM*10

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: wMM, Ht: hMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("figure", opts, bytes.NewReader(pngData))
	pdf.ImageOptions("figure", 0, 0, wMM, hMM, false, opts, 0, "")

	if pdf.Err() {
		return fmt.Errorf("pdf assembly failed: %s", pdf.Error())
	}
	return pdf.OutputFileAndClose(path)
}
