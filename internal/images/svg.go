package images

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// rasterizeSVG renders an SVG document at its natural size, scaled down to the
// maximum dimension. The natural size is the root width/height, then the viewBox,
// then the default size.
func (n *Normalizer) rasterizeSVG(data []byte) (image.Image, error) {
	if !bytes.Contains(data, []byte("<svg")) {
		return nil, errors.New("no <svg> element found")
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.WarnErrorMode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse svg: %w", err)
	}

	root := parseSVGRoot(data)
	if (icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0) && root.viewBox[2] > 0 && root.viewBox[3] > 0 {
		icon.ViewBox.X, icon.ViewBox.Y = root.viewBox[0], root.viewBox[1]
		icon.ViewBox.W, icon.ViewBox.H = root.viewBox[2], root.viewBox[3]
	}

	width, height := root.width, root.height
	if width <= 0 || height <= 0 {
		width = int(math.Round(icon.ViewBox.W))
		height = int(math.Round(icon.ViewBox.H))
	}
	if width <= 0 || height <= 0 {
		width = n.defaultVectorSize()
		height = n.defaultVectorSize()
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		icon.ViewBox.W = float64(width)
		icon.ViewBox.H = float64(height)
	}
	width, height = FitWithin(width, height, n.maxDimension())

	icon.SetTarget(0, 0, float64(width), float64(height))
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, dst, dst.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)

	return dst, nil
}

// svgRoot holds the sizing attributes of the root <svg> element.
// width and height are 0 when missing, relative or not positive.
type svgRoot struct {
	width, height int
	viewBox       [4]float64
}

func parseSVGRoot(data []byte) svgRoot {
	var root svgRoot
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false
	for {
		tok, err := decoder.Token()
		if err != nil {
			return root
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "svg" {
			return root
		}
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "width":
				root.width = parseLength(attr.Value)
			case "height":
				root.height = parseLength(attr.Value)
			case "viewBox":
				root.viewBox = parseViewBox(attr.Value)
			}
		}
		if root.width <= 0 || root.height <= 0 {
			root.width, root.height = 0, 0
		}
		return root
	}
}

func parseViewBox(s string) [4]float64 {
	var box [4]float64
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' })
	if len(fields) != 4 {
		return box
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return [4]float64{}
		}
		box[i] = v
	}
	return box
}

func parseLength(s string) int {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, "%") {
		return 0
	}
	s = strings.TrimSuffix(s, "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return int(math.Round(v))
}
