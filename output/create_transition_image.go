package output

import (
	"fmt"

	"github.com/fogleman/gg"
	"github.com/the1joesmith/ascent-and-spread/internal/transition"
)

// CreateTransitionImage renders the transition raster as a PNG for visual
// checks: early transition years in blue shading through red for late ones,
// white for pixels that never reached the target state, gray for no-data.
func CreateTransitionImage(tr transition.Raster, firstYear, lastYear int, outputPath string) error {
	width := tr.Grid.Width
	height := tr.Grid.Height
	if width == 0 || height == 0 {
		return fmt.Errorf("empty transition raster")
	}

	span := float64(lastYear - firstYear)
	if span <= 0 {
		span = 1
	}

	dc := gg.NewContext(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pix := tr.Grid.Index(x, y)
			switch {
			case !tr.Valid[pix]:
				dc.SetRGB(0.6, 0.6, 0.6)
			case !tr.Observed[pix]:
				dc.SetRGB(1, 1, 1)
			default:
				f := float64(tr.Years[pix]-firstYear) / span
				if f < 0 {
					f = 0
				}
				if f > 1 {
					f = 1
				}
				dc.SetRGB(f, 0.2, 1-f)
			}
			dc.SetPixel(x, y)
		}
	}

	if err := dc.SavePNG(outputPath); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}

	fmt.Printf("Transition image saved to: %s\n", outputPath)
	fmt.Printf("Image dimensions: %dx%d\n", width, height)
	return nil
}
