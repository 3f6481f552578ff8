package montage

import "beatcannon/internal/ffmpeg"

// PlanGeometry computes the filter chain mapping an arbitrary source
// resolution onto the target: upscale first if either source dimension is
// smaller than the target's (so the crop never runs out of pixels), center
// crop the wider axis to the target aspect, then rescale to the exact
// target resolution and normalize the pixel format.
func PlanGeometry(srcWidth, srcHeight, dstWidth, dstHeight int, pixelFormat string) *ffmpeg.FilterBuilder {
	srcAspect := float64(srcWidth) / float64(srcHeight)
	dstAspect := float64(dstWidth) / float64(dstHeight)

	scaleWidth := srcWidth
	scaleHeight := srcHeight

	if srcWidth < dstWidth || srcHeight < dstHeight {
		widthScale := float64(dstWidth) / float64(srcWidth)
		heightScale := float64(dstHeight) / float64(srcHeight)
		factor := widthScale
		if heightScale > factor {
			factor = heightScale
		}
		scaleWidth = int(float64(srcWidth) * factor)
		scaleHeight = int(float64(srcHeight) * factor)
	}

	fb := ffmpeg.NewFilterBuilder()

	switch {
	case srcAspect > dstAspect:
		// Source is wider: crop width symmetrically.
		cropWidth := int(float64(scaleHeight) * dstAspect)
		cropX := (scaleWidth - cropWidth) / 2
		fb.Scale(scaleWidth, scaleHeight).
			Crop(cropWidth, scaleHeight, cropX, 0)
	case srcAspect < dstAspect:
		// Source is taller: crop height symmetrically.
		cropHeight := int(float64(scaleWidth) / dstAspect)
		cropY := (scaleHeight - cropHeight) / 2
		fb.Scale(scaleWidth, scaleHeight).
			Crop(scaleWidth, cropHeight, 0, cropY)
	}

	return fb.Scale(dstWidth, dstHeight).Format(pixelFormat)
}
