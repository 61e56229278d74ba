package geometry

import (
	"fmt"

	"github.com/reelkit/reelcut/internal/types"
)

// PlanCrop computes the centered crop window that reframes a srcW x srcH
// source to the target aspect ratio (width/height). Sources wider than the
// target keep full height and lose the sides; narrower sources keep full
// width and lose top and bottom symmetrically. Dimensions are truncated to
// whole pixels, so a 1920x1080 source at 9:16 yields a 607x1080 window.
func PlanCrop(srcW, srcH int, targetRatio float64) (types.CropWindow, error) {
	if srcW <= 0 || srcH <= 0 {
		return types.CropWindow{}, fmt.Errorf("degenerate source dimensions %dx%d", srcW, srcH)
	}
	if targetRatio <= 0 {
		return types.CropWindow{}, fmt.Errorf("target ratio must be > 0, got %v", targetRatio)
	}

	current := float64(srcW) / float64(srcH)
	if current > targetRatio {
		cropW := int(float64(srcH) * targetRatio)
		return types.CropWindow{
			Width:   cropW,
			Height:  srcH,
			XOffset: (srcW - cropW) / 2,
			YOffset: 0,
		}, nil
	}

	cropH := int(float64(srcW) / targetRatio)
	return types.CropWindow{
		Width:   srcW,
		Height:  cropH,
		XOffset: 0,
		YOffset: (srcH - cropH) / 2,
	}, nil
}
