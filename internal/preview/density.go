package preview

import (
	"errors"
	"fmt"
)

var ErrUnsupportedResolution = errors.New("unsupported print resolution")

const DefaultDPI = 203

// dpmmByDPI maps printer resolutions to the dots-per-millimetre values the
// rasterization service understands. Anything else is rejected before a
// request goes out.
var dpmmByDPI = map[int]int{
	152: 6,
	203: 8,
	300: 12,
	600: 24,
}

func DPMMForDPI(dpi int) (int, error) {
	dpmm, ok := dpmmByDPI[dpi]
	if !ok {
		return 0, fmt.Errorf("%w: %d dpi (supported: 152, 203, 300, 600)", ErrUnsupportedResolution, dpi)
	}
	return dpmm, nil
}
