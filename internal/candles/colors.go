package candles

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joaaoazul/hypermint/internal/model"
)

// volumeAlpha is the opacity of volume bars against the candle colors.
const volumeAlpha = "0.3"

// VolumeFromScheme derives translucent volume colors from the candle colors
// of cs. Colors that are not #rgb or #rrggbb hex are left empty so NewStore
// uses the defaults.
func VolumeFromScheme(cs model.ColorScheme) VolumeColors {
	return VolumeColors{Up: translucent(cs.Up), Down: translucent(cs.Down)}
}

func translucent(hex string) string {
	h := strings.TrimPrefix(hex, "#")
	if h == hex {
		return ""
	}
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return ""
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", v>>16, v>>8&0xff, v&0xff, volumeAlpha)
}
