package projection

import (
	"fmt"
	"sort"
	"strings"
)

var registry = map[string]func() Transform{
	"identity":     func() Transform { return Identity{} },
	"plate-carree": func() Transform { return NewPlateCarree(DefaultPlateCarreeScale) },
	"mercator":     func() Transform { return NewMercator(SphericalMercatorExtent) },
	"web-mercator": func() Transform { return WebMercator{} },
}

var epsg = map[int]string{
	4326: "plate-carree",
	3857: "web-mercator",
}

// ForName returns a fresh transform for a registered name. Names are
// case-insensitive and "EPSG:<code>" is accepted for the supported codes.
func ForName(name string) (Transform, error) {
	norm := strings.ToLower(strings.TrimSpace(name))
	if code, ok := strings.CutPrefix(norm, "epsg:"); ok {
		var n int
		if _, err := fmt.Sscanf(code, "%d", &n); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProjection, name)
		}
		return ForEPSG(n)
	}
	ctor, ok := registry[norm]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProjection, name)
	}
	return ctor(), nil
}

// ForEPSG returns a transform for a supported EPSG code.
func ForEPSG(code int) (Transform, error) {
	name, ok := epsg[code]
	if !ok {
		return nil, fmt.Errorf("%w: EPSG:%d", ErrUnknownProjection, code)
	}
	return registry[name](), nil
}

// Names lists the registered transform names in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
