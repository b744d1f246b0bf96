package api

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/paulmach/orb"
)

// floatParam parses a query value. A missing optional value yields def.
func floatParam(q url.Values, name string, def float64, required bool) (float64, error) {
	raw := q.Get(name)
	if raw == "" {
		if required {
			return 0, fmt.Errorf("%w: missing %s", ErrBadRequest, name)
		}
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", ErrBadRequest, name)
	}
	return v, nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return v, nil
}

// pointParams reads the required lat and lon values.
func pointParams(q url.Values) (orb.Point, error) {
	lat, err := floatParam(q, "lat", 0, true)
	if err != nil {
		return orb.Point{}, err
	}
	lon, err := floatParam(q, "lon", 0, true)
	if err != nil {
		return orb.Point{}, err
	}
	return orb.Point{lon, lat}, nil
}

// boundParams reads the required minx, miny, maxx and maxy values.
func boundParams(q url.Values) (orb.Bound, error) {
	var v [4]float64
	for i, name := range []string{"minx", "miny", "maxx", "maxy"} {
		f, err := floatParam(q, name, 0, true)
		if err != nil {
			return orb.Bound{}, err
		}
		v[i] = f
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}
