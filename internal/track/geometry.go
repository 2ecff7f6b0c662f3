package track

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MatFrancois/opotopo/internal/shared/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var ErrNoGeometry = errors.New("no line geometry in track file")

// Parse decodes a KML or GPX document into line features.
func Parse(format Format, r io.Reader) (*geojson.FeatureCollection, error) {
	var (
		fc  *geojson.FeatureCollection
		err error
	)
	switch format {
	case FormatKML:
		fc, err = parseKML(r)
	default:
		fc, err = parseGPX(r)
	}
	if err != nil {
		return nil, err
	}
	if len(fc.Features) == 0 {
		return nil, ErrNoGeometry
	}
	return fc, nil
}

type pathBuilder struct {
	fc    *geojson.FeatureCollection
	name  string
	lines []orb.LineString
}

func newPathBuilder() *pathBuilder {
	return &pathBuilder{fc: geojson.NewFeatureCollection()}
}

func (b *pathBuilder) addLine(ls orb.LineString) {
	if len(ls) > 0 {
		b.lines = append(b.lines, ls)
	}
}

// flush turns the lines gathered so far into one feature: a LineString for a
// single path, a MultiLineString otherwise.
func (b *pathBuilder) flush() {
	defer func() { b.lines, b.name = nil, "" }()
	if len(b.lines) == 0 {
		return
	}

	var (
		g      orb.Geometry
		length float64
	)
	if len(b.lines) == 1 {
		g = b.lines[0]
		length = geo.LineLengthKm(b.lines[0])
	} else {
		mls := make(orb.MultiLineString, len(b.lines))
		for i, ls := range b.lines {
			mls[i] = ls
			length += geo.LineLengthKm(ls)
		}
		g = mls
	}

	f := geojson.NewFeature(g)
	if b.name != "" {
		f.Properties["name"] = b.name
	}
	f.Properties["length_km"] = length
	b.fc.Append(f)
}

func parseKML(r io.Reader) (*geojson.FeatureCollection, error) {
	dec := xml.NewDecoder(r)
	b := newPathBuilder()
	inPlacemark := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("KML decode: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "Placemark":
				b.flush()
				inPlacemark = true
			case "name":
				if inPlacemark {
					var name string
					_ = dec.DecodeElement(&name, &el)
					b.name = strings.TrimSpace(name)
				}
			case "LineString", "LinearRing":
				ls, err := decodeKMLLine(dec, el)
				if err != nil {
					return nil, err
				}
				b.addLine(ls)
			case "Track":
				ls, err := decodeKMLTrack(dec, el)
				if err != nil {
					return nil, err
				}
				b.addLine(ls)
			}
		case xml.EndElement:
			if el.Name.Local == "Placemark" {
				b.flush()
				inPlacemark = false
			}
		}
	}
	b.flush()
	return b.fc, nil
}

func decodeKMLLine(dec *xml.Decoder, start xml.StartElement) (orb.LineString, error) {
	var line struct {
		Coordinates string `xml:"coordinates"`
	}
	if err := dec.DecodeElement(&line, &start); err != nil {
		return nil, fmt.Errorf("KML decode: %w", err)
	}
	var ls orb.LineString
	for _, tuple := range strings.Fields(line.Coordinates) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			continue
		}
		if p, ok := lonLat(parts[0], parts[1]); ok {
			ls = append(ls, p)
		}
	}
	return ls, nil
}

func decodeKMLTrack(dec *xml.Decoder, start xml.StartElement) (orb.LineString, error) {
	var track struct {
		Coords []string `xml:"coord"`
	}
	if err := dec.DecodeElement(&track, &start); err != nil {
		return nil, fmt.Errorf("KML decode: %w", err)
	}
	var ls orb.LineString
	for _, c := range track.Coords {
		parts := strings.Fields(c)
		if len(parts) < 2 {
			continue
		}
		if p, ok := lonLat(parts[0], parts[1]); ok {
			ls = append(ls, p)
		}
	}
	return ls, nil
}

func parseGPX(r io.Reader) (*geojson.FeatureCollection, error) {
	dec := xml.NewDecoder(r)
	b := newPathBuilder()
	var (
		current orb.LineString
		inPath  bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("GPX decode: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "trk", "rte":
				b.flush()
				inPath = true
				current = nil
			case "name":
				if inPath && b.name == "" && len(b.lines) == 0 && len(current) == 0 {
					var name string
					_ = dec.DecodeElement(&name, &el)
					b.name = strings.TrimSpace(name)
				}
			case "trkseg":
				current = nil
			case "trkpt", "rtept":
				var lat, lon string
				for _, a := range el.Attr {
					switch a.Name.Local {
					case "lat":
						lat = a.Value
					case "lon":
						lon = a.Value
					}
				}
				if p, ok := lonLat(lon, lat); ok {
					current = append(current, p)
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "trkseg":
				b.addLine(current)
				current = nil
			case "trk", "rte":
				b.addLine(current)
				current = nil
				b.flush()
				inPath = false
			}
		}
	}
	b.flush()
	return b.fc, nil
}

func lonLat(lonText, latText string) (orb.Point, bool) {
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err != nil {
		return orb.Point{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return orb.Point{}, false
	}
	return orb.Point{lon, lat}, true
}

// Bounds returns the box around every LineString and MultiLineString
// coordinate of the collections; ok is false when there is none.
func Bounds(collections ...*geojson.FeatureCollection) (orb.Bound, bool) {
	var (
		bound orb.Bound
		ok    bool
	)
	extend := func(p orb.Point) {
		if !ok {
			bound, ok = p.Bound(), true
			return
		}
		bound = bound.Extend(p)
	}
	for _, fc := range collections {
		if fc == nil {
			continue
		}
		for _, f := range fc.Features {
			if f == nil {
				continue
			}
			switch g := f.Geometry.(type) {
			case orb.LineString:
				for _, p := range g {
					extend(p)
				}
			case orb.MultiLineString:
				for _, ls := range g {
					for _, p := range ls {
						extend(p)
					}
				}
			}
		}
	}
	return bound, ok
}
