package imaging

import (
	"bytes"
	"fmt"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// EXIF holds the subset of EXIF data the pipeline cares about.
type EXIF struct {
	CaptureTime    time.Time
	HasCaptureTime bool
	Latitude       float64
	Longitude      float64
	Altitude       float64
	HasGPS         bool
	CameraMake     string
	CameraModel    string
	ISO            int
	FNumber        float64
	ExposureTime   string
	FocalLength    float64
}

// ParseEXIF extracts capture time, GPS position, and camera settings
// from the raw file bytes. Photos without an EXIF block return an error;
// missing individual fields do not.
func ParseEXIF(raw []byte) (EXIF, error) {
	x, err := exif.Decode(bytes.NewReader(raw))
	if err != nil {
		return EXIF{}, fmt.Errorf("decoding EXIF: %w", err)
	}

	var out EXIF
	if t, err := x.DateTime(); err == nil {
		out.CaptureTime = t
		out.HasCaptureTime = true
	}
	if lat, lon, err := x.LatLong(); err == nil {
		out.Latitude = lat
		out.Longitude = lon
		out.HasGPS = true
		if tag, err := x.Get(exif.GPSAltitude); err == nil {
			if r, err := tag.Rat(0); err == nil {
				out.Altitude, _ = r.Float64()
			}
		}
	}
	if tag, err := x.Get(exif.Make); err == nil {
		out.CameraMake, _ = tag.StringVal()
	}
	if tag, err := x.Get(exif.Model); err == nil {
		out.CameraModel, _ = tag.StringVal()
	}
	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		out.ISO, _ = tag.Int(0)
	}
	if tag, err := x.Get(exif.FNumber); err == nil {
		if r, err := tag.Rat(0); err == nil {
			out.FNumber, _ = r.Float64()
		}
	}
	if tag, err := x.Get(exif.ExposureTime); err == nil {
		if r, err := tag.Rat(0); err == nil {
			out.ExposureTime = r.RatString()
		}
	}
	if tag, err := x.Get(exif.FocalLength); err == nil {
		if r, err := tag.Rat(0); err == nil {
			out.FocalLength, _ = r.Float64()
		}
	}
	return out, nil
}
