package model

// Detection is an object recorded with a screenshot.
type Detection struct {
	ID           int64   `json:"id"`
	ScreenshotID int64   `json:"screenshot_id"`
	ObjectName   string  `json:"object_name"`
	X1           int     `json:"x1"`
	Y1           int     `json:"y1"`
	X2           int     `json:"x2"`
	Y2           int     `json:"y2"`
	Confidence   float64 `json:"confidence"`
}
