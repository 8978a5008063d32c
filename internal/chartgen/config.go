package chartgen

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ChartKind selects the figure layout.
type ChartKind string

const (
	// ChartTimeseries plots one or more response series against a shared
	// time column.
	ChartTimeseries ChartKind = "timeseries"
	// ChartHysteresis plots force-displacement style loops, one y column
	// per loop against a shared x column.
	ChartHysteresis ChartKind = "hysteresis"
)

// ChartConfig is the full description of one figure. Field names mirror
// the JSON accepted by the plot endpoints.
type ChartConfig struct {
	Kind ChartKind `json:"-" validate:"required,oneof=timeseries hysteresis"`

	// Column selection. Timeseries uses TimeColumn+SeriesColumns,
	// hysteresis uses XColumn+YColumns.
	TimeColumn    string   `json:"time_col"`
	SeriesColumns []string `json:"series_cols"`
	XColumn       string   `json:"x_col"`
	YColumns      []string `json:"y_cols"`

	// Labels override column names in the legend, positionally.
	Labels []string `json:"labels"`

	Title  string `json:"title"`
	XLabel string `json:"xlabel"`
	YLabel string `json:"ylabel"`

	// FigSizeCM is the physical figure size in centimeters.
	FigSizeCM []float64 `json:"figsize_cm" validate:"omitempty,len=2,dive,gt=0"`

	// DPI overrides the mode default (preview vs export).
	DPI int `json:"dpi" validate:"omitempty,gt=0,lte=1200"`

	// Axis control. Major steps of zero mean automatic tick placement.
	XMajor        float64      `json:"x_major" validate:"gte=0"`
	YMajor        float64      `json:"y_major" validate:"gte=0"`
	ShowMinorGrid *bool        `json:"show_minor_grid"`
	ZeroBaseline  *bool        `json:"zero_baseline"`
	ZeroAxes      *bool        `json:"zero_axes"`
	XLim          []*float64   `json:"xlim"`
	YLim          []*float64   `json:"ylim"`
	EqualAspect   bool         `json:"equal_aspect"`

	LegendLoc string  `json:"legend_loc" validate:"omitempty,oneof=best 'upper left' 'upper right' 'lower left' 'lower right' upper-left upper-right lower-left lower-right"`
	LineWidth float64 `json:"linewidth" validate:"gte=0,lte=20"`

	Smooth       string             `json:"smooth" validate:"omitempty,oneof=ma savgol"`
	SmoothKwargs map[string]float64 `json:"smooth_kwargs"`

	AnnotatePeaks bool `json:"annotate_peaks"`
	MetricsBox    bool `json:"metrics_box"`

	// Export-only fields, ignored by preview.
	ExportFormats []string `json:"export_formats" validate:"omitempty,dive,oneof=png pdf svg"`
	SaveDir       string   `json:"save_dir"`
	FilenameBase  string   `json:"filename_base"`
}

// defaults per figure kind
const (
	defaultLineWidth       = 2.0
	defaultTimeseriesWcm   = 16.0
	defaultTimeseriesHcm   = 9.0
	defaultHysteresisWcm   = 16.0
	defaultHysteresisHcm   = 16.0
	defaultSmoothK         = 5
	defaultSavgolWindow    = 11
	defaultSavgolPolyOrder = 3
)

// Normalize fills defaults for unset fields. Call after decoding and
// before Validate.
func (c *ChartConfig) Normalize() {
	if len(c.FigSizeCM) != 2 {
		if c.Kind == ChartHysteresis {
			c.FigSizeCM = []float64{defaultHysteresisWcm, defaultHysteresisHcm}
		} else {
			c.FigSizeCM = []float64{defaultTimeseriesWcm, defaultTimeseriesHcm}
		}
	}
	if c.LineWidth == 0 {
		c.LineWidth = defaultLineWidth
	}
	if c.LegendLoc == "" {
		c.LegendLoc = "best"
	}
	if c.ShowMinorGrid == nil {
		t := true
		c.ShowMinorGrid = &t
	}
	if c.ZeroBaseline == nil {
		t := true
		c.ZeroBaseline = &t
	}
	if c.ZeroAxes == nil {
		t := c.Kind == ChartHysteresis
		c.ZeroAxes = &t
	}
	if len(c.ExportFormats) == 0 {
		c.ExportFormats = []string{"png", "pdf", "svg"}
	}
}

// Validate checks the configuration against the given kind's
// requirements. The validator handles field-level constraints; the
// cross-field rules live here.
func (c *ChartConfig) Validate(v *validator.Validate) error {
	if err := v.Struct(c); err != nil {
		return err
	}

	switch c.Kind {
	case ChartTimeseries:
		if c.TimeColumn == "" {
			return fmt.Errorf("time_col is required for timeseries charts")
		}
		if len(c.SeriesColumns) == 0 {
			return fmt.Errorf("series_cols must name at least one column")
		}
	case ChartHysteresis:
		if c.XColumn == "" {
			return fmt.Errorf("x_col is required for hysteresis charts")
		}
		if len(c.YColumns) == 0 {
			return fmt.Errorf("y_cols must name at least one column")
		}
	default:
		return fmt.Errorf("unknown chart kind %q", c.Kind)
	}

	if len(c.XLim) != 0 && len(c.XLim) != 2 {
		return fmt.Errorf("xlim must be a [min, max] pair")
	}
	if len(c.YLim) != 0 && len(c.YLim) != 2 {
		return fmt.Errorf("ylim must be a [min, max] pair")
	}

	return nil
}

// AxisColumn returns the shared x column for the configured kind.
func (c *ChartConfig) AxisColumn() string {
	if c.Kind == ChartHysteresis {
		return c.XColumn
	}
	return c.TimeColumn
}

// ValueColumns returns the y columns for the configured kind.
func (c *ChartConfig) ValueColumns() []string {
	if c.Kind == ChartHysteresis {
		return c.YColumns
	}
	return c.SeriesColumns
}

// SeriesLabel returns the legend label for series i, falling back to
// the column name when no override was supplied.
func (c *ChartConfig) SeriesLabel(i int, column string) string {
	if i < len(c.Labels) && c.Labels[i] != "" {
		return c.Labels[i]
	}
	return column
}

// SmoothingSpec resolves the smoothing request into filter parameters.
func (c *ChartConfig) SmoothingSpec() SmoothingSpec {
	spec := SmoothingSpec{
		Method:       SmoothingMethod(c.Smooth),
		K:            defaultSmoothK,
		WindowLength: defaultSavgolWindow,
		PolyOrder:    defaultSavgolPolyOrder,
	}
	if v, ok := c.SmoothKwargs["k"]; ok {
		spec.K = int(v)
	}
	if v, ok := c.SmoothKwargs["window_length"]; ok {
		spec.WindowLength = int(v)
	}
	if v, ok := c.SmoothKwargs["polyorder"]; ok {
		spec.PolyOrder = int(v)
	}
	return spec
}

// XAxisLimit returns the requested x limits.
func (c *ChartConfig) XAxisLimit() AxisLimit { return limitFromPair(c.XLim) }

// YAxisLimit returns the requested y limits.
func (c *ChartConfig) YAxisLimit() AxisLimit { return limitFromPair(c.YLim) }

func limitFromPair(pair []*float64) AxisLimit {
	var lim AxisLimit
	if len(pair) == 2 {
		lim.Lo = pair[0]
		lim.Hi = pair[1]
	}
	return lim
}

// String implements fmt.Stringer for log output.
func (c *ChartConfig) String() string {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("ChartConfig(%s)", c.Kind)
	}
	return string(b)
}
