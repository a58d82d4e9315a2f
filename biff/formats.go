package biff

import "fmt"

// builtInStyleNames maps a STYLE record's built-in style id to its name.
// Order and values match the handful of built-in cell styles Excel itself
// defines (Normal, the outline-level styles, and the legacy Lotus-derived
// comma/currency/percent variants).
var builtInStyleNames = []string{
	"Normal",
	"RowLevel_",
	"ColLevel_",
	"Comma",
	"Currency",
	"Percent",
	"Comma [0]",
	"Currency [0]",
	"Hyperlink",
	"Followed Hyperlink",
}

// cellTypeFromFormatType maps a Format.Type (FUN/FDT/FNU/FGE/FTX) to the
// XL_CELL_* constant a NUMBER/RK/MULRK cell using that format should report.
var cellTypeFromFormatType = map[int]int{
	FUN: XL_CELL_NUMBER,
	FDT: XL_CELL_DATE,
	FNU: XL_CELL_NUMBER,
	FGE: XL_CELL_NUMBER,
	FTX: XL_CELL_NUMBER, // text-formatted numbers are still numeric values
}

// stdFormatCodeTypes classifies every standard (built-in) format key by
// type, for the conflict check in handleFormat and for fillInStandardFormats.
var stdFormatCodeTypes = map[int]int{
	0:  FGE, // General
	1:  FNU, // 0
	2:  FNU, // 0.00
	3:  FNU, // #,##0
	4:  FNU, // #,##0.00
	5:  FNU, // $#,##0_);($#,##0)
	6:  FNU, // $#,##0_);[Red]($#,##0)
	7:  FNU, // $#,##0.00_);($#,##0.00)
	8:  FNU, // $#,##0.00_);[Red]($#,##0.00)
	9:  FNU, // 0%
	10: FNU, // 0.00%
	11: FNU, // 0.00E+00
	12: FNU, // # ?/?
	13: FNU, // # ??/??
	14: FDT, // m/d/yyyy
	15: FDT, // d-mmm-yy
	16: FDT, // d-mmm
	17: FDT, // mmm-yy
	18: FDT, // h:mm AM/PM
	19: FDT, // h:mm:ss AM/PM
	20: FDT, // h:mm
	21: FDT, // h:mm:ss
	22: FDT, // m/d/yyyy h:mm
	37: FNU, // #,##0_);(#,##0)
	38: FNU, // #,##0_);[Red](#,##0)
	39: FNU, // #,##0.00_);(#,##0.00)
	40: FNU, // #,##0.00_);[Red](#,##0.00)
	41: FNU, // _(* #,##0_) accounting
	42: FNU, // _($* #,##0_) accounting
	43: FNU, // _(* #,##0.00_) accounting
	44: FNU, // _($* #,##0.00_) accounting
	45: FDT, // mm:ss
	46: FDT, // [h]:mm:ss
	47: FDT, // mm:ss.0
	48: FNU, // ##0.0E+0
	49: FTX, // @
	// 27-36 and 50-58 are Excel's locale-variant built-in date/time
	// formats (Japanese/Chinese/Korean calendar displays); like 14-22
	// they never get an explicit FORMAT record, so they must be
	// classified here too or a cell referencing them reads back as a
	// plain number instead of a date.
	27: FDT, // yyyy"年"m"月"
	28: FDT, // m"月"d"日"
	29: FDT, // m"月"d"日"
	30: FDT, // m/d/yy
	31: FDT, // yyyy"年"m"月"d"日"
	32: FDT, // h"時"mm"分"
	33: FDT, // h"時"mm"分"ss"秒"
	34: FDT, // 上午/下午 h"時"mm"分"
	35: FDT, // 上午/下午 h"時"mm"分"ss"秒"
	36: FDT, // yyyy"年"m"月"
	50: FDT, // yyyy"年"m"月"
	51: FDT, // m"月"d"日"
	52: FDT, // m"月"d"日"
	53: FDT, // m/d/yy
	54: FDT, // yyyy"年"m"月"d"日"
	55: FDT, // h"時"mm"分"
	56: FDT, // h"時"mm"分"ss"秒"
	57: FDT, // 上午/下午 h"時"mm"分"
	58: FDT, // 上午/下午 h"時"mm"分"ss"秒"
}

// stdFormatCodeStrings carries the literal format strings for the entries
// of stdFormatCodeTypes, used to pre-populate Book.FormatMap so that cells
// referencing a standard format by key resolve even when the workbook
// never emits an explicit FORMAT record for it (the common case).
var stdFormatCodeStrings = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	5:  "$#,##0_);($#,##0)",
	6:  "$#,##0_);[Red]($#,##0)",
	7:  "$#,##0.00_);($#,##0.00)",
	8:  "$#,##0.00_);[Red]($#,##0.00)",
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "m/d/yyyy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yyyy h:mm",
	37: "#,##0_);(#,##0)",
	38: "#,##0_);[Red](#,##0)",
	39: "#,##0.00_);(#,##0.00)",
	40: "#,##0.00_);[Red](#,##0.00)",
	41: `_(* #,##0_);_(* (#,##0);_(* "-"_);_(@_)`,
	42: `_($* #,##0_);_($* (#,##0);_($* "-"_);_(@_)`,
	43: `_(* #,##0.00_);_(* (#,##0.00);_(* "-"??_);_(@_)`,
	44: `_($* #,##0.00_);_($* (#,##0.00);_($* "-"??_);_(@_)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mm:ss.0",
	48: "##0.0E+0",
	49: "@",
	27: `yyyy"年"m"月"`,
	28: `m"月"d"日"`,
	29: `m"月"d"日"`,
	30: "m/d/yy",
	31: `yyyy"年"m"月"d"日"`,
	32: `h"時"mm"分"`,
	33: `h"時"mm"分"ss"秒"`,
	34: `上午/下午 h"時"mm"分"`,
	35: `上午/下午 h"時"mm"分"ss"秒"`,
	36: `yyyy"年"m"月"`,
	50: `yyyy"年"m"月"`,
	51: `m"月"d"日"`,
	52: `m"月"d"日"`,
	53: "m/d/yy",
	54: `yyyy"年"m"月"d"日"`,
	55: `h"時"mm"分"`,
	56: `h"時"mm"分"ss"秒"`,
	57: `上午/下午 h"時"mm"分"`,
	58: `上午/下午 h"時"mm"分"ss"秒"`,
}

// fillInStandardFormats pre-populates Book.FormatMap with the standard
// (built-in) number formats so that XF records referencing them by key
// resolve to a Format even though no FORMAT record for them ever appears
// in the stream — Excel only ever writes FORMAT records for user-defined
// custom formats.
func fillInStandardFormats(b *Book) {
	if b.FormatMap == nil {
		b.FormatMap = make(map[int]*Format)
	}
	for key, str := range stdFormatCodeStrings {
		if _, ok := b.FormatMap[key]; ok {
			continue
		}
		b.FormatMap[key] = &Format{
			FormatKey:    key,
			Type:         stdFormatCodeTypes[key],
			FormatString: str,
		}
	}
}

// defaultColourMap is the standard 64-entry BIFF colour palette, used until
// (and unless) a PALETTE record overrides it.
var defaultColourMap = map[int][3]int{
	0:  {0, 0, 0},
	1:  {255, 255, 255},
	2:  {255, 0, 0},
	3:  {0, 255, 0},
	4:  {0, 0, 255},
	5:  {255, 255, 0},
	6:  {255, 0, 255},
	7:  {0, 255, 255},
	8:  {0, 0, 0},
	9:  {255, 255, 255},
	10: {255, 0, 0},
	11: {0, 255, 0},
	12: {0, 0, 255},
	13: {255, 255, 0},
	14: {255, 0, 255},
	15: {0, 255, 255},
	16: {128, 0, 0},
	17: {0, 128, 0},
	18: {0, 0, 128},
	19: {128, 128, 0},
	20: {128, 0, 128},
	21: {0, 128, 128},
	22: {192, 192, 192},
	23: {128, 128, 128},
	24: {153, 153, 255},
	25: {153, 51, 102},
	26: {255, 255, 204},
	27: {204, 255, 255},
	28: {102, 0, 102},
	29: {255, 128, 128},
	30: {0, 102, 204},
	31: {204, 204, 255},
	32: {0, 0, 128},
	33: {255, 0, 255},
	34: {255, 255, 0},
	35: {0, 255, 255},
	36: {128, 0, 128},
	37: {128, 0, 0},
	38: {0, 128, 128},
	39: {0, 0, 255},
	40: {0, 204, 255},
	41: {204, 255, 255},
	42: {204, 255, 204},
	43: {255, 255, 153},
	44: {153, 204, 255},
	45: {255, 153, 204},
	46: {204, 153, 255},
	47: {255, 204, 153},
	48: {51, 102, 255},
	49: {51, 204, 204},
	50: {153, 204, 0},
	51: {255, 204, 0},
	52: {255, 153, 0},
	53: {255, 102, 0},
	54: {102, 102, 153},
	55: {150, 150, 150},
	56: {0, 51, 102},
	57: {51, 153, 102},
	58: {0, 51, 0},
	59: {51, 51, 0},
	60: {153, 51, 0},
	61: {153, 51, 102},
	62: {51, 51, 153},
	63: {51, 51, 51},
}

// initialiseColourMap resets a book's colour map to the default 64-entry
// palette, independent of any PALETTE record seen so far.
func initialiseColourMap(b *Book) {
	b.ColourMap = make(map[int][3]int, len(defaultColourMap))
	for k, v := range defaultColourMap {
		b.ColourMap[k] = v
	}
	b.ColourIndexesUsed = make(map[int]bool)
}

// checkColourIndexesInObj records which colour indexes an XF (and its
// nested alignment/border/background sub-objects) references, so that
// Book.ColourIndexesUsed reflects exactly which palette entries the
// workbook's formatting actually uses.
func checkColourIndexesInObj(b *Book, xf *XF, xfIndex int) {
	if b.ColourIndexesUsed == nil {
		b.ColourIndexesUsed = make(map[int]bool)
	}
	mark := func(idx int) {
		if idx <= 0 {
			return
		}
		b.ColourIndexesUsed[idx] = true
		if _, ok := b.ColourMap[idx]; !ok && b.verbosity > 0 {
			fmt.Fprintf(b.logfile,
				"WARNING *** XF[%d] references unknown colour index %d\n", xfIndex, idx)
		}
	}
	mark(xf.Border.LeftColourIndex)
	mark(xf.Border.RightColourIndex)
	mark(xf.Border.TopColourIndex)
	mark(xf.Border.BottomColourIndex)
	mark(xf.Border.DiagColourIndex)
	mark(xf.Background.PatternColourIndex)
	mark(xf.Background.BackgroundColourIndex)
}
