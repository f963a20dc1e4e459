package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// styleSet holds the style IDs registered on one workbook. Styles are
// per-file in excelize, so a fresh set is built on every render.
type styleSet struct {
	title     int
	subtitle  int
	header    int
	left      int
	center    int
	leftAlt   int
	centerAlt int
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: borderClr, Style: 1},
		{Type: "right", Color: borderClr, Style: 1},
		{Type: "top", Color: borderClr, Style: 1},
		{Type: "bottom", Color: borderClr, Style: 1},
	}
}

func darkFill() excelize.Fill {
	return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{darkBG}}
}

func newStyleSet(f *excelize.File) (styleSet, error) {
	var st styleSet
	var err error

	st.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Arial", Bold: true, Size: 16, Color: whiteText},
		Fill:      darkFill(),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return st, fmt.Errorf("failed to register title style: %w", err)
	}

	st.subtitle, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Arial", Italic: true, Size: 10, Color: greyText},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return st, fmt.Errorf("failed to register subtitle style: %w", err)
	}

	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Arial", Bold: true, Size: 11, Color: goldText},
		Fill:      darkFill(),
		Border:    thinBorder(),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return st, fmt.Errorf("failed to register header style: %w", err)
	}

	dataFont := &excelize.Font{Family: "Arial", Size: 10, Color: inkText}
	leftAlign := &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true}
	centerAlign := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}
	altRowFill := excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{altFill}}

	st.left, err = f.NewStyle(&excelize.Style{Font: dataFont, Border: thinBorder(), Alignment: leftAlign})
	if err != nil {
		return st, fmt.Errorf("failed to register data style: %w", err)
	}
	st.center, err = f.NewStyle(&excelize.Style{Font: dataFont, Border: thinBorder(), Alignment: centerAlign})
	if err != nil {
		return st, fmt.Errorf("failed to register data style: %w", err)
	}
	st.leftAlt, err = f.NewStyle(&excelize.Style{Font: dataFont, Border: thinBorder(), Alignment: leftAlign, Fill: altRowFill})
	if err != nil {
		return st, fmt.Errorf("failed to register data style: %w", err)
	}
	st.centerAlt, err = f.NewStyle(&excelize.Style{Font: dataFont, Border: thinBorder(), Alignment: centerAlign, Fill: altRowFill})
	if err != nil {
		return st, fmt.Errorf("failed to register data style: %w", err)
	}

	return st, nil
}

// dataStyle picks the style for a data cell: the name column is
// left-aligned, everything else centered, with alternating row shading.
func (st styleSet) dataStyle(nameColumn, alt bool) int {
	switch {
	case nameColumn && alt:
		return st.leftAlt
	case nameColumn:
		return st.left
	case alt:
		return st.centerAlt
	default:
		return st.center
	}
}
